package extractor

import "fmt"

// ExtractionError marks a document whose content could not be extracted.
// It is fatal to the current processing attempt and is never retried here.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extraction is the per-page plain text of a document, in document order.
// Pages[i] holds the text of page i+1 and may be empty.
type Extraction struct {
	PageCount int
	Pages     []string
}

// PageExtractor turns a stored file into per-page plain text.
type PageExtractor interface {
	ExtractPages(path string) (*Extraction, error)
}
