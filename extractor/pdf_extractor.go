package extractor

import (
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFExtractor extracts text page by page using github.com/ledongthuc/pdf.
type PDFExtractor struct {
	logger *zap.Logger
}

func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// ExtractPages reads every page of the PDF at path. A page that yields no
// text contributes an empty string; an unreadable or zero-page file fails
// the whole extraction.
func (e *PDFExtractor) ExtractPages(path string) (ext *Extraction, err error) {
	// ledongthuc/pdf panics on some malformed files instead of returning
	// an error, so corrupt input has to be caught here.
	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = &ExtractionError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	total := r.NumPage()
	if total == 0 {
		return nil, &ExtractionError{Path: path, Err: errors.New("pdf has no pages")}
	}

	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("failed to extract page text",
				zap.String("file", path),
				zap.Int("page", i),
				zap.Error(err))
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return &Extraction{PageCount: total, Pages: pages}, nil
}

var _ PageExtractor = (*PDFExtractor)(nil)
