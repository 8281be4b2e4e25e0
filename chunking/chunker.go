package chunking

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultNoiseFloor is the paragraph length (in characters, after trimming)
// at or below which a paragraph is dropped as noise: headers, footers,
// page numbers.
const DefaultNoiseFloor = 50

const wordsPerMinute = 200

// Paragraph boundaries are blank lines in the raw page text. They must be
// detected before whitespace normalization collapses them to single spaces.
var (
	paragraphBoundary = regexp.MustCompile(`\n[ \t]*\n`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// Chunk is one content unit produced from a page, before persistence.
type Chunk struct {
	Index       int
	Content     string
	ReadingTime int
	PageNumber  int
	WordCount   int
	CharCount   int
}

// Chunker splits per-page text into ordered content units. Index assignment
// is document-global: it continues across page boundaries and stays dense
// even when a page contributes nothing.
type Chunker struct {
	noiseFloor int
	logger     *zap.Logger
}

func NewChunker(noiseFloor int, logger *zap.Logger) *Chunker {
	if noiseFloor <= 0 {
		noiseFloor = DefaultNoiseFloor
	}
	return &Chunker{
		noiseFloor: noiseFloor,
		logger:     logger,
	}
}

// ChunkPages converts the ordered page texts of one document into chunks.
// Pages are 1-indexed in the resulting metadata.
func (c *Chunker) ChunkPages(pages []string) []Chunk {
	var chunks []Chunk
	index := 0

	for i, pageText := range pages {
		pageNum := i + 1

		for _, para := range paragraphBoundary.Split(pageText, -1) {
			para = strings.TrimSpace(whitespaceRun.ReplaceAllString(para, " "))
			if para == "" {
				continue
			}
			if !utf8.ValidString(para) {
				// Not fatal to the document; the paragraph cannot be
				// measured reliably, so skip it.
				c.logger.Warn("skipping paragraph with invalid encoding",
					zap.Int("page", pageNum))
				continue
			}
			if utf8.RuneCountInString(para) <= c.noiseFloor {
				continue
			}

			chunks = append(chunks, Chunk{
				Index:       index,
				Content:     para,
				ReadingTime: EstimateReadingTime(para),
				PageNumber:  pageNum,
				WordCount:   len(strings.Fields(para)),
				CharCount:   utf8.RuneCountInString(para),
			})
			index++
		}
	}

	return chunks
}

// EstimateReadingTime estimates seconds needed to read text at an average
// adult pace of 200 words per minute, with a 5 second floor so very short
// chunks never report a degenerate estimate.
func EstimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	seconds := int(math.Round(float64(words) / wordsPerMinute * 60))
	if seconds < 5 {
		return 5
	}
	return seconds
}
