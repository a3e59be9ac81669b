package extraction

import (
	"fmt"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// Plan decides how a document of the given size is extracted. Documents at or
// below the single-shot threshold get one request without a hint. Larger
// documents are split into contiguous, ascending page bands rendered as
// "pages A-B" hints; the last band absorbs the remainder.
//
// The returned requests carry no document bytes.
func Plan(size int, cfg Config) []models.ExtractionRequest {
	if size <= cfg.SingleShotMaxBytes {
		return []models.ExtractionRequest{{}}
	}

	pages := ceilDiv(size, cfg.BytesPerPage)
	chunks := min(cfg.MaxChunks, max(2, ceilDiv(pages, cfg.PagesPerChunk)))
	// Tiny thresholds can estimate fewer pages than chunks; give each band one page.
	pages = max(pages, chunks)

	band := pages / chunks
	reqs := make([]models.ExtractionRequest, 0, chunks)
	for i := 0; i < chunks; i++ {
		start := i*band + 1
		end := (i + 1) * band
		if i == chunks-1 {
			end = pages
		}
		reqs = append(reqs, models.ExtractionRequest{PageHint: fmt.Sprintf("pages %d-%d", start, end)})
	}
	return reqs
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
