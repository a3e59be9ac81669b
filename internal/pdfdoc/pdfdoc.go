// Package pdfdoc reads page metadata from meet program PDFs with pdfcpu.
package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Geometry holds each page's media box size in points, page 1 first.
// It satisfies highlight.PageGeometry.
type Geometry []PageSize

// PageSize is a page's width and height in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageCount returns the number of pages.
func (g Geometry) PageCount() int { return len(g) }

// PageSize returns the size of the 1-indexed page.
func (g Geometry) PageSize(page int) (float64, float64, bool) {
	if page < 1 || page > len(g) {
		return 0, 0, false
	}
	p := g[page-1]
	return p.Width, p.Height, true
}

// relaxedConfig tolerates the malformed structure common in exported heat sheets.
func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// LoadGeometry returns the page sizes of pdf.
func LoadGeometry(pdf []byte) (Geometry, error) {
	dims, err := api.PageDims(bytes.NewReader(pdf), relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	g := make(Geometry, len(dims))
	for i, d := range dims {
		g[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return g, nil
}

// PageCount returns the number of pages in pdf.
func PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), relaxedConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
