// Package highlight converts model-reported row positions into page-local
// shapes for the three highlight styles.
package highlight

import (
	"math"
	"strings"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// Style selects how a located row is marked.
type Style string

const (
	// StyleRow is a translucent band across the row's horizontal extent.
	StyleRow Style = "row"
	// StyleName is the same band capped at NameMaxWidth.
	StyleName Style = "name"
	// StyleMargin is a small dot in the left margin at the row's height.
	StyleMargin Style = "margin"
)

// Geometry constants, in page units.
const (
	RowHeight            = 12.0
	NameMaxWidth         = 200.0
	MarginX              = 8.0
	MarginRadius         = 4.0
	DefaultXStartPercent = 3.0
	DefaultXEndPercent   = 97.0
)

var styleOpacity = map[Style]float64{
	StyleRow:    0.3,
	StyleName:   0.35,
	StyleMargin: 0.9,
}

// ParseStyle maps a request value to a Style; unknown values fall back to StyleRow.
func ParseStyle(s string) Style {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleRow, StyleName, StyleMargin:
		return st
	default:
		return StyleRow
	}
}

// PageGeometry reports the document's page count and per-page size.
// Pages are 1-indexed.
type PageGeometry interface {
	PageCount() int
	PageSize(page int) (width, height float64, ok bool)
}

// Options controls the rendered shapes.
type Options struct {
	Style Style
	Color models.RGB
}

// Resolve returns the shapes to draw for targets. Targets that were not
// found, or that name a page outside 1..PageCount, are skipped rather than
// moved to another page.
func Resolve(targets []models.HighlightTarget, pages PageGeometry, opts Options) []models.DrawInstruction {
	style := ParseStyle(string(opts.Style))
	out := make([]models.DrawInstruction, 0, len(targets))
	for _, t := range targets {
		if ins, ok := resolveOne(t, pages, style, opts.Color); ok {
			out = append(out, ins)
		}
	}
	return out
}

func resolveOne(t models.HighlightTarget, pages PageGeometry, style Style, color models.RGB) (models.DrawInstruction, bool) {
	if !t.Found || t.Page < 1 || t.Page > pages.PageCount() {
		return models.DrawInstruction{}, false
	}
	width, height, ok := pages.PageSize(t.Page)
	if !ok || math.IsNaN(t.YPercent) || math.IsInf(t.YPercent, 0) {
		return models.DrawInstruction{}, false
	}

	// Model positions are measured from the top; the drawing surface's origin is bottom-left.
	y := height - (t.YPercent/100)*height

	if style == StyleMargin {
		return models.DrawInstruction{
			Page:    t.Page,
			Shape:   models.ShapeCircle,
			X:       MarginX,
			Y:       y,
			Radius:  MarginRadius,
			Color:   color,
			Opacity: styleOpacity[style],
		}, true
	}

	startPct, endPct := xBounds(t)
	x := startPct / 100 * width
	w := (endPct - startPct) / 100 * width
	if style == StyleName {
		w = min(w, NameMaxWidth)
	}
	return models.DrawInstruction{
		Page:    t.Page,
		Shape:   models.ShapeRectangle,
		X:       x,
		Y:       y - RowHeight/2,
		Width:   w,
		Height:  RowHeight,
		Color:   color,
		Opacity: styleOpacity[style],
	}, true
}

// xBounds fills missing horizontal bounds with near-full-width defaults. An
// empty or inverted span also falls back to the defaults.
func xBounds(t models.HighlightTarget) (float64, float64) {
	start, end := DefaultXStartPercent, DefaultXEndPercent
	if t.XStartPercent != nil {
		start = *t.XStartPercent
	}
	if t.XEndPercent != nil {
		end = *t.XEndPercent
	}
	if end <= start {
		return DefaultXStartPercent, DefaultXEndPercent
	}
	return start, end
}
