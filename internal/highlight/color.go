package highlight

import (
	"strconv"
	"strings"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// DefaultColor is the highlighter yellow used when no colour is requested.
const DefaultColor = "#FFFF00"

// ParseColor converts "#RRGGBB" (the "#" is optional) to 0..1 components.
// Anything else yields DefaultColor.
func ParseColor(hex string) models.RGB {
	if c, ok := parseHex(hex); ok {
		return c
	}
	c, _ := parseHex(DefaultColor)
	return c
}

func parseHex(hex string) (models.RGB, bool) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return models.RGB{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return models.RGB{}, false
	}
	return models.RGB{
		R: float64(v>>16&0xFF) / 255,
		G: float64(v>>8&0xFF) / 255,
		B: float64(v&0xFF) / 255,
	}, true
}
