package highlight

import (
	"github.com/Lllllllleong/heatsheetflow/internal/llmjson"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

const highlightsKey = "highlights"

// ParseTargets reads the locator model's {"highlights": [...]} response with
// the same tolerance as event extraction. Entries without a numeric
// yPercent are dropped; a missing "found" counts as not found.
func ParseTargets(raw string) []models.HighlightTarget {
	objs := llmjson.Objects(raw, highlightsKey)
	targets := make([]models.HighlightTarget, 0, len(objs))
	for _, obj := range objs {
		y, ok := llmjson.Number(obj, "yPercent")
		if !ok {
			continue
		}
		t := models.HighlightTarget{YPercent: y}
		t.AthleteName, _ = llmjson.String(obj, "name")
		t.EventLabel, _ = llmjson.String(obj, "event")
		t.Page, _ = llmjson.Int(obj, "page")
		t.Found, _ = llmjson.Bool(obj, "found")
		if v, ok := llmjson.Number(obj, "xStartPercent"); ok {
			t.XStartPercent = models.FloatPtr(v)
		}
		if v, ok := llmjson.Number(obj, "xEndPercent"); ok {
			t.XEndPercent = models.FloatPtr(v)
		}
		targets = append(targets, t)
	}
	return targets
}

// FoundCount returns how many targets the model reported as located.
func FoundCount(targets []models.HighlightTarget) int {
	n := 0
	for _, t := range targets {
		if t.Found {
			n++
		}
	}
	return n
}
