package extraction

import (
	"strings"

	"github.com/Lllllllleong/heatsheetflow/internal/llmjson"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// eventsKey is the top-level array the extraction prompt asks the model for.
const eventsKey = "events"

// ParseEvents turns a raw model response into event records. It never fails:
// a response with no recoverable structure yields an empty slice and the
// caller decides the fallback.
func ParseEvents(raw string) []models.EventRecord {
	objs := llmjson.Objects(raw, eventsKey)
	events := make([]models.EventRecord, 0, len(objs))
	for _, obj := range objs {
		if ev, ok := normalizeEvent(obj); ok {
			events = append(events, ev)
		}
	}
	return events
}

// normalizeEvent keeps only fields whose JSON type matches; nothing is coerced.
func normalizeEvent(obj map[string]any) (models.EventRecord, bool) {
	name, ok := llmjson.String(obj, "eventName")
	if !ok || strings.TrimSpace(name) == "" {
		return models.EventRecord{}, false
	}
	ev := models.EventRecord{
		EventName: name,
		Athletes:  []models.AthleteEntry{},
	}
	if n, ok := llmjson.Int(obj, "eventNumber"); ok {
		ev.EventNumber = models.IntPtr(n)
	}
	if raw, ok := llmjson.String(obj, "rawText"); ok {
		ev.RawText = raw
	}
	rawAthletes, _ := llmjson.Array(obj, "athletes")
	for _, item := range rawAthletes {
		a, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if athlete, ok := normalizeAthlete(a); ok {
			ev.Athletes = append(ev.Athletes, athlete)
		}
	}
	return ev, true
}

func normalizeAthlete(obj map[string]any) (models.AthleteEntry, bool) {
	name, ok := llmjson.String(obj, "name")
	if !ok || strings.TrimSpace(name) == "" {
		return models.AthleteEntry{}, false
	}
	athlete := models.AthleteEntry{Name: name}
	if team, ok := llmjson.String(obj, "team"); ok {
		athlete.Team = team
	}
	if seed, ok := llmjson.String(obj, "seedTime"); ok {
		athlete.SeedTime = seed
	}
	if heat, ok := positiveInt(obj, "heat"); ok {
		athlete.Heat = models.IntPtr(heat)
	}
	if lane, ok := positiveInt(obj, "lane"); ok {
		athlete.Lane = models.IntPtr(lane)
	}
	return athlete, true
}

func positiveInt(obj map[string]any, key string) (int, bool) {
	v, ok := llmjson.Int(obj, key)
	if !ok || v < 1 {
		return 0, false
	}
	return v, true
}
