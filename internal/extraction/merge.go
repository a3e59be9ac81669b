package extraction

import (
	"sort"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// Merge deduplicates records by (event number, event name). A later duplicate
// replaces the kept record only when it has strictly more athletes; athlete
// lists are never unioned. The result is ordered by event number with
// unnumbered events last, ties keeping first-seen order.
func Merge(records []models.EventRecord) []models.EventRecord {
	index := make(map[models.EventKey]int, len(records))
	merged := make([]models.EventRecord, 0, len(records))
	for _, rec := range records {
		key := rec.Key()
		if i, ok := index[key]; ok {
			if len(rec.Athletes) > len(merged[i].Athletes) {
				merged[i] = rec
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].EventNumber, merged[j].EventNumber
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return merged
}
