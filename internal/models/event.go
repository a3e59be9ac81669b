package models

// AthleteEntry is one entrant's row within an event. Optional fields are
// left at their zero value (nil or "") when the source did not supply them.
type AthleteEntry struct {
	Name     string `firestore:"name" json:"name"`
	Team     string `firestore:"team,omitempty" json:"team,omitempty"`
	Heat     *int   `firestore:"heat,omitempty" json:"heat,omitempty"`
	Lane     *int   `firestore:"lane,omitempty" json:"lane,omitempty"`
	SeedTime string `firestore:"seedTime,omitempty" json:"seedTime,omitempty"`
}

// EventRecord is one scheduled competition event with its entrants.
// Two records describe the same event iff their EventKey values are equal.
type EventRecord struct {
	EventNumber  *int           `firestore:"eventNumber" json:"eventNumber"`
	EventName    string         `firestore:"eventName" json:"eventName"`
	Athletes     []AthleteEntry `firestore:"athletes" json:"athletes"`
	RawText      string         `firestore:"rawText" json:"rawText"`
	ManualReview bool           `firestore:"manualReview,omitempty" json:"manualReview,omitempty"`
}

// EventKey is the identity of an event across chunk extractions.
type EventKey struct {
	HasNumber bool
	Number    int
	Name      string
}

// Key returns the record's identity key. Name comparison is case-sensitive.
func (e EventRecord) Key() EventKey {
	if e.EventNumber == nil {
		return EventKey{Name: e.EventName}
	}
	return EventKey{HasNumber: true, Number: *e.EventNumber, Name: e.EventName}
}

// MergedExtraction is the canonical event list for one document, ordered by
// event number with unnumbered events last.
type MergedExtraction struct {
	Events       []EventRecord `json:"events"`
	ChunkCount   int           `json:"chunkCount"`
	FailedChunks int           `json:"failedChunks"`
}

// ExtractionRequest is one chunk call: the whole document plus an optional
// page-range hint such as "pages 1-8".
type ExtractionRequest struct {
	Document []byte
	PageHint string
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
