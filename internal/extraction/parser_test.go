package extraction

import (
	"reflect"
	"testing"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

const sampleResponse = `{"events":[
  {"eventNumber":1,"eventName":"Girls 10 & Under 50 Free","rawText":"Event 1 {Heat 1}","athletes":[
    {"name":"Smith, Jane","team":"AAC","heat":1,"lane":4,"seedTime":"35.20"},
    {"name":"Liu, Amy","team":"BSC","heat":1,"lane":5}
  ]},
  {"eventNumber":2,"eventName":"Boys [11-12] 100 Back","rawText":"","athletes":[
    {"name":"Lee, Sam","team":"AAC","heat":2,"lane":3,"seedTime":"1:12.04"}
  ]},
  {"eventNumber":3,"eventName":"Mixed 200 Medley Relay","rawText":"quote \" and } inside","athletes":[]}
]}`

func TestParseEvents_Basic(t *testing.T) {
	events := ParseEvents(sampleResponse)
	if len(events) != 3 {
		t.Fatalf("ParseEvents() returned %d events, want 3", len(events))
	}
	first := events[0]
	if first.EventNumber == nil || *first.EventNumber != 1 || first.EventName != "Girls 10 & Under 50 Free" {
		t.Fatalf("first event = %+v", first)
	}
	if len(first.Athletes) != 2 {
		t.Fatalf("first event athletes = %d, want 2", len(first.Athletes))
	}
	jane := first.Athletes[0]
	if jane.Team != "AAC" || jane.Heat == nil || *jane.Heat != 1 || jane.Lane == nil || *jane.Lane != 4 || jane.SeedTime != "35.20" {
		t.Fatalf("first athlete = %+v", jane)
	}
	if first.Athletes[1].SeedTime != "" {
		t.Fatalf("missing seed time should stay empty, got %q", first.Athletes[1].SeedTime)
	}
	if events[2].Athletes == nil || len(events[2].Athletes) != 0 {
		t.Fatalf("event with no athletes should be kept with an empty list, got %+v", events[2].Athletes)
	}
}

func TestParseEvents_FencedMatchesUnfenced(t *testing.T) {
	plain := ParseEvents(sampleResponse)
	for _, wrapped := range []string{
		"```json\n" + sampleResponse + "\n```",
		"```\n" + sampleResponse + "\n```",
	} {
		if got := ParseEvents(wrapped); !reflect.DeepEqual(got, plain) {
			t.Fatalf("fenced parse differs:\n got %+v\nwant %+v", got, plain)
		}
	}
}

func TestParseEvents_TrailingCommas(t *testing.T) {
	raw := `{"events":[{"eventNumber":7,"eventName":"Girls 50 Fly","athletes":[{"name":"A B",},],},],}`
	events := ParseEvents(raw)
	if len(events) != 1 || len(events[0].Athletes) != 1 {
		t.Fatalf("ParseEvents() = %+v", events)
	}
}

func TestParseEvents_TruncationRecoversCompletePrefix(t *testing.T) {
	objs := []string{
		`{"eventNumber":1,"eventName":"Girls 50 Free","rawText":"Event 1 {Heat 1}","athletes":[{"name":"Smith, Jane","lane":4}]}`,
		`{"eventNumber":2,"eventName":"Boys [11-12] 100 Back","athletes":[{"name":"Lee, Sam","seedTime":"1:12.04"}]}`,
		`{"eventNumber":3,"eventName":"Mixed Relay","rawText":"quote \" and } inside","athletes":[]}`,
	}
	full := `{"events":[`
	var ends []int
	for i, obj := range objs {
		if i > 0 {
			full += ","
		}
		full += obj
		ends = append(ends, len(full))
	}
	full += "]}"

	all := ParseEvents(full)
	if len(all) != len(objs) {
		t.Fatalf("ParseEvents(full) returned %d events, want %d", len(all), len(objs))
	}

	for cut := 0; cut <= len(full); cut++ {
		want := 0
		for _, end := range ends {
			if cut >= end {
				want++
			}
		}
		got := ParseEvents(full[:cut])
		if len(got) != want {
			t.Fatalf("cut at %d: recovered %d events, want %d (tail %q)", cut, len(got), want, full[max(0, cut-20):cut])
		}
		if !reflect.DeepEqual(got, all[:want]) {
			t.Fatalf("cut at %d: recovered events differ from the complete prefix", cut)
		}
	}
}

func TestParseEvents_NormalizationDropsMistypedFields(t *testing.T) {
	raw := `{"events":[
		{"eventNumber":"4","eventName":"Boys 50 Breast","athletes":[
			{"name":"Kept Swimmer","team":7,"heat":"2","lane":0,"seedTime":31.5},
			{"name":"","team":"AAC"},
			{"team":"AAC"},
			"not an object"
		]},
		{"eventNumber":5,"eventName":"","athletes":[]},
		{"eventNumber":6,"athletes":[]},
		{"eventNumber":8.5,"eventName":"Girls 100 IM","athletes":null}
	]}`
	events := ParseEvents(raw)
	if len(events) != 2 {
		t.Fatalf("ParseEvents() returned %d events, want 2: %+v", len(events), events)
	}
	ev := events[0]
	if ev.EventNumber != nil {
		t.Fatalf("string event number should be dropped, got %d", *ev.EventNumber)
	}
	if len(ev.Athletes) != 1 {
		t.Fatalf("athletes = %+v, want only the named one", ev.Athletes)
	}
	a := ev.Athletes[0]
	if a.Team != "" || a.Heat != nil || a.Lane != nil || a.SeedTime != "" {
		t.Fatalf("mistyped optional fields should be omitted, got %+v", a)
	}
	if events[1].EventNumber != nil || len(events[1].Athletes) != 0 {
		t.Fatalf("fractional event number and null athletes should normalize to none/empty, got %+v", events[1])
	}
}

func TestParseEvents_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "Sorry, I cannot read this file.", "```json\n```", `{"events":`} {
		if got := ParseEvents(raw); len(got) != 0 {
			t.Errorf("ParseEvents(%q) = %+v, want empty", raw, got)
		}
	}
}

func eventWith(num *int, name string, athletes int) models.EventRecord {
	ev := models.EventRecord{EventNumber: num, EventName: name, Athletes: []models.AthleteEntry{}}
	for i := 0; i < athletes; i++ {
		ev.Athletes = append(ev.Athletes, models.AthleteEntry{Name: name + " swimmer"})
	}
	return ev
}
