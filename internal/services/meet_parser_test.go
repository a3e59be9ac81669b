package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/heatsheetflow/internal/extraction"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

func testParser(store *fakeStore, objects *fakeObjects, trigger workflowTrigger, extract extraction.ExtractorFunc) *MeetParserFunction {
	cfg := MeetParserConfig{Extraction: extraction.DefaultConfig()}
	f := newMeetParser(cfg, store, objects, extract, trigger)
	f.countPages = func([]byte) (int, error) { return 12, nil }
	f.now = func() time.Time { return time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC) }
	return f
}

const twoEvents = `{"events":[
	{"eventNumber":2,"eventName":"Boys 100 Back","athletes":[{"name":"Doe, Max","lane":3}]},
	{"eventNumber":1,"eventName":"Girls 50 Free","athletes":[{"name":"Smith, Jane","team":"Dolphins","heat":1,"lane":4}]}
]}`

func TestMeetParser_Process(t *testing.T) {
	store, objects, trigger := newFakeStore(), newFakeObjects(), &fakeTrigger{}
	objects.objects["gs://uploads/meets/Winter.pdf"] = []byte("%PDF-1.4 winter")
	f := testParser(store, objects, trigger, func(context.Context, models.ExtractionRequest) (string, error) {
		return twoEvents, nil
	})

	if err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: "meets/Winter.pdf"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	meet, err := store.GetMeet(context.Background(), "meet-1")
	if err != nil {
		t.Fatalf("GetMeet() error = %v", err)
	}
	if meet.Status != models.StatusCompleted || meet.OriginalFilename != "Winter.pdf" || meet.FileURI != "gs://uploads/meets/Winter.pdf" {
		t.Fatalf("meet = %+v", meet)
	}
	if meet.FileHash != calculateHash([]byte("%PDF-1.4 winter")) {
		t.Fatalf("fileHash = %q", meet.FileHash)
	}
	events := store.events["meet-1"]
	if len(events) != 2 || events[0].EventName != "Girls 50 Free" || events[1].EventName != "Boys 100 Back" {
		t.Fatalf("saved events = %+v", events)
	}
	if v, _ := store.update("meet-1", "eventCount"); v != 2 {
		t.Fatalf("eventCount update = %v, want 2", v)
	}
	if v, _ := store.update("meet-1", "pageCount"); v != 12 {
		t.Fatalf("pageCount update = %v, want 12", v)
	}
	if len(trigger.calls) != 1 || trigger.calls[0]["meetId"] != "meet-1" {
		t.Fatalf("trigger calls = %+v", trigger.calls)
	}
}

func TestMeetParser_SkipsDuplicatesAndNonPDFs(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	objects.objects["gs://uploads/a.pdf"] = []byte("%PDF same bytes")
	objects.objects["gs://uploads/b.pdf"] = []byte("%PDF same bytes")
	calls := 0
	f := testParser(store, objects, nil, func(context.Context, models.ExtractionRequest) (string, error) {
		calls++
		return twoEvents, nil
	})

	for _, name := range []string{"a.pdf", "b.pdf", "notes.txt"} {
		if err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: name}); err != nil {
			t.Fatalf("Process(%s) error = %v", name, err)
		}
	}
	if len(store.meets) != 1 || calls != 1 {
		t.Fatalf("meets = %d, extraction calls = %d, want 1 and 1", len(store.meets), calls)
	}
}

func TestMeetParser_AllChunksFailedMarksMeetFailed(t *testing.T) {
	store, objects, trigger := newFakeStore(), newFakeObjects(), &fakeTrigger{}
	objects.objects["gs://uploads/x.pdf"] = []byte("%PDF-1.4 x")
	f := testParser(store, objects, trigger, func(context.Context, models.ExtractionRequest) (string, error) {
		return "", errors.New("503 from model")
	})

	err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: "x.pdf"})
	if !errors.Is(err, extraction.ErrAllChunksFailed) {
		t.Fatalf("Process() error = %v, want ErrAllChunksFailed", err)
	}
	meet := store.meets["meet-1"]
	if meet.Status != models.StatusFailed || !strings.Contains(meet.ErrorDetails, "failed to extract events") {
		t.Fatalf("meet = %+v", meet)
	}
	if len(trigger.calls) != 0 {
		t.Fatal("workflow should not be triggered for a failed meet")
	}
}

func TestMeetParser_UnparseableResponseStoresPlaceholder(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	objects.objects["gs://uploads/scan.pdf"] = []byte("%PDF-1.4 scan")
	f := testParser(store, objects, nil, func(context.Context, models.ExtractionRequest) (string, error) {
		return "I could not read this document.", nil
	})

	if err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: "scan.pdf"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	events := store.events["meet-1"]
	if len(events) != 1 || !events[0].ManualReview || events[0].EventName != extraction.ManualReviewEventName {
		t.Fatalf("saved events = %+v, want the manual review placeholder", events)
	}
	if store.meets["meet-1"].Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", store.meets["meet-1"].Status)
	}
}

func TestMeetParser_PageCountIsBestEffort(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	objects.objects["gs://uploads/odd.pdf"] = []byte("%PDF-1.4 odd")
	f := testParser(store, objects, nil, func(context.Context, models.ExtractionRequest) (string, error) {
		return twoEvents, nil
	})
	f.countPages = func([]byte) (int, error) { return 0, errors.New("xref broken") }

	if err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: "odd.pdf"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if _, ok := store.update("meet-1", "pageCount"); ok {
		t.Fatal("pageCount should not be recorded when it could not be read")
	}
}

func TestMeetParser_SaveFailureMarksMeetFailed(t *testing.T) {
	store, objects := newFakeStore(), newFakeObjects()
	store.saveErr = errors.New("deadline exceeded")
	objects.objects["gs://uploads/y.pdf"] = []byte("%PDF-1.4 y")
	f := testParser(store, objects, nil, func(context.Context, models.ExtractionRequest) (string, error) {
		return twoEvents, nil
	})

	if err := f.Process(context.Background(), GCSEvent{Bucket: "uploads", Name: "y.pdf"}); err == nil {
		t.Fatal("Process() error = nil, want save failure")
	}
	if store.meets["meet-1"].Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED", store.meets["meet-1"].Status)
	}
}
