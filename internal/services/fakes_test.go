package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/notify"
)

type fakeStore struct {
	mu          sync.Mutex
	meets       map[string]*models.Meet
	events      map[string][]models.EventRecord
	subscribers map[string][]models.Subscriber
	updates     map[string][]firestore.Update
	nextID      int
	saveErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meets:       map[string]*models.Meet{},
		events:      map[string][]models.EventRecord{},
		subscribers: map[string][]models.Subscriber{},
		updates:     map[string][]firestore.Update{},
	}
}

func (s *fakeStore) FindByHash(_ context.Context, fileHash string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.meets {
		if m.FileHash == fileHash {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (s *fakeStore) CreateMeet(_ context.Context, meet models.Meet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("meet-%d", s.nextID)
	meet.ID = id
	s.meets[id] = &meet
	return id, nil
}

func (s *fakeStore) GetMeet(_ context.Context, id string) (*models.Meet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gcp.ErrMeetNotFound, id)
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id, status, errDetails string, extra ...firestore.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meets[id]
	if !ok {
		return gcp.ErrMeetNotFound
	}
	m.Status = status
	if errDetails != "" {
		m.ErrorDetails = errDetails
	}
	s.updates[id] = append(s.updates[id], extra...)
	return nil
}

func (s *fakeStore) SaveEvents(_ context.Context, id string, events []models.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.events[id] = events
	return nil
}

func (s *fakeStore) LoadEvents(_ context.Context, id string) ([]models.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id], nil
}

func (s *fakeStore) LoadSubscribers(_ context.Context, id string) ([]models.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribers[id], nil
}

// update returns the value of the named extra field recorded for a meet.
func (s *fakeStore) update(id, path string) (any, bool) {
	for _, u := range s.updates[id] {
		if u.Path == path {
			return u.Value, true
		}
	}
	return nil, false
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	written map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, written: map[string]string{}}
}

func (o *fakeObjects) Read(_ context.Context, gsURI string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[gsURI]
	if !ok {
		return nil, errors.New("object not found: " + gsURI)
	}
	return data, nil
}

func (o *fakeObjects) Write(_ context.Context, bucket, object, contentType string, data []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	uri := gcp.GSURI(bucket, object)
	o.objects[uri] = data
	o.written[uri] = contentType
	return uri, nil
}

type fakeTrigger struct {
	calls []map[string]any
	err   error
}

func (t *fakeTrigger) Trigger(_ context.Context, argument map[string]any) error {
	t.calls = append(t.calls, argument)
	return t.err
}

type fakeLocator struct {
	raw   string
	lines []string
}

func (l *fakeLocator) LocateHighlights(_ context.Context, _ []byte, entryLines []string) (string, error) {
	l.lines = entryLines
	return l.raw, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	fail map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// completedMeet seeds a parsed meet with two events.
func completedMeet(store *fakeStore, objects *fakeObjects) string {
	id, _ := store.CreateMeet(context.Background(), models.Meet{
		OriginalFilename: "Winter Invitational.pdf",
		FileURI:          "gs://uploads/Winter Invitational.pdf",
		Status:           models.StatusCompleted,
	})
	store.events[id] = []models.EventRecord{
		{EventNumber: models.IntPtr(1), EventName: "Girls 50 Free", Athletes: []models.AthleteEntry{
			{Name: "Smith, Jane", Team: "Dolphins", Heat: models.IntPtr(1), Lane: models.IntPtr(4), SeedTime: "29.85"},
			{Name: "Lee, Sam", Team: "Sharks", Heat: models.IntPtr(1), Lane: models.IntPtr(5)},
		}},
		{EventNumber: models.IntPtr(2), EventName: "Boys 100 Back", Athletes: []models.AthleteEntry{
			{Name: "Doe, Max", Team: "Dolphins", Heat: models.IntPtr(2), Lane: models.IntPtr(3)},
		}},
	}
	objects.objects["gs://uploads/Winter Invitational.pdf"] = []byte("%PDF-1.4 stand-in")
	return id
}
