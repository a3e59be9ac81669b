package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

const (
	eventsCollection      = "events"
	subscribersCollection = "subscribers"
)

// ErrMeetNotFound is returned when a meet document does not exist.
var ErrMeetNotFound = errors.New("meet not found")

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// MeetStore reads and writes meet documents and their events and
// subscribers subcollections.
type MeetStore struct {
	client     *firestore.Client
	collection string
}

// NewMeetStore returns a store rooted at the named top-level collection.
func NewMeetStore(client *firestore.Client, collection string) *MeetStore {
	return &MeetStore{client: client, collection: collection}
}

func (s *MeetStore) meet(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// storedEvent is an event plus its position in the merged list, since
// Firestore does not preserve insertion order.
type storedEvent struct {
	Order int `firestore:"order"`
	models.EventRecord
}

// FindByHash returns the ID of a meet already created for the same file contents.
func (s *MeetStore) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := s.client.Collection(s.collection).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, true, nil
	}
	return "", false, nil
}

// CreateMeet adds a new meet document and returns its generated ID.
func (s *MeetStore) CreateMeet(ctx context.Context, meet models.Meet) (string, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, meet)
	if err != nil {
		return "", fmt.Errorf("failed to create meet document: %w", err)
	}
	return ref.ID, nil
}

// GetMeet loads a meet by ID.
func (s *MeetStore) GetMeet(ctx context.Context, id string) (*models.Meet, error) {
	snap, err := s.meet(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrMeetNotFound, id)
		}
		return nil, fmt.Errorf("failed to load meet %s: %w", id, err)
	}
	var m models.Meet
	if err := snap.DataTo(&m); err != nil {
		return nil, fmt.Errorf("failed to decode meet %s: %w", id, err)
	}
	m.ID = snap.Ref.ID
	return &m, nil
}

// UpdateStatus sets the meet's status, and errorDetails when non-empty,
// along with any extra field updates.
func (s *MeetStore) UpdateStatus(ctx context.Context, id, newStatus, errDetails string, extra ...firestore.Update) error {
	updates := []firestore.Update{
		{Path: "status", Value: newStatus},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	updates = append(updates, extra...)
	if _, err := s.meet(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update meet %s: %w", id, err)
	}
	return nil
}

// SaveEvents writes the merged events under the meet, one document per
// event, keyed by position.
func (s *MeetStore) SaveEvents(ctx context.Context, id string, events []models.EventRecord) error {
	bw := s.client.BulkWriter(ctx)
	col := s.meet(id).Collection(eventsCollection)
	jobs := make([]*firestore.BulkWriterJob, 0, len(events))
	for i, ev := range events {
		job, err := bw.Set(col.Doc(fmt.Sprintf("%05d", i)), storedEvent{Order: i, EventRecord: ev})
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue event %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to save events for meet %s: %w", id, errors.Join(errs...))
	}
	return nil
}

// LoadEvents returns the meet's events in merged order.
func (s *MeetStore) LoadEvents(ctx context.Context, id string) ([]models.EventRecord, error) {
	docs, err := s.meet(id).Collection(eventsCollection).OrderBy("order", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load events for meet %s: %w", id, err)
	}
	events := make([]models.EventRecord, 0, len(docs))
	for _, doc := range docs {
		var se storedEvent
		if err := doc.DataTo(&se); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", doc.Ref.ID, err)
		}
		events = append(events, se.EventRecord)
	}
	return events, nil
}

// LoadSubscribers returns every (email, swimmer) registration for the meet.
func (s *MeetStore) LoadSubscribers(ctx context.Context, id string) ([]models.Subscriber, error) {
	it := s.meet(id).Collection(subscribersCollection).Documents(ctx)
	defer it.Stop()

	var subs []models.Subscriber
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load subscribers for meet %s: %w", id, err)
		}
		var sub models.Subscriber
		if err := doc.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscriber %s: %w", doc.Ref.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
