package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/heatsheetflow/internal/extraction"
	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

var (
	// ErrInvalidRequest marks a request the caller must fix.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMeetNotReady is returned when a meet has not finished parsing.
	ErrMeetNotReady = errors.New("meet is not ready")
)

// StatusCode maps a Process error to the HTTP status the entry points return.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, gcp.ErrMeetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMeetNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// meetRepository is the subset of gcp.MeetStore the services use.
type meetRepository interface {
	FindByHash(ctx context.Context, fileHash string) (string, bool, error)
	CreateMeet(ctx context.Context, meet models.Meet) (string, error)
	GetMeet(ctx context.Context, id string) (*models.Meet, error)
	UpdateStatus(ctx context.Context, id, status, errDetails string, extra ...firestore.Update) error
	SaveEvents(ctx context.Context, id string, events []models.EventRecord) error
	LoadEvents(ctx context.Context, id string) ([]models.EventRecord, error)
	LoadSubscribers(ctx context.Context, id string) ([]models.Subscriber, error)
}

// objectStore reads and writes whole GCS objects.
type objectStore interface {
	Read(ctx context.Context, gsURI string) ([]byte, error)
	Write(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

type gcsObjects struct {
	client   *storage.Client
	attempts uint
}

func (g *gcsObjects) Read(ctx context.Context, gsURI string) ([]byte, error) {
	bucket, object, err := gcp.ParseGSURI(gsURI)
	if err != nil {
		return nil, err
	}
	return gcp.ReadObject(ctx, g.client, bucket, object, g.attempts)
}

func (g *gcsObjects) Write(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	if err := gcp.SaveToGCSAtomically(ctx, g.client.Bucket(bucket), object, contentType, data); err != nil {
		return "", err
	}
	return gcp.GSURI(bucket, object), nil
}

// workflowTrigger starts a Cloud Workflows execution.
type workflowTrigger interface {
	Trigger(ctx context.Context, argument map[string]any) error
}

type executionsTrigger struct {
	client *executions.Client
	parent string
}

func newExecutionsTrigger(ctx context.Context, projectID, location, workflowID string) (*executionsTrigger, error) {
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &executionsTrigger{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

func (t *executionsTrigger) Trigger(ctx context.Context, argument map[string]any) error {
	payload, err := json.Marshal(argument)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	_, err = t.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent:    t.parent,
		Execution: &executionspb.Execution{Argument: string(payload)},
	})
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

// baseConfig is the configuration every function shares.
type baseConfig struct {
	ProjectID      string
	VertexAIRegion string
	CollectionName string
	VertexModel    string
	MaxAttempts    uint
}

func loadBaseConfig() (baseConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return baseConfig{}, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return baseConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "meets"),
		VertexModel:    gcp.GetEnv("VERTEX_MODEL", "gemini-2.5-pro"),
		MaxAttempts:    uint(max(gcp.GetEnvInt("VERTEX_MAX_ATTEMPTS", 3), 1)),
	}, nil
}

// loadExtractionConfig overrides extraction.DefaultConfig from EXTRACT_* variables.
func loadExtractionConfig() (extraction.Config, error) {
	d := extraction.DefaultConfig()
	cfg := extraction.Config{
		SingleShotMaxBytes: gcp.GetEnvInt("EXTRACT_SINGLE_SHOT_MAX_BYTES", d.SingleShotMaxBytes),
		BytesPerPage:       gcp.GetEnvInt("EXTRACT_BYTES_PER_PAGE", d.BytesPerPage),
		PagesPerChunk:      gcp.GetEnvInt("EXTRACT_PAGES_PER_CHUNK", d.PagesPerChunk),
		MaxChunks:          gcp.GetEnvInt("EXTRACT_MAX_CHUNKS", d.MaxChunks),
	}
	if err := cfg.Validate(); err != nil {
		return extraction.Config{}, fmt.Errorf("invalid extraction config: %w", err)
	}
	return cfg, nil
}

// newMeetRepository opens Firestore and wraps it in a gcp.MeetStore.
func newMeetRepository(ctx context.Context, cfg baseConfig) (*gcp.MeetStore, error) {
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return gcp.NewMeetStore(client, cfg.CollectionName), nil
}

func newObjectStore(ctx context.Context, cfg baseConfig) (*gcsObjects, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &gcsObjects{client: client, attempts: cfg.MaxAttempts}, nil
}

// loadCompletedMeet returns a meet and its events, refusing meets that are
// still parsing or failed.
func loadCompletedMeet(ctx context.Context, store meetRepository, meetID string) (*models.Meet, []models.EventRecord, error) {
	meet, err := store.GetMeet(ctx, meetID)
	if err != nil {
		return nil, nil, err
	}
	if meet.Status != models.StatusCompleted {
		return nil, nil, fmt.Errorf("%w: meet %s has status %s", ErrMeetNotReady, meetID, meet.Status)
	}
	events, err := store.LoadEvents(ctx, meetID)
	if err != nil {
		return nil, nil, err
	}
	return meet, events, nil
}

// validateSelection checks the team and lane filter shared by the highlighter
// and the summary generator.
func validateSelection(meetID, team string, lanes []int) error {
	if meetID == "" || team == "" || len(lanes) == 0 {
		return fmt.Errorf("%w: meetId, team, and lanes are required", ErrInvalidRequest)
	}
	for _, l := range lanes {
		if l < 1 {
			return fmt.Errorf("%w: lane %d is not a positive lane number", ErrInvalidRequest, l)
		}
	}
	return nil
}
