package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/heatsheetflow/internal/extraction"
	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/pdfdoc"
)

type MeetParserConfig struct {
	baseConfig
	Extraction       extraction.Config
	WorkflowID       string
	WorkflowLocation string
}

type MeetParserFunction struct {
	store      meetRepository
	objects    objectStore
	pipeline   *extraction.Pipeline
	trigger    workflowTrigger
	countPages func(pdf []byte) (int, error)
	now        func() time.Time
	config     MeetParserConfig
}

// GCSEvent is the payload of a storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewMeetParser(ctx context.Context) (*MeetParserFunction, error) {
	base, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	extractionCfg, err := loadExtractionConfig()
	if err != nil {
		return nil, err
	}
	config := MeetParserConfig{
		baseConfig:       base,
		Extraction:       extractionCfg,
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("NOTIFY_WORKFLOW_ID", ""),
	}

	store, err := newMeetRepository(ctx, base)
	if err != nil {
		return nil, err
	}
	objects, err := newObjectStore(ctx, base)
	if err != nil {
		return nil, err
	}
	vertexClient, err := gcp.NewVertexClient(ctx, base.ProjectID, base.VertexAIRegion, base.VertexModel, base.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	var trigger workflowTrigger
	if config.WorkflowID != "" {
		trigger, err = newExecutionsTrigger(ctx, base.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
	}

	f := newMeetParser(config, store, objects, vertexClient, trigger)
	slog.Info("Meet parser logic initialized.", "workflowId", config.WorkflowID, "maxChunks", extractionCfg.MaxChunks)
	return f, nil
}

func newMeetParser(config MeetParserConfig, store meetRepository, objects objectStore, extractor extraction.Extractor, trigger workflowTrigger) *MeetParserFunction {
	return &MeetParserFunction{
		store:      store,
		objects:    objects,
		pipeline:   extraction.NewPipeline(extractor, config.Extraction, slog.Default()),
		trigger:    trigger,
		countPages: pdfdoc.PageCount,
		now:        time.Now,
		config:     config,
	}
}

// Process parses one uploaded meet program into stored events.
func (f *MeetParserFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new meet program.")

	fileURI := gcp.GSURI(e.Bucket, e.Name)
	data, err := f.objects.Read(ctx, fileURI)
	if err != nil {
		logCtx.Error("Failed to download meet program", "error", err)
		return err
	}

	fileHash := calculateHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	existingID, isDuplicate, err := f.store.FindByHash(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingMeetId", existingID)
		return nil
	}

	meetID, err := f.store.CreateMeet(ctx, models.Meet{
		FileHash:         fileHash,
		OriginalFilename: path.Base(e.Name),
		FileURI:          fileURI,
		Status:           models.StatusProcessing,
		CreatedAt:        f.now(),
	})
	if err != nil {
		logCtx.Error("Failed to create meet document", "error", err)
		return err
	}
	logCtx = logCtx.With("meetId", meetID)
	logCtx.Info("Created meet document in Firestore.")

	pageCount, err := f.countPages(data)
	if err != nil {
		logCtx.Warn("Could not read page count; continuing without it.", "error", err)
		pageCount = 0
	}

	merged, err := f.pipeline.Extract(ctx, data)
	if err != nil {
		return f.handleError(ctx, logCtx, meetID, "failed to extract events", err)
	}
	if err := f.store.SaveEvents(ctx, meetID, merged.Events); err != nil {
		return f.handleError(ctx, logCtx, meetID, "failed to save events", err)
	}

	updates := []firestore.Update{
		{Path: "eventCount", Value: len(merged.Events)},
		{Path: "chunkCount", Value: merged.ChunkCount},
		{Path: "failedChunks", Value: merged.FailedChunks},
	}
	if pageCount > 0 {
		updates = append(updates, firestore.Update{Path: "pageCount", Value: pageCount})
	}
	if err := f.store.UpdateStatus(ctx, meetID, models.StatusCompleted, "", updates...); err != nil {
		return f.handleError(ctx, logCtx, meetID, "failed to update status to COMPLETED", err)
	}
	logCtx.Info("Meet parsed.", "eventCount", len(merged.Events), "chunkCount", merged.ChunkCount, "failedChunks", merged.FailedChunks)

	if f.trigger != nil {
		// The meet is already usable; a failed hand-off is reported but not retried.
		if err := f.trigger.Trigger(ctx, map[string]any{"meetId": meetID, "eventCount": len(merged.Events)}); err != nil {
			logCtx.Error("Failed to trigger notification workflow", "error", err)
		} else {
			logCtx.Info("Hand-off to workflow complete.")
		}
	}
	return nil
}

func (f *MeetParserFunction) handleError(ctx context.Context, logCtx *slog.Logger, meetID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.store.UpdateStatus(ctx, meetID, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
