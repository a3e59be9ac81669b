package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/notify"
	"github.com/Lllllllleong/heatsheetflow/internal/roster"
	"github.com/Lllllllleong/heatsheetflow/internal/summary"
)

// SummaryGeneratorConfig holds configuration for the summary generator service.
type SummaryGeneratorConfig struct {
	baseConfig
	SummaryBucket string
}

// SummaryGeneratorFunction holds dependencies for the summary logic.
type SummaryGeneratorFunction struct {
	store   meetRepository
	objects objectStore
	now     func() time.Time
	config  SummaryGeneratorConfig
}

// NewSummaryGenerator creates a new SummaryGeneratorFunction instance.
func NewSummaryGenerator(ctx context.Context) (*SummaryGeneratorFunction, error) {
	base, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	config := SummaryGeneratorConfig{
		baseConfig:    base,
		SummaryBucket: gcp.GetEnv("SUMMARY_BUCKET", ""),
	}
	if config.SummaryBucket == "" {
		return nil, fmt.Errorf("SUMMARY_BUCKET environment variable must be set")
	}

	store, err := newMeetRepository(ctx, base)
	if err != nil {
		return nil, err
	}
	objects, err := newObjectStore(ctx, base)
	if err != nil {
		return nil, err
	}
	return newSummaryGenerator(config, store, objects), nil
}

func newSummaryGenerator(config SummaryGeneratorConfig, store meetRepository, objects objectStore) *SummaryGeneratorFunction {
	return &SummaryGeneratorFunction{store: store, objects: objects, now: time.Now, config: config}
}

// Process tabulates the selected team's entries and stores the workbook.
func (f *SummaryGeneratorFunction) Process(ctx context.Context, req *models.SummaryRequest) (*models.SummaryResponse, error) {
	if req.ExecutionID == "" {
		req.ExecutionID = uuid.NewString()
	}
	logCtx := slog.With("meetId", req.MeetID, "team", req.Team, "lanes", req.Lanes, "executionId", req.ExecutionID)
	if err := validateSelection(req.MeetID, req.Team, req.Lanes); err != nil {
		return nil, err
	}

	meet, events, err := loadCompletedMeet(ctx, f.store, req.MeetID)
	if err != nil {
		logCtx.Error("Failed to load meet", "error", err)
		return nil, err
	}

	entries := roster.Select(events, req.Team, req.Lanes)
	buf, err := summary.Build(summary.Input{
		MeetName:    notify.MeetName(meet.OriginalFilename),
		Team:        req.Team,
		Lanes:       req.Lanes,
		Entries:     entries,
		GeneratedAt: f.now(),
	})
	if err != nil {
		logCtx.Error("Failed to build summary workbook", "error", err)
		return nil, err
	}

	objectName := fmt.Sprintf("%s/summary-%s.xlsx", req.MeetID, req.ExecutionID)
	uri, err := f.objects.Write(ctx, f.config.SummaryBucket, objectName, summary.ContentType, buf.Bytes())
	if err != nil {
		logCtx.Error("Failed to save summary workbook", "error", err)
		return nil, err
	}
	logCtx.Info("Summary saved.", "entries", len(entries), "gcsUri", uri)

	resp := &models.SummaryResponse{Status: "success", SummaryGCSUri: uri, EntriesCount: len(entries)}
	if len(entries) == 0 {
		resp.Message = roster.NoMatchMessage(req.Team, req.Lanes, roster.TeamLanes(events, req.Team))
	}
	return resp, nil
}
