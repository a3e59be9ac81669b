package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
	"github.com/Lllllllleong/heatsheetflow/internal/highlight"
	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"github.com/Lllllllleong/heatsheetflow/internal/pdfdoc"
	"github.com/Lllllllleong/heatsheetflow/internal/roster"
)

// highlightLocator finds row positions for the listed entries in a PDF.
type highlightLocator interface {
	LocateHighlights(ctx context.Context, pdf []byte, entryLines []string) (string, error)
}

// HighlighterFunction holds the dependencies for the highlight logic.
type HighlighterFunction struct {
	store        meetRepository
	objects      objectStore
	locator      highlightLocator
	loadGeometry func(pdf []byte) (highlight.PageGeometry, error)
}

// NewHighlighter creates a new HighlighterFunction instance.
func NewHighlighter(ctx context.Context) (*HighlighterFunction, error) {
	base, err := loadBaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
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
	return newHighlighter(store, objects, vertexClient), nil
}

func newHighlighter(store meetRepository, objects objectStore, locator highlightLocator) *HighlighterFunction {
	return &HighlighterFunction{
		store:   store,
		objects: objects,
		locator: locator,
		loadGeometry: func(pdf []byte) (highlight.PageGeometry, error) {
			return pdfdoc.LoadGeometry(pdf)
		},
	}
}

// Process locates the selected team's rows in the meet program and returns
// the shapes a client should draw over them.
func (f *HighlighterFunction) Process(ctx context.Context, req *models.HighlightRequest) (*models.HighlightResponse, error) {
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
	if len(entries) == 0 {
		msg := roster.NoMatchMessage(req.Team, req.Lanes, roster.TeamLanes(events, req.Team))
		logCtx.Info("No entries matched the selection.")
		return &models.HighlightResponse{Status: "no_matches", Instructions: []models.DrawInstruction{}, Message: msg}, nil
	}
	logCtx.Info("Locating entries.", "entryCount", len(entries))

	pdf, err := f.objects.Read(ctx, meet.FileURI)
	if err != nil {
		logCtx.Error("Failed to download meet program", "error", err)
		return nil, err
	}
	pages, err := f.loadGeometry(pdf)
	if err != nil {
		logCtx.Error("Failed to read page geometry", "error", err)
		return nil, err
	}

	raw, err := f.locator.LocateHighlights(ctx, pdf, locatorLines(entries))
	if err != nil {
		logCtx.Error("Failed to locate highlights", "error", err)
		return nil, err
	}
	targets := highlight.ParseTargets(raw)

	instructions := highlight.Resolve(targets, pages, highlight.Options{
		Style: highlight.ParseStyle(req.Style),
		Color: highlight.ParseColor(req.Color),
	})
	logCtx.Info("Highlights resolved.", "targets", len(targets), "found", highlight.FoundCount(targets), "drawn", len(instructions))

	return &models.HighlightResponse{
		Status:           "success",
		Instructions:     instructions,
		HighlightsFound:  len(instructions),
		AthletesSearched: len(entries),
	}, nil
}

// locatorLines renders each entry as `"Name" (Team, Heat H, Lane L) in Event`.
func locatorLines(entries []roster.Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%q (%s, Heat %s, Lane %s) in %s",
			e.Athlete.Name, e.Athlete.Team, optional(e.Athlete.Heat), optional(e.Athlete.Lane), e.Label())
	}
	return lines
}

func optional(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}
