package extraction

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

const (
	// ManualReviewEventName names the placeholder stored when nothing parsed.
	ManualReviewEventName = "Meet Content (Manual Review Required)"
	// manualReviewRawLimit caps the diagnostic prefix kept on the placeholder.
	manualReviewRawLimit = 5000
)

// ErrEmptyDocument is returned for a zero-length document.
var ErrEmptyDocument = errors.New("document is empty")

// Pipeline plans, dispatches, parses and merges one document's extraction.
type Pipeline struct {
	orchestrator *Orchestrator
	cfg          Config
	logger       *slog.Logger
}

// NewPipeline creates a Pipeline. A nil logger uses slog.Default(). A config
// that fails Validate is replaced by DefaultConfig().
func NewPipeline(extractor Extractor, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("Invalid extraction config; using defaults.", "error", err)
		cfg = DefaultConfig()
	}
	return &Pipeline{
		orchestrator: NewOrchestrator(extractor, logger),
		cfg:          cfg,
		logger:       logger,
	}
}

// Extract returns the merged event list for doc. Partial chunk failure is
// absorbed. When every chunk call failed the error wraps ErrAllChunksFailed.
// When calls succeeded but no event survived, the result holds a single
// placeholder flagged for manual review.
func (p *Pipeline) Extract(ctx context.Context, doc []byte) (*models.MergedExtraction, error) {
	if len(doc) == 0 {
		return nil, ErrEmptyDocument
	}

	reqs := Plan(len(doc), p.cfg)
	for i := range reqs {
		reqs[i].Document = doc
	}
	p.logger.Info("Dispatching extraction.", "documentBytes", len(doc), "chunkCount", len(reqs))

	outcomes, err := p.orchestrator.Run(ctx, reqs)
	if err != nil {
		return nil, err
	}

	var (
		records  []models.EventRecord
		failed   int
		firstRaw string
		haveRaw  bool
	)
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			continue
		}
		if !haveRaw {
			firstRaw, haveRaw = out.Raw, true
		}
		records = append(records, out.Events...)
	}

	events := Merge(records)
	if len(events) == 0 {
		p.logger.Warn("No events survived parsing; storing manual review placeholder.", "chunkCount", len(reqs), "failedChunks", failed)
		events = []models.EventRecord{ManualReviewPlaceholder(firstRaw)}
	}

	return &models.MergedExtraction{
		Events:       events,
		ChunkCount:   len(reqs),
		FailedChunks: failed,
	}, nil
}

// ManualReviewPlaceholder builds the synthetic record stored when an
// extraction succeeded but produced no events. It keeps a prefix of the raw
// response for diagnosis.
func ManualReviewPlaceholder(raw string) models.EventRecord {
	return models.EventRecord{
		EventName:    ManualReviewEventName,
		Athletes:     []models.AthleteEntry{},
		RawText:      truncateRunes(raw, manualReviewRawLimit),
		ManualReview: true,
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
