package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAllChunksFailed means every extraction call errored. It is distinct
	// from a successful extraction that found no events.
	ErrAllChunksFailed = errors.New("all extraction chunks failed")
	// ErrNoRequests is returned when the orchestrator is given nothing to run.
	ErrNoRequests = errors.New("no extraction requests")
)

// Extractor performs one structured-extraction call and returns the model's
// raw text. Retry policy, if any, belongs to the implementation.
type Extractor interface {
	ExtractEvents(ctx context.Context, req models.ExtractionRequest) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, req models.ExtractionRequest) (string, error)

// ExtractEvents calls f.
func (f ExtractorFunc) ExtractEvents(ctx context.Context, req models.ExtractionRequest) (string, error) {
	return f(ctx, req)
}

// ChunkOutcome is the settled result of one chunk call. Exactly one of Err
// or (Raw, Events) is meaningful.
type ChunkOutcome struct {
	Index  int
	Hint   string
	Raw    string
	Events []models.EventRecord
	Err    error
}

// Orchestrator issues chunk calls concurrently and waits for all of them.
type Orchestrator struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger uses slog.Default().
func NewOrchestrator(extractor Extractor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{extractor: extractor, logger: logger}
}

// Run dispatches every request and parses each successful response. Outcomes
// are returned in dispatch order regardless of completion order. A chunk
// failure never cancels its siblings; Run only fails when every chunk failed,
// in which case the returned error wraps ErrAllChunksFailed and each chunk
// error.
func (o *Orchestrator) Run(ctx context.Context, reqs []models.ExtractionRequest) ([]ChunkOutcome, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequests
	}

	outcomes := make([]ChunkOutcome, len(reqs))
	var eg errgroup.Group
	for i, req := range reqs {
		eg.Go(func() error {
			out := ChunkOutcome{Index: i, Hint: req.PageHint}
			raw, err := o.extractor.ExtractEvents(ctx, req)
			if err != nil {
				out.Err = err
			} else {
				out.Raw = raw
				out.Events = ParseEvents(raw)
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = eg.Wait()

	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			o.logger.Warn("Extraction chunk failed.", "chunk", out.Index, "pageHint", out.Hint, "error", out.Err)
			errs = append(errs, fmt.Errorf("chunk %d: %w", out.Index, out.Err))
			continue
		}
		if len(out.Events) == 0 {
			o.logger.Warn("Extraction chunk yielded no events.", "chunk", out.Index, "pageHint", out.Hint, "responseLength", len(out.Raw))
			continue
		}
		o.logger.Info("Extraction chunk parsed.", "chunk", out.Index, "pageHint", out.Hint, "eventCount", len(out.Events))
	}

	if len(errs) == len(reqs) {
		o.logger.Error("Every extraction chunk failed.", "chunkCount", len(reqs))
		return outcomes, fmt.Errorf("%w: %w", ErrAllChunksFailed, errors.Join(errs...))
	}
	return outcomes, nil
}
