package extraction

import "fmt"

// Config tunes chunk planning. The page estimate is only a hint source: every
// chunk call still receives the whole document.
type Config struct {
	// SingleShotMaxBytes is the largest document extracted with a single call.
	SingleShotMaxBytes int
	// BytesPerPage is the average page size used to estimate the page count.
	BytesPerPage  int
	PagesPerChunk int
	MaxChunks     int
}

// DefaultConfig returns the planning defaults used in production.
func DefaultConfig() Config {
	return Config{
		SingleShotMaxBytes: 1_500_000,
		BytesPerPage:       60_000,
		PagesPerChunk:      8,
		MaxChunks:          4,
	}
}

// Validate reports settings that would make planning meaningless.
func (c Config) Validate() error {
	if c.SingleShotMaxBytes < 0 {
		return fmt.Errorf("single-shot threshold must not be negative, got %d", c.SingleShotMaxBytes)
	}
	if c.BytesPerPage <= 0 || c.PagesPerChunk <= 0 {
		return fmt.Errorf("bytes per page and pages per chunk must be positive, got %d and %d", c.BytesPerPage, c.PagesPerChunk)
	}
	if c.MaxChunks < 1 {
		return fmt.Errorf("max chunks must be at least 1, got %d", c.MaxChunks)
	}
	return nil
}
