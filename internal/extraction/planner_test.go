package extraction

import (
	"reflect"
	"testing"
)

func hints(t *testing.T, size int, cfg Config) []string {
	t.Helper()
	var out []string
	for _, req := range Plan(size, cfg) {
		if req.Document != nil {
			t.Fatalf("Plan() should not attach document bytes")
		}
		out = append(out, req.PageHint)
	}
	return out
}

func TestPlan_SingleShotAtOrBelowThreshold(t *testing.T) {
	cfg := Config{SingleShotMaxBytes: 1000, BytesPerPage: 100, PagesPerChunk: 5, MaxChunks: 4}
	for _, size := range []int{1, 999, 1000} {
		if got := hints(t, size, cfg); !reflect.DeepEqual(got, []string{""}) {
			t.Errorf("Plan(%d) hints = %q, want one request without hint", size, got)
		}
	}
}

func TestPlan_ChunkedBands(t *testing.T) {
	cfg := Config{SingleShotMaxBytes: 1000, BytesPerPage: 100, PagesPerChunk: 5, MaxChunks: 4}
	cases := []struct {
		size int
		want []string
	}{
		// 20 pages, 4 chunks of 5.
		{2000, []string{"pages 1-5", "pages 6-10", "pages 11-15", "pages 16-20"}},
		// 11 pages, 3 chunks; the last band absorbs the remainder.
		{1001, []string{"pages 1-3", "pages 4-6", "pages 7-11"}},
		// 50 pages would need 10 chunks; capped at 4.
		{5000, []string{"pages 1-12", "pages 13-24", "pages 25-36", "pages 37-50"}},
	}
	for _, tc := range cases {
		if got := hints(t, tc.size, cfg); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Plan(%d) hints = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestPlan_AtLeastTwoChunksAboveThreshold(t *testing.T) {
	cfg := Config{SingleShotMaxBytes: 1000, BytesPerPage: 100, PagesPerChunk: 100, MaxChunks: 4}
	want := []string{"pages 1-5", "pages 6-11"}
	if got := hints(t, 1050, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan() hints = %q, want %q", got, want)
	}
}

func TestPlan_FewerEstimatedPagesThanChunks(t *testing.T) {
	cfg := Config{SingleShotMaxBytes: 1000, BytesPerPage: 10_000, PagesPerChunk: 5, MaxChunks: 4}
	want := []string{"pages 1-1", "pages 2-2"}
	if got := hints(t, 1001, cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan() hints = %q, want %q", got, want)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	bad := []Config{
		{SingleShotMaxBytes: -1, BytesPerPage: 1, PagesPerChunk: 1, MaxChunks: 2},
		{SingleShotMaxBytes: 1, BytesPerPage: 0, PagesPerChunk: 1, MaxChunks: 2},
		{SingleShotMaxBytes: 1, BytesPerPage: 1, PagesPerChunk: 0, MaxChunks: 2},
		{SingleShotMaxBytes: 1, BytesPerPage: 1, PagesPerChunk: 1, MaxChunks: 0},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", cfg)
		}
	}
}
