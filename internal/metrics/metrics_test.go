package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	scraperSearchesTotal = nil
	scraperExtractionsTotal = nil
	scraperPhaseRunsTotal = nil
	scraperPhaseDurationSecs = nil
	scraperPoliteDelaySeconds = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if scraperSearchesTotal == nil || scraperExtractionsTotal == nil ||
		scraperPhaseRunsTotal == nil || scraperPhaseDurationSecs == nil ||
		scraperPoliteDelaySeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveSearch("google", "found")
	if val := testutil.ToFloat64(scraperSearchesTotal.WithLabelValues("google", "found")); val != 1 {
		t.Errorf("expected scraperSearchesTotal{google,found} to be 1, got %f", val)
	}

	// Misses have no backend to attribute; they are recorded under "none".
	ObserveSearch("none", "miss")
	if val := testutil.ToFloat64(scraperSearchesTotal.WithLabelValues("none", "miss")); val != 1 {
		t.Errorf("expected scraperSearchesTotal{none,miss} to be 1, got %f", val)
	}

	ObserveExtraction("extracted")
	ObserveExtraction("extracted")
	if val := testutil.ToFloat64(scraperExtractionsTotal.WithLabelValues("extracted")); val != 2 {
		t.Errorf("expected scraperExtractionsTotal{extracted} to be 2, got %f", val)
	}
}

func TestHandler(t *testing.T) {
	Init()
	if Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
