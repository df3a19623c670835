package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
)

func TestPoliteWaitStaysWithinBounds(t *testing.T) {
	metrics.Init()

	w := newPoliteWait("test", 3*time.Second, 6*time.Second)
	var waited time.Duration
	w.pause = func(_ context.Context, d time.Duration) { waited = d }

	for range 50 {
		w.Wait(context.Background())
		if waited < 3*time.Second || waited > 6*time.Second {
			t.Fatalf("wait %v outside [3s, 6s]", waited)
		}
	}
}

func TestPoliteWaitReturnsOnCanceledContext(t *testing.T) {
	metrics.Init()

	w := newPoliteWait("test", time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return on canceled context")
	}
}

func TestErrorLogAppendsTuples(t *testing.T) {
	l := newErrorLog(t.TempDir() + "/scraping_errors.log")
	if err := l.Append("Question #: 7", "https://example.com/7", "page load timed out"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append("Question #: 8", "https://example.com/8", "element missing"); err != nil {
		t.Fatalf("append: %v", err)
	}
}
