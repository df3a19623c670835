// Package fetcher declares how rendered pages are obtained.
package fetcher

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

// ErrPageLoadTimeout signals the readiness marker never appeared within the
// bounded wait. Per-item recoverable: skip now, retry on the next run.
var ErrPageLoadTimeout = errors.New("page load timed out waiting for marker")

// ErrSessionLost signals the browser session itself died. Not recoverable by
// skipping an item; the whole run must stop.
var ErrSessionLost = errors.New("browser session no longer usable")

// PageFetcher loads a URL and returns the parsed document once the marker
// element is present, or fails after a bounded wait.
type PageFetcher interface {
	FetchDocument(ctx context.Context, url, marker string) (*goquery.Document, error)
}
