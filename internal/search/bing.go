package search

import (
	"context"
	"fmt"
)

// Bing searches bing.com through the browser session. Bing shows no
// consent interstitial, so no selector is passed.
type Bing struct {
	pager Pager
}

// NewBing builds the Bing backend.
func NewBing(pager Pager) *Bing {
	return &Bing{pager: pager}
}

// Name identifies the backend in logs and priority ordering.
func (b *Bing) Name() string { return "bing" }

// Search submits the query and returns the result links.
func (b *Bing) Search(ctx context.Context, query string) ([]string, error) {
	doc, err := b.pager.SubmitSearch(ctx, "https://www.bing.com", query, "")
	if err != nil {
		return nil, fmt.Errorf("bing search: %w", err)
	}
	if pageBlocked(doc) {
		return nil, ErrBlocked
	}
	return collectLinks(doc), nil
}
