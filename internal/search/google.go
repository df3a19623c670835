package search

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Pager drives one rendered search-engine page through the shared browser
// session. Satisfied by *headless.Session.
type Pager interface {
	SubmitSearch(ctx context.Context, engineURL, query, consentSelector string) (*goquery.Document, error)
}

// googleConsentSelector is the accept button on Google's consent
// interstitial, which must be dismissed before the query box is usable.
const googleConsentSelector = "#L2AGLb"

// Google searches google.com through the browser session.
type Google struct {
	pager Pager
}

// NewGoogle builds the Google backend.
func NewGoogle(pager Pager) *Google {
	return &Google{pager: pager}
}

// Name identifies the backend in logs and priority ordering.
func (g *Google) Name() string { return "google" }

// Search submits the query and returns the result links.
func (g *Google) Search(ctx context.Context, query string) ([]string, error) {
	doc, err := g.pager.SubmitSearch(ctx, "https://www.google.com", query, googleConsentSelector)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	if pageBlocked(doc) {
		return nil, ErrBlocked
	}
	return collectLinks(doc), nil
}
