// Package search resolves exam questions to discussion URLs via external
// search engines, adapting backend order to recent success.
package search

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrBlocked signals a backend served an anti-automation interstitial instead
// of results. It is a soft failure: the backend is demoted, nothing raises.
var ErrBlocked = errors.New("search backend blocked the query")

// blockSignal is the phrase search engines embed in their anti-automation
// interstitial pages.
const blockSignal = "detected unusual traffic"

// Backend is one external search engine.
type Backend interface {
	Name() string
	// Search returns the outbound links found on the results page for query.
	// A blocked interstitial is reported as ErrBlocked.
	Search(ctx context.Context, query string) ([]string, error)
}

// Result is the outcome of resolving one query. "Not found" is a value, not
// an error: the caller decides whether it matters.
type Result struct {
	URL     string
	Backend string
	Found   bool
}

// pageBlocked reports whether the rendered page is an anti-automation
// interstitial rather than results.
func pageBlocked(doc *goquery.Document) bool {
	return strings.Contains(strings.ToLower(doc.Text()), blockSignal)
}

// collectLinks enumerates every href on the results page in document order.
func collectLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

// hostMatches reports whether raw is an http(s) URL on domain or one of its
// subdomains.
func hostMatches(raw, domain string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
