package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoConfig configures the plain-HTTP DuckDuckGo backend.
type DuckDuckGoConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// DuckDuckGo queries the html.duckduckgo.com endpoint, which serves static
// HTML and needs no browser session.
type DuckDuckGo struct {
	baseCollector *colly.Collector
}

// NewDuckDuckGo constructs a configured DuckDuckGo backend.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	if cfg.RequestTimeout > 0 {
		base.SetRequestTimeout(cfg.RequestTimeout)
	}
	return &DuckDuckGo{baseCollector: base}
}

// Name identifies the backend in logs and priority ordering.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search fetches the result page and returns the unwrapped result links.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]string, error) {
	collector := d.baseCollector.Clone()
	resultCh := make(chan ddgResult, 1)
	var once sync.Once
	send := func(res ddgResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(ddgResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(ddgResult{err: err})
	})

	target := duckDuckGoEndpoint + "?q=" + url.QueryEscape(query)
	if err := collector.Visit(target); err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	collector.Wait()

	var res ddgResult
	select {
	case res = <-resultCh:
	default:
		return nil, errors.New("duckduckgo search produced no result")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", res.err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.body))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo parse: %w", err)
	}
	if pageBlocked(doc) {
		return nil, ErrBlocked
	}
	return duckDuckGoLinks(doc), nil
}

// duckDuckGoLinks extracts result anchors, unwrapping the redirect links the
// HTML endpoint wraps around each hit.
func duckDuckGoLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a.result__a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		links = append(links, unwrapRedirect(href))
	})
	return links
}

// unwrapRedirect resolves //duckduckgo.com/l/?uddg=<target> style links to
// their destination. Links in any other shape pass through unchanged.
func unwrapRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	target := parsed.Query().Get("uddg")
	if target == "" {
		return href
	}
	return target
}

type ddgResult struct {
	body []byte
	err  error
}
