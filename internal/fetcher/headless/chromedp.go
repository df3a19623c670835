// Package headless drives the single headless Chrome session shared by
// search and page extraction.
package headless

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher"
)

// Config controls the behavior of the browser session.
type Config struct {
	UserAgent  string
	NavTimeout time.Duration
}

// Session owns one headless Chrome process for the process lifetime. Calls
// are sequential; each one runs in a fresh tab derived from the shared
// browser context.
type Session struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewSession launches the browser. Fails fast if Chrome cannot start.
func NewSession(cfg Config) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 10 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty run launches the browser now rather than on first use.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Session{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.browserCancel()
	s.allocCancel()
}

// FetchDocument navigates to url and returns the parsed DOM once marker is
// visible, or fetcher.ErrPageLoadTimeout after the bounded wait.
func (s *Session) FetchDocument(ctx context.Context, url, marker string) (*goquery.Document, error) {
	tabCtx, cancel := s.newTab(ctx, s.cfg.NavTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(tabCtx,
		s.setupAction(),
		chromedp.Navigate(url),
		chromedp.WaitVisible(marker, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if s.browserCtx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, fetcher.ErrSessionLost)
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("wait for %s on %s: %w", marker, url, fetcher.ErrPageLoadTimeout)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return parseHTML(html)
}

// SubmitSearch drives a search engine page: navigate, dismiss an optional
// consent interstitial, type the query, submit, and return the rendered
// results document.
func (s *Session) SubmitSearch(ctx context.Context, engineURL, query, consentSelector string) (*goquery.Document, error) {
	tabCtx, cancel := s.newTab(ctx, 3*s.cfg.NavTimeout)
	defer cancel()

	err := chromedp.Run(tabCtx,
		s.setupAction(),
		chromedp.Navigate(engineURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", engineURL, err)
	}

	if consentSelector != "" {
		s.dismissConsent(tabCtx, consentSelector)
	}

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.WaitVisible(`input[name="q"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="q"]`, query, chromedp.ByQuery),
		chromedp.Submit(`input[name="q"]`, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("search on %s: %w", engineURL, err)
	}
	return parseHTML(html)
}

// dismissConsent clicks the interstitial button when present. Its absence is
// the common case and not an error.
func (s *Session) dismissConsent(tabCtx context.Context, selector string) {
	clickCtx, cancel := context.WithTimeout(tabCtx, 3*time.Second)
	defer cancel()
	_ = chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery))
}

// newTab derives a fresh tab from the shared browser with a deadline, wired
// so cancellation of the caller's context tears the tab down too.
func (s *Session) newTab(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, timeout)
	stop := context.AfterFunc(ctx, timeoutCancel)
	return tabCtx, func() {
		stop()
		timeoutCancel()
		tabCancel()
	}
}

func (s *Session) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}
	return doc, nil
}
