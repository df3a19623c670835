// Package pipeline orchestrates the two-phase scrape: URL discovery through
// the search resolver, then content extraction through the page fetcher. Both
// phases resume from the progress ledger, so a crashed run picks up where it
// stopped instead of repeating finished work.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/config"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/examtopics"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/ledger"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/records"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/search"
)

// QueryResolver is the slice of the search resolver the pipeline needs.
type QueryResolver interface {
	Resolve(ctx context.Context, query string) (search.Result, error)
	ResetOrder()
}

// Config carries the collaborators and tuning for one pipeline run.
type Config struct {
	Logger          *zap.Logger
	Requirement     *config.RequirementFile
	Ledger          ledger.Store
	Records         *records.Store
	Resolver        QueryResolver
	Fetcher         fetcher.PageFetcher
	ErrLogPath      string
	ReconcileSweeps int
	ExtractMinDelay time.Duration
	ExtractMaxDelay time.Duration
}

// Pipeline runs the discovery and extraction phases for one exam.
type Pipeline struct {
	logger      *zap.Logger
	requirement *config.RequirementFile
	ledger      ledger.Store
	records     *records.Store
	resolver    QueryResolver
	fetcher     fetcher.PageFetcher
	errLog      *errorLog
	sweeps      int
	extractWait *politeWait
}

// New builds a Pipeline from cfg.
func New(cfg Config) *Pipeline {
	metrics.Init()
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:      logger,
		requirement: cfg.Requirement,
		ledger:      cfg.Ledger,
		records:     cfg.Records,
		resolver:    cfg.Resolver,
		fetcher:     cfg.Fetcher,
		errLog:      newErrorLog(cfg.ErrLogPath),
		sweeps:      cfg.ReconcileSweeps,
		extractWait: newPoliteWait("extraction", cfg.ExtractMinDelay, cfg.ExtractMaxDelay),
	}
}

// Run executes both phases in order.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunDiscovery(ctx); err != nil {
		return err
	}
	return p.RunExtraction(ctx)
}

// maxQuestions returns the exam's question count, fetching it from the exam
// index page on first use and caching it back into the requirement file.
func (p *Pipeline) maxQuestions(ctx context.Context) (int, error) {
	if n := p.requirement.MaxQuestion; n > 0 {
		return n, nil
	}

	url := p.requirement.ExamMainURL
	p.logger.Info("fetching question count from exam index", zap.String("url", url))
	doc, err := p.fetcher.FetchDocument(ctx, url, examtopics.StatSelector)
	if err != nil {
		return 0, fmt.Errorf("fetch exam index %s: %w", url, err)
	}
	n, err := examtopics.ParseMaxQuestions(doc)
	if err != nil {
		return 0, fmt.Errorf("parse exam index %s: %w", url, err)
	}
	if err := p.requirement.SetMaxQuestion(n); err != nil {
		return 0, err
	}
	p.logger.Info("question count cached", zap.Int("max_question", n))
	return n, nil
}

// primaryQuery is the discovery-phase search query for one question.
func primaryQuery(exam string, ordinal int) string {
	return fmt.Sprintf("ExamTopics exam %s topic 1 \"question %d\" discussion", exam, ordinal)
}

// reconcileQuery is the looser retry query used by the reconciliation sweep.
func reconcileQuery(exam string, ordinal int) string {
	return fmt.Sprintf("exam %s topic 1 question %d discussion", exam, ordinal)
}
