package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/examtopics"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/fetcher"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/ledger"
	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
)

// RunExtraction fetches every pending discussion page, parses it into a
// question record, and marks the ledger row extracted. A page that fails to
// fetch or parse is logged to the side error file and skipped; only a dead
// browser session or a storage failure aborts the phase. It is marked
// finished once a pass completes with nothing pending and nothing failed.
func (p *Pipeline) RunExtraction(ctx context.Context) error {
	if p.requirement.ExtractionDone {
		p.logger.Info("extraction already finished, skipping")
		return nil
	}

	start := time.Now()
	outcome := "completed"
	defer func() {
		metrics.ObservePhase("extraction", outcome, time.Since(start))
	}()

	pending, err := p.ledger.PendingExtraction(ctx)
	if err != nil {
		outcome = "failed"
		return err
	}
	if len(pending) == 0 {
		p.logger.Info("nothing pending extraction")
		if err := p.requirement.SetExtractionDone(); err != nil {
			outcome = "failed"
			return err
		}
		return nil
	}
	p.logger.Info("extraction starting", zap.Int("pending", len(pending)))

	failures := 0
	for i, row := range pending {
		if err := ctx.Err(); err != nil {
			outcome = "canceled"
			return err
		}
		if i > 0 {
			p.extractWait.Wait(ctx)
		}

		rec, err := p.fetchAndParse(ctx, row)
		if err != nil {
			if ctx.Err() != nil {
				outcome = "canceled"
				return ctx.Err()
			}
			if errors.Is(err, fetcher.ErrSessionLost) {
				outcome = "failed"
				return err
			}
			failures++
			metrics.ObserveExtraction("failed")
			p.logger.Warn("question extraction failed",
				zap.Int("question", row.Ordinal),
				zap.String("url", row.URL),
				zap.Error(err),
			)
			if logErr := p.errLog.Append(row.Label, row.URL, err.Error()); logErr != nil {
				p.logger.Error("could not record extraction failure", zap.Error(logErr))
			}
			continue
		}

		if err := p.saveRecord(ctx, row, rec); err != nil {
			if ctx.Err() != nil {
				outcome = "canceled"
				return ctx.Err()
			}
			outcome = "failed"
			return err
		}
		metrics.ObserveExtraction("extracted")
	}

	if failures > 0 {
		p.logger.Warn("extraction finished with failures", zap.Int("failed", failures))
		return nil
	}
	if err := p.requirement.SetExtractionDone(); err != nil {
		outcome = "failed"
		return err
	}
	p.logger.Info("extraction finished", zap.Int("extracted", len(pending)))
	return nil
}

// fetchAndParse turns one ledger row into a record. Every error it returns
// that is not a context or session failure is a per-item skip.
func (p *Pipeline) fetchAndParse(ctx context.Context, row ledger.Row) (examtopics.Record, error) {
	doc, err := p.fetcher.FetchDocument(ctx, row.URL, examtopics.MarkerSelector)
	if err != nil {
		return examtopics.Record{}, err
	}
	rec, err := examtopics.ParsePage(doc)
	if err != nil {
		return examtopics.Record{}, err
	}
	if rec.Ordinal == 0 {
		rec.Ordinal = row.Ordinal
	}
	return rec, nil
}

// saveRecord persists the record and flips the ledger flag. A failure here is
// a storage problem and aborts the phase.
func (p *Pipeline) saveRecord(ctx context.Context, row ledger.Row, rec examtopics.Record) error {
	if err := p.records.Append(rec); err != nil {
		return fmt.Errorf("store question %d: %w", row.Ordinal, err)
	}
	if err := p.ledger.MarkExtracted(ctx, row.Ordinal); err != nil {
		return fmt.Errorf("mark question %d extracted: %w", row.Ordinal, err)
	}
	p.logger.Info("question extracted",
		zap.Int("question", row.Ordinal),
		zap.String("url", row.URL),
	)
	return nil
}
