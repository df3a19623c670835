package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
)

// RunDiscovery resolves a discussion URL for every question ordinal and
// appends each hit to the ledger. It resumes past the highest recorded
// ordinal, then sweeps for gaps with a looser query before marking the phase
// finished.
func (p *Pipeline) RunDiscovery(ctx context.Context) error {
	if p.requirement.DiscoveryDone {
		p.logger.Info("discovery already finished, skipping")
		return nil
	}

	start := time.Now()
	outcome := "completed"
	defer func() {
		metrics.ObservePhase("discovery", outcome, time.Since(start))
	}()

	maxQ, err := p.maxQuestions(ctx)
	if err != nil {
		outcome = "failed"
		return err
	}
	resume, err := p.ledger.ResumePoint(ctx)
	if err != nil {
		outcome = "failed"
		return err
	}
	exam := p.requirement.Exam
	p.logger.Info("discovery starting",
		zap.String("exam", exam),
		zap.Int("max_question", maxQ),
		zap.Int("resume_after", resume),
	)

	for n := resume + 1; n <= maxQ; n++ {
		if err := ctx.Err(); err != nil {
			outcome = "canceled"
			return err
		}
		if err := p.discoverOne(ctx, n, primaryQuery(exam, n)); err != nil {
			outcome = "failed"
			return err
		}
	}

	if err := p.reconcile(ctx, maxQ); err != nil {
		if ctx.Err() != nil {
			outcome = "canceled"
		} else {
			outcome = "failed"
		}
		return err
	}

	if err := p.requirement.SetDiscoveryDone(); err != nil {
		outcome = "failed"
		return err
	}
	p.logger.Info("discovery finished", zap.Int("max_question", maxQ))
	return nil
}

// discoverOne resolves a single question and records the hit. A miss is not
// an error; the reconciliation sweep retries it.
func (p *Pipeline) discoverOne(ctx context.Context, ordinal int, query string) error {
	res, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}
	if !res.Found {
		metrics.ObserveSearch("none", "miss")
		p.logger.Warn("no discussion link found",
			zap.Int("question", ordinal),
			zap.String("query", query),
		)
		return nil
	}

	metrics.ObserveSearch(res.Backend, "found")
	if err := p.ledger.Append(ctx, ordinal, res.URL); err != nil {
		return fmt.Errorf("record question %d: %w", ordinal, err)
	}
	p.logger.Info("discussion link recorded",
		zap.Int("question", ordinal),
		zap.String("url", res.URL),
		zap.String("backend", res.Backend),
	)
	return nil
}

// reconcile retries ordinals the main loop missed, restoring the configured
// backend order first so each sweep starts from the preferred engines.
func (p *Pipeline) reconcile(ctx context.Context, maxQ int) error {
	exam := p.requirement.Exam
	for sweep := 1; sweep <= p.sweeps; sweep++ {
		missing, err := p.missingOrdinals(ctx, maxQ)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			return nil
		}
		p.logger.Info("reconciliation sweep starting",
			zap.Int("sweep", sweep),
			zap.Int("missing", len(missing)),
		)
		p.resolver.ResetOrder()

		for _, n := range missing {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.discoverOne(ctx, n, reconcileQuery(exam, n)); err != nil {
				return err
			}
		}
	}

	missing, err := p.missingOrdinals(ctx, maxQ)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		p.logger.Warn("questions still unresolved after reconciliation",
			zap.Ints("ordinals", missing),
		)
	}
	return nil
}

// missingOrdinals lists the ordinals in [1, maxQ] absent from the ledger.
func (p *Pipeline) missingOrdinals(ctx context.Context, maxQ int) ([]int, error) {
	present, err := p.ledger.Ordinals(ctx)
	if err != nil {
		return nil, err
	}
	var missing []int
	for n := 1; n <= maxQ; n++ {
		if _, ok := present[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing, nil
}
