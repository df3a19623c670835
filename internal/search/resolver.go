package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Resolver tries backends in priority order until one yields a link on the
// target domain. Failed backends are demoted to the back of the order, but
// only between passes so iteration never races its own mutation. Priority
// state lives in memory only and resets each process start.
type Resolver struct {
	backends []Backend
	original []Backend
	target   string
	minDelay time.Duration
	maxDelay time.Duration
	pause    func(ctx context.Context, d time.Duration)
	logger   *zap.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDelayRange sets the randomized inter-request delay bounds.
func WithDelayRange(min, max time.Duration) Option {
	return func(r *Resolver) {
		r.minDelay, r.maxDelay = min, max
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithPause overrides how the resolver sleeps (tests inject a no-op).
func WithPause(pause func(ctx context.Context, d time.Duration)) Option {
	return func(r *Resolver) { r.pause = pause }
}

// NewResolver builds a resolver over backends targeting links on domain.
func NewResolver(backends []Backend, domain string, opts ...Option) *Resolver {
	r := &Resolver{
		backends: append([]Backend(nil), backends...),
		original: append([]Backend(nil), backends...),
		target:   domain,
		minDelay: 2 * time.Second,
		maxDelay: 8 * time.Second,
		pause:    timerPause,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one query through the backends in current priority order.
// The returned error is reserved for context cancellation; backend failures
// only demote.
func (r *Resolver) Resolve(ctx context.Context, query string) (Result, error) {
	failed := make(map[string]bool)
	defer r.demote(failed)

	for _, backend := range r.backends {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		r.pause(ctx, r.jitter())

		links, err := backend.Search(ctx, query)
		switch {
		case errors.Is(err, ErrBlocked):
			r.logger.Warn("search backend blocked",
				zap.String("backend", backend.Name()),
				zap.String("query", query),
			)
			failed[backend.Name()] = true
			continue
		case err != nil:
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			r.logger.Warn("search backend failed",
				zap.String("backend", backend.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			failed[backend.Name()] = true
			continue
		}

		for _, link := range links {
			if hostMatches(link, r.target) {
				return Result{URL: link, Backend: backend.Name(), Found: true}, nil
			}
		}
		failed[backend.Name()] = true
	}

	return Result{}, nil
}

// ResetOrder restores the configured backend order. The reconciliation sweep
// uses it so retries start from the original priorities.
func (r *Resolver) ResetOrder() {
	r.backends = append(r.backends[:0], r.original...)
}

// Order reports the current backend priority order by name.
func (r *Resolver) Order() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// demote moves failed backends to the back of the order, preserving the
// relative order within each group.
func (r *Resolver) demote(failed map[string]bool) {
	if len(failed) == 0 {
		return
	}
	kept := make([]Backend, 0, len(r.backends))
	demoted := make([]Backend, 0, len(failed))
	for _, b := range r.backends {
		if failed[b.Name()] {
			demoted = append(demoted, b)
		} else {
			kept = append(kept, b)
		}
	}
	r.backends = append(kept, demoted...)
}

func (r *Resolver) jitter() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + rand.N(r.maxDelay-r.minDelay)
}

// timerPause waits for d or until ctx finishes, whichever comes first.
func timerPause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
