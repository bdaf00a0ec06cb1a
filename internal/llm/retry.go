// Retry tracking for rate-limited and quota-exhausted model calls.
//
// The Retrier keeps two independent attempt budgets per logical caller (one
// per pipeline stage): a short budget for plain rate limiting and a smaller
// one for quota exhaustion. Counters are keyed by caller id, not by request,
// so concurrent audits against the same stage share exhaustion state and do
// not collectively hammer a quota that is already gone.
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-seo-audit-backend/internal/notify"
)

const (
	// MaxRateLimitRetries is the attempt budget for RateLimited errors.
	MaxRateLimitRetries = 3

	// MaxQuotaRetries is the attempt budget for QuotaExhausted errors.
	MaxQuotaRetries = 2
)

// Retrier owns the per-caller retry counters and runs the retry loop around
// a model call. Safe for concurrent use.
type Retrier struct {
	hub *notify.Hub

	mu    sync.Mutex
	rate  map[string]int
	quota map[string]int

	// sleep is a seam for tests; production uses a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier returns a Retrier publishing retry events through hub.
func NewRetrier(hub *notify.Hub) *Retrier {
	return &Retrier{
		hub:   hub,
		rate:  make(map[string]int),
		quota: make(map[string]int),
		sleep: sleepCtx,
	}
}

// Do invokes fn, absorbing classified-retryable errors up to their budget.
//
// On a retryable error below budget it increments the counter, plans a
// backoff, publishes a retry event (and later retry_complete), blocks for
// the computed delay, and re-invokes fn. Once a budget is exhausted the
// counter is reset to zero, so the next fresh invocation starts clean, and
// the original error is surfaced. TransientUnavailable errors are logged
// and returned for the caller's outer mechanism; Fatal errors are returned
// immediately. Success resets both counters for the caller.
func (r *Retrier) Do(ctx context.Context, callerID string, fn func(ctx context.Context) error) error {
	for {
		err := fn(ctx)
		if err == nil {
			r.resetAll(callerID)
			return nil
		}

		class := Classify(err)
		lg := log.With().Str("stage", callerID).Str("classification", class.String()).Logger()

		switch class {
		case Fatal:
			lg.Error().Err(err).Msg("model call failed")
			return err
		case TransientUnavailable:
			lg.Warn().Err(err).Msg("model backend unavailable, not retried at this layer")
			return err
		}

		attempt, max, ok := r.consume(callerID, class)
		if !ok {
			retriesExhausted.WithLabelValues(callerID, class.String()).Inc()
			lg.Error().Err(err).Int("max_attempts", max).Msg("retry budget exhausted")
			return err
		}

		plan := PlanBackoff(err.Error(), class)
		retriesTotal.WithLabelValues(callerID, class.String()).Inc()
		lg.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", max).
			Dur("delay", plan.Total).
			Msg("model call rate limited, backing off")

		eventType := notify.EventRetry
		if class == QuotaExhausted {
			eventType = notify.EventQuotaRetry
		}
		r.hub.Emit(ctx, "", eventType, map[string]any{
			"stage":          callerID,
			"classification": class.String(),
			"attempt":        attempt,
			"max_attempts":   max,
			"delay_seconds":  plan.Total.Seconds(),
		})

		if serr := r.sleep(ctx, plan.Total); serr != nil {
			return err
		}

		r.hub.Emit(ctx, "", notify.EventRetryComplete, map[string]any{
			"stage":   callerID,
			"attempt": attempt,
		})
	}
}

// consume increments the counter for (callerID, class) when it is below its
// budget, returning the attempt number just used and the budget. At the
// budget it resets the counter to zero and reports failure.
func (r *Retrier) consume(callerID string, class Classification) (attempt, max int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counters := r.rate
	max = MaxRateLimitRetries
	if class == QuotaExhausted {
		counters = r.quota
		max = MaxQuotaRetries
	}

	n := counters[callerID]
	if n >= max {
		counters[callerID] = 0
		return 0, max, false
	}
	counters[callerID] = n + 1
	return n + 1, max, true
}

// resetAll clears both budgets for callerID after a successful call.
func (r *Retrier) resetAll(callerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rate, callerID)
	delete(r.quota, callerID)
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
