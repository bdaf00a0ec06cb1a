// Backoff planning for retryable model-call failures.
//
// Providers often embed a suggested wait in the error message ("retry in
// 3.5s", "Retry-After: 7", Gemini's retryDelay field). The planner prefers
// that hint, clamps it to a sane minimum, falls back to a per-category
// default otherwise, and adds bounded random jitter so concurrent callers
// do not retry in lockstep.
package llm

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

const (
	// minBackoff is the floor applied to server-suggested delays.
	minBackoff = 1 * time.Second

	// quotaFallbackDelay is used for quota exhaustion when the provider
	// did not suggest a wait. Quota windows recover slowly.
	quotaFallbackDelay = 30 * time.Second

	// rateFallbackDelay is used for plain 429s without a suggested wait.
	rateFallbackDelay = 5 * time.Second

	// maxJitter bounds the random addition: jitter is uniform in [0, maxJitter).
	maxJitter = 3 * time.Second
)

// delayPatterns are the supported phrasings for a server-suggested delay in
// decimal seconds. The first matching pattern wins.
var delayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)retry after (\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)retrydelay\D{0,4}(\d+(?:\.\d+)?)`),
}

// BackoffPlan is the computed wait before re-invoking a failed call. It is
// computed fresh for every retry decision and consumed once.
type BackoffPlan struct {
	// Extracted is the server-suggested delay, when one was found.
	Extracted *time.Duration
	// Base is the delay before jitter: the clamped extracted delay, or the
	// per-category fallback.
	Base time.Duration
	// Jitter is the random addition, uniform in [0, 3s).
	Jitter time.Duration
	// Total is Base + Jitter, used directly as the sleep duration.
	Total time.Duration
}

// ExtractRetryDelay scans errText for a server-suggested delay. Parse
// failures are treated as "not found".
func ExtractRetryDelay(errText string) (time.Duration, bool) {
	for _, re := range delayPatterns {
		m := re.FindStringSubmatch(errText)
		if m == nil {
			continue
		}
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

// PlanBackoff computes the wait for one retry of a call that failed with the
// given classification. The extracted delay wins when present and at least
// one second; shorter suggestions are clamped up to a second so a provider
// echoing "retry in 0" cannot turn the loop hot.
func PlanBackoff(errText string, class Classification) BackoffPlan {
	plan := BackoffPlan{}

	if d, ok := ExtractRetryDelay(errText); ok {
		plan.Extracted = &d
		plan.Base = d
		if plan.Base < minBackoff {
			plan.Base = minBackoff
		}
	} else if class == QuotaExhausted {
		plan.Base = quotaFallbackDelay
	} else {
		plan.Base = rateFallbackDelay
	}

	plan.Jitter = time.Duration(rand.Float64() * float64(maxJitter))
	plan.Total = plan.Base + plan.Jitter
	return plan
}
