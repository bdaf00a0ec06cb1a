// Package llm wraps every call to the external model backend. It provides
// the backend client contract, provider-error classification, backoff
// planning for retryable failures, and the bounded retry bookkeeping shared
// by all pipeline stages.
//
// Classification is a pure function of the error text: providers surface
// quota and rate-limit conditions as message substrings and HTTP status
// markers, not as typed errors, so the classifier normalizes the message and
// matches known patterns. Quota exhaustion deliberately takes priority over
// plain rate limiting when both markers are present.
package llm

import (
	"fmt"
	"strings"
)

// Classification is the retry-relevant category of a model-call failure.
type Classification int

const (
	// Fatal is any error that matched no known transient pattern. It is
	// logged and surfaced immediately, never retried.
	Fatal Classification = iota

	// QuotaExhausted means the provider's hard quota was reached. Retried
	// on a long backoff up to a small budget, then terminal.
	QuotaExhausted

	// RateLimited is a transient 429 without quota markers. Retried on a
	// short or server-suggested backoff.
	RateLimited

	// TransientUnavailable covers 503/overloaded/unavailable conditions.
	// This layer logs them and leaves retrying to the caller's outer loop.
	TransientUnavailable
)

// String returns the snake_case name used in logs and notification events.
func (c Classification) String() string {
	switch c {
	case QuotaExhausted:
		return "quota_exhausted"
	case RateLimited:
		return "rate_limited"
	case TransientUnavailable:
		return "transient_unavailable"
	default:
		return "fatal"
	}
}

// Retryable reports whether this layer's retry tracker handles the category.
func (c Classification) Retryable() bool {
	return c == QuotaExhausted || c == RateLimited
}

// quotaMarkers are substrings that identify quota exhaustion on their own.
var quotaMarkers = []string{
	"resource_exhausted",
	"quota exceeded",
	"current quota",
	"you exceeded your current quota",
	"free_tier_input_token_count",
}

// Classify inspects an error's text and decides whether it represents quota
// exhaustion, transient rate limiting, other transient unavailability, or a
// fatal error. The search text is the error's string form concatenated with
// its verbose form, lower-cased, so wrapped errors and providers that only
// annotate the detailed representation are still matched.
func Classify(err error) Classification {
	if err == nil {
		return Fatal
	}
	text := strings.ToLower(fmt.Sprintf("%s %+v", err.Error(), err))

	if isQuotaExhausted(text) {
		return QuotaExhausted
	}
	if strings.Contains(text, "429") && !strings.Contains(text, "resource_exhausted") {
		return RateLimited
	}
	if strings.Contains(text, "503") ||
		strings.Contains(text, "overloaded") ||
		strings.Contains(text, "unavailable") {
		return TransientUnavailable
	}
	return Fatal
}

// isQuotaExhausted matches the quota patterns. A 429 combined with quota
// markers is still quota exhaustion: the budget is gone, and hammering the
// provider on the short rate-limit backoff would not help.
func isQuotaExhausted(text string) bool {
	for _, m := range quotaMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	if strings.Contains(text, "free_tier") && strings.Contains(text, "quota") {
		return true
	}
	if strings.Contains(text, "429") {
		if strings.Contains(text, "resource_exhausted") {
			return true
		}
		if strings.Contains(text, "quota") && strings.Contains(text, "exceeded") {
			return true
		}
	}
	return false
}
