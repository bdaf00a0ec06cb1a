package llm

import (
	"testing"
	"time"
)

func TestExtractRetryDelay_Phrasings(t *testing.T) {
	cases := []string{
		"quota exceeded, retry in 3.5 seconds",
		"Retry after 3.5s please",
		`{"retryDelay": "3.5s"}`,
	}
	want := time.Duration(3.5 * float64(time.Second))
	for _, msg := range cases {
		got, ok := ExtractRetryDelay(msg)
		if !ok {
			t.Fatalf("ExtractRetryDelay(%q): not found", msg)
		}
		if got != want {
			t.Fatalf("ExtractRetryDelay(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestExtractRetryDelay_CaseInsensitive(t *testing.T) {
	got, ok := ExtractRetryDelay("RETRY IN 7 seconds")
	if !ok || got != 7*time.Second {
		t.Fatalf("ExtractRetryDelay = %v, %v; want 7s, true", got, ok)
	}
}

func TestExtractRetryDelay_NotFound(t *testing.T) {
	if _, ok := ExtractRetryDelay("some unrelated error"); ok {
		t.Fatal("expected no delay in unrelated text")
	}
}

func TestPlanBackoff_UsesExtractedDelay(t *testing.T) {
	plan := PlanBackoff("429: retry in 12 seconds", RateLimited)
	if plan.Extracted == nil || *plan.Extracted != 12*time.Second {
		t.Fatalf("extracted = %v, want 12s", plan.Extracted)
	}
	if plan.Base != 12*time.Second {
		t.Fatalf("base = %v, want 12s", plan.Base)
	}
}

func TestPlanBackoff_ClampsShortSuggestions(t *testing.T) {
	plan := PlanBackoff("429: retry in 0.2 seconds", RateLimited)
	if plan.Base != minBackoff {
		t.Fatalf("base = %v, want clamped to %v", plan.Base, minBackoff)
	}
}

func TestPlanBackoff_Fallbacks(t *testing.T) {
	if p := PlanBackoff("quota exceeded", QuotaExhausted); p.Base != quotaFallbackDelay {
		t.Fatalf("quota fallback base = %v, want %v", p.Base, quotaFallbackDelay)
	}
	if p := PlanBackoff("429", RateLimited); p.Base != rateFallbackDelay {
		t.Fatalf("rate fallback base = %v, want %v", p.Base, rateFallbackDelay)
	}
}

func TestPlanBackoff_JitterBounds(t *testing.T) {
	for i := 0; i < 500; i++ {
		plan := PlanBackoff("429", RateLimited)
		if plan.Jitter < 0 || plan.Jitter >= maxJitter {
			t.Fatalf("jitter %v out of [0, %v)", plan.Jitter, maxJitter)
		}
		if plan.Total < plan.Base || plan.Total >= plan.Base+maxJitter {
			t.Fatalf("total %v out of [%v, %v)", plan.Total, plan.Base, plan.Base+maxJitter)
		}
	}
}
