package audit

import (
	"reflect"
	"testing"
)

const sampleReport = `# SEO Report

## Executive Summary
The page ranks poorly for its primary keyword.
Competitors publish deeper guides.

## Technical & On-Page Findings
- Missing meta description

## Prioritized Recommendations
- **P0** Write a meta description under 160 characters
* **P1** Expand the buying guide section
- **P2** Add FAQ schema

## Next Steps
1. Fix metadata
`

func TestExtractSummary(t *testing.T) {
	got := ExtractSummary(sampleReport)
	want := "The page ranks poorly for its primary keyword.\nCompetitors publish deeper guides."
	if got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestExtractSummary_Missing(t *testing.T) {
	if got := ExtractSummary("## Other Section\ntext"); got != "" {
		t.Fatalf("summary = %q, want empty", got)
	}
}

func TestExtractRecommendations(t *testing.T) {
	got := ExtractRecommendations(sampleReport)
	want := []string{
		"**P0** Write a meta description under 160 characters",
		"**P1** Expand the buying guide section",
		"**P2** Add FAQ schema",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("recommendations = %#v, want %#v", got, want)
	}
}

func TestExtractRecommendations_Missing(t *testing.T) {
	if got := ExtractRecommendations("## Executive Summary\nfine"); got != nil {
		t.Fatalf("recommendations = %#v, want nil", got)
	}
}

func TestAuditTitle(t *testing.T) {
	if got := AuditTitle("best running shoes", "https://x"); got != "SEO Audit: Best Running Shoes" {
		t.Fatalf("title = %q", got)
	}
	if got := AuditTitle("  ", "https://x.example"); got != "SEO Audit: https://x.example" {
		t.Fatalf("fallback title = %q", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"https://example.com/page", "https://example.com/page", nil},
		{"example.com", "https://example.com", nil},
		{"  example.com/a  ", "https://example.com/a", nil},
		{"http://example.com", "http://example.com", nil},
		{"", "", ErrEmptyURL},
		{"   ", "", ErrEmptyURL},
		{"ftp://example.com", "", ErrInvalidURL},
		{"https://", "", ErrInvalidURL},
	}
	for _, tc := range cases {
		got, err := NormalizeURL(tc.in)
		if err != tc.wantErr {
			t.Fatalf("NormalizeURL(%q) err = %v, want %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
