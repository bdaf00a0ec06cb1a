// Package audit implements the three stage SEO audit pipeline: page audit,
// SERP analysis, and optimization advice. It orchestrates the scraper, the
// search provider, and the language model backend, persisting results and
// publishing progress events along the way.
package audit

// HeadingItem is one secondary heading found on the page.
type HeadingItem struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// LinkCounts summarizes the link profile of the page.
type LinkCounts struct {
	Internal int `json:"internal"`
	External int `json:"external"`
	Total    int `json:"total"`
}

// TargetKeywords captures the inferred keyword targeting of the page.
type TargetKeywords struct {
	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	SearchIntent      string   `json:"search_intent"`
	SupportingTopics  []string `json:"supporting_topics"`
}

// AuditResults holds the technical and on-page findings from stage one.
type AuditResults struct {
	TitleTag             string        `json:"title_tag"`
	MetaDescription      string        `json:"meta_description"`
	PrimaryHeading       string        `json:"primary_heading"`
	SecondaryHeadings    []HeadingItem `json:"secondary_headings"`
	WordCount            *int          `json:"word_count"`
	ContentSummary       string        `json:"content_summary"`
	LinkCounts           LinkCounts    `json:"link_counts"`
	TechnicalFindings    []string      `json:"technical_findings"`
	ContentOpportunities []string      `json:"content_opportunities"`
}

// PageAudit is the structured output of the first pipeline stage.
type PageAudit struct {
	AuditResults   AuditResults   `json:"audit_results"`
	TargetKeywords TargetKeywords `json:"target_keywords"`
}

// SerpResult is one ranked search result for the primary keyword.
type SerpResult struct {
	Rank    int    `json:"rank"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SerpAnalysis is the structured output of the second pipeline stage.
type SerpAnalysis struct {
	Keyword  string         `json:"keyword"`
	Results  []SerpResult   `json:"results"`
	Patterns map[string]any `json:"patterns"`
	Insights []string       `json:"insights"`
}

// Result is the final pipeline output returned to the submitting client.
type Result struct {
	URL             string       `json:"url"`
	Title           string       `json:"title"`
	Report          string       `json:"report"`
	Summary         string       `json:"summary"`
	Recommendations []string     `json:"recommendations"`
	PageAudit       PageAudit    `json:"page_audit"`
	Serp            SerpAnalysis `json:"serp_analysis"`
}
