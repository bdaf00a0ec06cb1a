package audit

import "encoding/json"

// Stage identifiers, used as retry budget caller ids and in progress events.
const (
	StagePageAuditor         = "PageAuditor"
	StageSerpAnalyst         = "SerpAnalyst"
	StageOptimizationAdvisor = "OptimizationAdvisor"
)

// pageAuditorInstruction asks the model to audit the scraped page content
// and infer its keyword targeting. The response must match pageAuditSchema.
const pageAuditorInstruction = `You are an expert technical SEO auditor.

You are given the scraped content of a web page: its markdown body, raw HTML
head, and the list of links found on the page. Perform a thorough on-page
audit:

1. Extract the title tag and meta description from the HTML. If either is
   missing, return an empty string for it and note the absence as a
   technical finding.
2. Identify the primary heading (H1) and all secondary headings (H2/H3)
   with their tags.
3. Estimate the word count of the main content and write a two to three
   sentence content summary.
4. Count internal links (same registrable domain as the audited URL) and
   external links.
5. List concrete technical findings: missing or weak metadata, heading
   structure problems, thin content, broken semantics.
6. List content opportunities: topics the page touches but does not cover
   in depth.
7. Infer the target keywords: the single primary keyword the page is
   clearly optimizing for, secondary keywords, the dominant search intent
   (informational, navigational, transactional, or commercial), and
   supporting topics that would strengthen topical authority.

Be specific and ground every finding in the provided content. Do not invent
facts about the page.`

// serpAnalystInstruction asks the model to analyze live search results for
// the primary keyword. The response must match serpAnalysisSchema.
const serpAnalystInstruction = `You are a search results analyst.

You are given the primary keyword a page targets and the current top search
results for that keyword (rank, title, URL, snippet). Analyze the
competitive landscape:

1. Echo back the keyword and the ranked results you were given.
2. Identify patterns across the ranking pages: dominant content formats
   (listicle, guide, product page, comparison), common title constructions,
   recurring entities or subtopics, and any SERP features implied by the
   snippets.
3. Produce actionable insights: what the ranking pages have in common that
   the audited page would need to match or beat.

Base your analysis only on the provided results. Do not fabricate rankings
or URLs.`

// optimizationAdvisorInstruction produces the final Markdown report. Output
// is free-form Markdown, not JSON.
const optimizationAdvisorInstruction = `You are a senior SEO strategist writing a client-ready optimization report.

You are given a structured page audit (technical findings, keyword
targeting) and a SERP analysis for the page's primary keyword. Synthesize
them into a single Markdown report with exactly these sections, in order:

## Executive Summary
Three to five sentences: the page's current state, its biggest gap versus
the competition, and the expected impact of acting on this report.

## Technical & On-Page Findings
The audit findings, each with a one line explanation of why it matters.

## Keyword Analysis
The primary and secondary keywords, the search intent, and how well the
current content serves that intent.

## Competitive SERP Analysis
What the ranking pages do that this page does not, drawn from the SERP
insights.

## Prioritized Recommendations
A bulleted list of concrete actions, each prefixed with a priority tag:
**P0** (critical, do first), **P1** (high impact), or **P2** (nice to
have). Every bullet must name the exact change to make.

## Next Steps
A short ordered list of what to do in the first two weeks.

Write for a marketing team, not for engineers. Be direct and specific; no
filler.`

// pageAuditSchema is the Gemini structured output schema for stage one.
var pageAuditSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "audit_results": {
      "type": "object",
      "properties": {
        "title_tag": {"type": "string"},
        "meta_description": {"type": "string"},
        "primary_heading": {"type": "string"},
        "secondary_headings": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "tag": {"type": "string"},
              "text": {"type": "string"}
            },
            "required": ["tag", "text"]
          }
        },
        "word_count": {"type": "integer"},
        "content_summary": {"type": "string"},
        "link_counts": {
          "type": "object",
          "properties": {
            "internal": {"type": "integer"},
            "external": {"type": "integer"},
            "total": {"type": "integer"}
          },
          "required": ["internal", "external", "total"]
        },
        "technical_findings": {"type": "array", "items": {"type": "string"}},
        "content_opportunities": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["title_tag", "meta_description", "primary_heading", "content_summary", "link_counts", "technical_findings"]
    },
    "target_keywords": {
      "type": "object",
      "properties": {
        "primary_keyword": {"type": "string"},
        "secondary_keywords": {"type": "array", "items": {"type": "string"}},
        "search_intent": {"type": "string"},
        "supporting_topics": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["primary_keyword", "search_intent"]
    }
  },
  "required": ["audit_results", "target_keywords"]
}`)

// serpAnalysisSchema is the Gemini structured output schema for stage two.
var serpAnalysisSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "keyword": {"type": "string"},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "rank": {"type": "integer"},
          "title": {"type": "string"},
          "url": {"type": "string"},
          "snippet": {"type": "string"}
        },
        "required": ["rank", "title", "url"]
      }
    },
    "patterns": {"type": "object"},
    "insights": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["keyword", "results", "insights"]
}`)
