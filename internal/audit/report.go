package audit

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// AuditTitle derives a short human-readable label for the audit from the
// primary keyword, falling back to the audited URL.
func AuditTitle(primaryKeyword, url string) string {
	kw := strings.TrimSpace(primaryKeyword)
	if kw == "" {
		return "SEO Audit: " + url
	}
	return "SEO Audit: " + titleCaser.String(kw)
}

// ExtractSummary returns the text of the "Executive Summary" section of a
// Markdown report, or an empty string if the section is absent.
func ExtractSummary(report string) string {
	body, ok := sectionBody(report, "Executive Summary")
	if !ok {
		return ""
	}
	return strings.TrimSpace(body)
}

// ExtractRecommendations returns the bullet items under the "Prioritized
// Recommendations" section, with list markers stripped.
func ExtractRecommendations(report string) []string {
	body, ok := sectionBody(report, "Prioritized Recommendations")
	if !ok {
		return nil
	}

	var recs []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if item, ok := strings.CutPrefix(line, "- "); ok {
			recs = append(recs, strings.TrimSpace(item))
			continue
		}
		if item, ok := strings.CutPrefix(line, "* "); ok {
			recs = append(recs, strings.TrimSpace(item))
		}
	}
	return recs
}

// sectionBody extracts the body of a Markdown section whose heading text is
// title (any heading level), up to the next heading or end of document.
func sectionBody(report, title string) (string, bool) {
	lines := strings.Split(report, "\n")
	start := -1
	for i, line := range lines {
		if isHeading(line) && strings.EqualFold(headingText(line), title) {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return "", false
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isHeading(lines[i]) {
			end = i
			break
		}
	}
	return strings.Join(lines[start:end], "\n"), true
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#")
}

func headingText(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
}
