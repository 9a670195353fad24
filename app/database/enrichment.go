package database

import (
	"cmp"
	"strings"
)

// A summary above this length is treated as junk (usually a scraped page
// rather than pipeline output).
const maxSummaryLength = 2000

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.Contains(lower, "<html") ||
		strings.HasPrefix(trimmed, "<")
}

func isValidSummary(s string) bool {
	return s != "" && len(s) < maxSummaryLength && !looksLikeHTML(s)
}

// hasValidEnrichment reports whether a row's enrichment is usable: a
// non-empty, non-HTML, length-bounded summary, or a valid "why it matters"
// string together with at least one parsed relevance score.
func hasValidEnrichment(a *Article) bool {
	if isValidSummary(a.SummaryShort) || isValidSummary(a.SummaryMedium) ||
		isValidSummary(a.SummaryLong) || isValidSummary(a.SummaryEnriched) {
		return true
	}

	return a.WhyItMatters != "" && !looksLikeHTML(a.WhyItMatters) && len(a.RelevanceScores) > 0
}

// pickSummary returns the widest valid summary in priority order
// short, medium, long, enriched.
func pickSummary(a *Article) string {
	for _, candidate := range []string{a.SummaryShort, a.SummaryMedium, a.SummaryLong, a.SummaryEnriched} {
		if isValidSummary(candidate) {
			return candidate
		}
	}
	return ""
}

// shapeArticle applies the enrichment validity filter to a scanned row.
// Rows without valid enrichment keep their triage metadata but expose no
// enrichment text or scores.
func shapeArticle(a *Article) {
	if !hasValidEnrichment(a) {
		a.SummaryEnriched = ""
		a.SummaryShort = ""
		a.SummaryMedium = ""
		a.SummaryLong = ""
		a.WhyItMatters = ""
		a.PersonalizedTeaser = ""
		a.RelevanceScores = nil
		a.Summary = ""
		return
	}

	a.Summary = pickSummary(a)
}

// shapeFeedArticle additionally surfaces the personalized title in place of
// the original one when present.
func shapeFeedArticle(a *Article) {
	shapeArticle(a)
	a.Title = cmp.Or(a.PersonalizedTitle, a.Title)
}
