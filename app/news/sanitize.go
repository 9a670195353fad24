package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Matches "Source: Reuters", "via Bloomberg", "from CNBC", "by MarketWatch"
	// style attributions inside feed descriptions.
	sourceHintPattern = regexp.MustCompile(`(?i)(?:\bsource:\s*|\bvia\s+|\bfrom\s+|\bby\s+)([A-Z][A-Za-z0-9&.' -]{1,40})`)

	titleCaser = cases.Title(language.English, cases.NoLower)
)

// StripHTML returns the plain text of an HTML fragment with entities decoded
// and whitespace collapsed. On parse failure it falls back to a regex strip,
// so it always returns something usable for storage.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseWhitespace(tagPattern.ReplaceAllString(fragment, " "))
	}

	return collapseWhitespace(doc.Text())
}

// ExtractImageURL returns the src of the first <img> tag embedded in an HTML
// fragment, or empty when none is present.
func ExtractImageURL(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

// RecoverSourceName resolves a publisher name for a feed item from, in
// order: an explicit source tag, a creator tag, an attribution hint inside
// the description, then the supplied fallback label.
func RecoverSourceName(sourceTag, creator, description, fallback string) string {
	if name := strings.TrimSpace(sourceTag); name != "" {
		return name
	}
	if name := strings.TrimSpace(creator); name != "" {
		return name
	}

	if match := sourceHintPattern.FindStringSubmatch(StripHTML(description)); match != nil {
		return titleCaser.String(strings.TrimSpace(match[1]))
	}

	return fallback
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
