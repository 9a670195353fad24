package providers

import (
	"context"
	"time"

	"github.com/marketbrief/marketbrief/app/news"
)

// Request timeout applied to every provider call. Adapters must resolve
// within it, converting timeout or error into an empty result.
const requestTimeout = 10 * time.Second

// Provider is a single news source. Fetch is best-effort: on any transport
// or parse failure it logs and returns an empty list, never an error.
type Provider interface {
	Tag() string
	Fetch(ctx context.Context, query string, opts news.FetchOptions) []news.Article
}

// capArticles applies the MaxArticles option after receipt, even if the
// upstream provider returned more.
func capArticles(articles []news.Article, max int) []news.Article {
	if max > 0 && len(articles) > max {
		return articles[:max]
	}
	return articles
}

// parseTimestamp tries the given layouts in order and falls back to the
// current time, preserving "defaults to ingestion time" semantics for
// absent or unparseable publish dates.
func parseTimestamp(value string, layouts ...string) time.Time {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
