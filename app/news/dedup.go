package news

import (
	"sort"
	"strings"
)

// Deduplicate collapses articles sharing a URL. The first occurrence wins,
// later duplicates are dropped and first-occurrence order is preserved.
// Articles without a URL are dropped silently.
func Deduplicate(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	result := make([]Article, 0, len(articles))

	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if _, ok := seen[article.URL]; ok {
			continue
		}
		seen[article.URL] = struct{}{}
		result = append(result, article)
	}

	return result
}

// DeduplicateWithContext collapses articles sharing a URL like Deduplicate,
// but merges each later duplicate's SearchedBy into the retained record so
// an article found under several tickers keeps all of them. All other
// fields of later duplicates are discarded.
func DeduplicateWithContext(articles []Article) []Article {
	index := make(map[string]int, len(articles))
	result := make([]Article, 0, len(articles))

	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if i, ok := index[article.URL]; ok {
			result[i].SearchedBy = MergeSearchedBy(result[i].SearchedBy, article.SearchedBy)
			continue
		}
		index[article.URL] = len(result)
		result = append(result, article)
	}

	return result
}

// MergeSearchedBy appends the incoming ticker/keyword to an existing
// comma-joined SearchedBy value unless it is already present. The merge is
// monotonic: existing entries are never removed.
func MergeSearchedBy(existing, incoming string) string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	if strings.Contains(existing, incoming) {
		return existing
	}
	return existing + "," + incoming
}

// SortByPublishedAtDesc orders articles newest first. Ties keep their
// original relative order.
func SortByPublishedAtDesc(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
