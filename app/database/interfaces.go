package database

import (
	"github.com/marketbrief/marketbrief/app/news"
)

// ArticleRepository is the persistent merge store: it owns the upsert
// conflict-resolution policy, existence checks, retention cleanup and all
// read queries.
type ArticleRepository interface {
	UpsertArticles(articles []news.Article, searchedBy string) (UpsertResult, error)

	// ExistingURLs is advisory: on query failure it returns an empty set
	// rather than an error.
	ExistingURLs(urls []string) map[string]struct{}

	GetByURLs(urls []string) ([]Article, error)
	Search(query string, opts QueryOptions) ([]Article, error)
	GetForHoldings(holdings []news.Holding, opts QueryOptions) ([]Article, error)
	GetFeed(opts FeedOptions) ([]Article, error)
	GetArticleCount() (int, error)

	DeleteOlderThan(daysToKeep int) (int, error)
	DeleteAll() (int, error)

	GetArticlesMissingContent(limit int) ([]ArticleForExtraction, error)
	UpdateExtractedContent(url string, content string) error
}
