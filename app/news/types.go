package news

import (
	"time"
)

// Feed source tags identify the provider an article was retrieved from.
// They double as the values accepted by the "sources" fetch option and
// stored in the feed_source column.
const (
	FeedSourceNewsAPI    = "newsapi"
	FeedSourceMarketaux  = "marketaux"
	FeedSourceGoogleNews = "googlenews"
)

// Source carries the provider-native identification of a publisher.
type Source struct {
	ID   string
	Name string
}

// Article is the canonical article shape shared by all provider adapters,
// the fetch orchestrator and the persistence layer. URL is the identity:
// no two persisted articles share a URL.
type Article struct {
	Source      Source
	Author      string
	Title       string
	Description string
	URL         string
	URLToImage  string
	Content     string
	PublishedAt time.Time

	// FeedSource is the tag of the provider the article came from.
	FeedSource string
	// SearchedBy is the comma-joined list of tickers/keywords whose
	// search queries surfaced this article.
	SearchedBy string
}

// Holding identifies a tracked security. Label and Notes are optional and
// only used to widen the per-ticker search query.
type Holding struct {
	Ticker string `yaml:"ticker"`
	Label  string `yaml:"label,omitempty"`
	Notes  string `yaml:"notes,omitempty"`
}

// FetchOptions parameterizes a provider fetch or an orchestrated fetch.
// Zero values mean "unset".
type FetchOptions struct {
	Category string
	Page     int
	From     time.Time
	To       time.Time
	SortBy   string

	// Sources restricts fetching to the named provider tags. Elements may
	// themselves be comma-separated. Empty means all providers.
	Sources []string

	// SearchedBy is attached to persisted articles so later feed reads can
	// gate on the ticker that surfaced them.
	SearchedBy string

	// MaxArticles caps each adapter's result count, applied after receipt.
	MaxArticles int
}
