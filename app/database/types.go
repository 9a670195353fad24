package database

import (
	"time"

	"github.com/marketbrief/marketbrief/app/news"
)

// Article is a persisted article row: the canonical article shape plus
// ingestion bookkeeping and the enrichment/triage/ranking fields owned by
// the external pipeline.
type Article struct {
	news.Article

	LastScrapedAt time.Time
	ScrapeCount   int
	CreatedAt     time.Time

	// Enrichment (pipeline-owned, read-only here)
	SummaryEnriched    string
	SummaryShort       string
	SummaryMedium      string
	SummaryLong        string
	WhyItMatters       string
	PersonalizedTeaser string
	RelevanceScores    map[string]float64

	// Triage
	TriageReason string
	TriageScore  *float64
	ShouldEnrich *bool

	// Ranking
	Status               string
	ImpactScore          *float64
	ProfileAdjustedScore *float64
	FinalRankScore       *float64
	EventType            string
	Sentiment            *float64
	SentimentLabel       string
	RiskScore            *float64
	OpportunityScore     *float64
	VolatilityScore      *float64
	MatchedTickers       []string
	MatchedSectors       []string
	MatchedHoldings      []string
	IsPrimaryInCluster   *bool
	ClusterID            string
	PersonalizedTitle    string

	// Summary is the widest valid summary available, selected when shaping
	// read results. Empty when the row has no valid enrichment.
	Summary string
}

// ArticleForExtraction identifies a stored article whose full content is
// still missing.
type ArticleForExtraction struct {
	URL string
}

// UpsertResult reports the outcome of a batch write.
type UpsertResult struct {
	Saved   int
	Skipped int
}

// QueryOptions narrows read queries. Zero values mean "unset".
type QueryOptions struct {
	From    time.Time
	To      time.Time
	Limit   int
	Sources []string
}

// FeedOptions parameterizes the ranked, holdings-gated feed read.
type FeedOptions struct {
	Limit    int
	From     time.Time
	To       time.Time
	Sources  []string
	MinScore float64
	Holdings []news.Holding
}
