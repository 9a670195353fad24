package api

import (
	"time"

	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/fetch"
	"github.com/marketbrief/marketbrief/app/holdings"
	"github.com/marketbrief/marketbrief/app/tasks"
)

type Handler struct {
	articleRepo   database.ArticleRepository
	holdingsCache *holdings.Cache
	orchestrator  *fetch.Orchestrator
	scheduler     tasks.TaskSchedulerInterface
	maxArticles   int
}

// articleResponse is the JSON shape served to consumers.
type articleResponse struct {
	URL         string `json:"url"`
	SourceID    string `json:"sourceId,omitempty"`
	SourceName  string `json:"sourceName,omitempty"`
	FeedSource  string `json:"feedSource,omitempty"`
	SearchedBy  string `json:"searchedBy,omitempty"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URLToImage  string `json:"urlToImage,omitempty"`
	PublishedAt string `json:"publishedAt"`
	ScrapeCount int    `json:"scrapeCount"`

	Summary            string             `json:"summary,omitempty"`
	WhyItMatters       string             `json:"whyItMatters,omitempty"`
	PersonalizedTeaser string             `json:"personalizedTeaser,omitempty"`
	RelevanceScores    map[string]float64 `json:"relevanceScores,omitempty"`

	ShouldEnrich *bool    `json:"shouldEnrich,omitempty"`
	TriageReason string   `json:"triageReason,omitempty"`
	TriageScore  *float64 `json:"triageScore,omitempty"`

	Status               string   `json:"status,omitempty"`
	ProfileAdjustedScore *float64 `json:"profileAdjustedScore,omitempty"`
	FinalRankScore       *float64 `json:"finalRankScore,omitempty"`
	EventType            string   `json:"eventType,omitempty"`
	SentimentLabel       string   `json:"sentimentLabel,omitempty"`
	MatchedTickers       []string `json:"matchedTickers,omitempty"`
}

func toArticleResponse(a database.Article) articleResponse {
	return articleResponse{
		URL:         a.URL,
		SourceID:    a.Source.ID,
		SourceName:  a.Source.Name,
		FeedSource:  a.FeedSource,
		SearchedBy:  a.SearchedBy,
		Author:      a.Author,
		Title:       a.Title,
		Description: a.Description,
		URLToImage:  a.URLToImage,
		PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
		ScrapeCount: a.ScrapeCount,

		Summary:            a.Summary,
		WhyItMatters:       a.WhyItMatters,
		PersonalizedTeaser: a.PersonalizedTeaser,
		RelevanceScores:    a.RelevanceScores,

		ShouldEnrich: a.ShouldEnrich,
		TriageReason: a.TriageReason,
		TriageScore:  a.TriageScore,

		Status:               a.Status,
		ProfileAdjustedScore: a.ProfileAdjustedScore,
		FinalRankScore:       a.FinalRankScore,
		EventType:            a.EventType,
		SentimentLabel:       a.SentimentLabel,
		MatchedTickers:       a.MatchedTickers,
	}
}

func toArticleResponses(articles []database.Article) []articleResponse {
	responses := make([]articleResponse, 0, len(articles))
	for _, article := range articles {
		responses = append(responses, toArticleResponse(article))
	}
	return responses
}
