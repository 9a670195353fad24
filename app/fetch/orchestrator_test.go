package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/news"
	"github.com/marketbrief/marketbrief/app/providers"
)

// stubProvider returns a canned article list and records the queries it saw.
type stubProvider struct {
	tag      string
	articles []news.Article
	called   bool
}

func (p *stubProvider) Tag() string { return p.tag }

func (p *stubProvider) Fetch(ctx context.Context, query string, opts news.FetchOptions) []news.Article {
	p.called = true

	out := make([]news.Article, len(p.articles))
	copy(out, p.articles)
	return out
}

type stubStore struct {
	batches    [][]news.Article
	searchedBy []string
	err        error
}

func (s *stubStore) UpsertArticles(articles []news.Article, searchedBy string) (database.UpsertResult, error) {
	s.batches = append(s.batches, articles)
	s.searchedBy = append(s.searchedBy, searchedBy)
	if s.err != nil {
		return database.UpsertResult{}, s.err
	}
	return database.UpsertResult{Saved: len(articles)}, nil
}

func TestFetchMerged_CombinesAndDeduplicates(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/shared", Title: "From NewsAPI", PublishedAt: base.Add(-1 * time.Hour)},
		{URL: "https://example.com/unique-a", Title: "Only NewsAPI", PublishedAt: base},
	}}
	second := &stubProvider{tag: "marketaux", articles: []news.Article{
		{URL: "https://example.com/shared", Title: "From Marketaux", PublishedAt: base.Add(-1 * time.Hour)},
		{URL: "https://example.com/unique-b", Title: "Only Marketaux", PublishedAt: base.Add(-2 * time.Hour)},
	}}

	orchestrator := NewOrchestrator([]providers.Provider{first, second}, nil)
	result := orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{})

	if len(result) != 3 {
		t.Fatalf("Expected 3 articles after deduplication, got %d", len(result))
	}

	// The shared URL must collapse to the earliest provider in declared order.
	for _, article := range result {
		if article.URL == "https://example.com/shared" && article.Title != "From NewsAPI" {
			t.Errorf("Expected declared provider order to win duplicates, got '%s'", article.Title)
		}
	}

	// Results are sorted newest first.
	if result[0].URL != "https://example.com/unique-a" {
		t.Errorf("Expected newest article first, got '%s'", result[0].URL)
	}
	if result[2].URL != "https://example.com/unique-b" {
		t.Errorf("Expected oldest article last, got '%s'", result[2].URL)
	}
}

func TestFetchMerged_StampsFeedSource(t *testing.T) {
	provider := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/a", Title: "Untagged"},
		{URL: "https://example.com/b", Title: "Pretagged", FeedSource: "custom"},
	}}

	orchestrator := NewOrchestrator([]providers.Provider{provider}, nil)
	result := orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{})

	if len(result) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result))
	}
	for _, article := range result {
		switch article.URL {
		case "https://example.com/a":
			if article.FeedSource != "newsapi" {
				t.Errorf("Expected feed source stamped with provider tag, got '%s'", article.FeedSource)
			}
		case "https://example.com/b":
			if article.FeedSource != "custom" {
				t.Errorf("Expected adapter-set feed source preserved, got '%s'", article.FeedSource)
			}
		}
	}
}

func TestFetchMerged_SourceFiltering(t *testing.T) {
	first := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/a", Title: "A"},
	}}
	second := &stubProvider{tag: "marketaux", articles: []news.Article{
		{URL: "https://example.com/b", Title: "B"},
	}}

	orchestrator := NewOrchestrator([]providers.Provider{first, second}, nil)
	result := orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{
		Sources: []string{"marketaux"},
	})

	if first.called {
		t.Error("Expected filtered-out provider to be skipped")
	}
	if !second.called {
		t.Error("Expected requested provider to be queried")
	}
	if len(result) != 1 || result[0].URL != "https://example.com/b" {
		t.Fatalf("Expected only marketaux results, got %d articles", len(result))
	}
}

func TestFetchMerged_SourceFilteringCommaSeparated(t *testing.T) {
	first := &stubProvider{tag: "newsapi"}
	second := &stubProvider{tag: "marketaux"}
	third := &stubProvider{tag: "googlenews"}

	orchestrator := NewOrchestrator([]providers.Provider{first, second, third}, nil)
	orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{
		Sources: []string{"newsapi, googlenews"},
	})

	if !first.called || !third.called {
		t.Error("Expected both comma-separated sources to be queried")
	}
	if second.called {
		t.Error("Expected unlisted provider to be skipped")
	}
}

func TestFetchMerged_PersistsBatch(t *testing.T) {
	provider := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/a", Title: "A"},
	}}
	store := &stubStore{}

	orchestrator := NewOrchestrator([]providers.Provider{provider}, store)
	orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{SearchedBy: "AAPL"})

	if len(store.batches) != 1 {
		t.Fatalf("Expected 1 persisted batch, got %d", len(store.batches))
	}
	if len(store.batches[0]) != 1 {
		t.Errorf("Expected 1 article in batch, got %d", len(store.batches[0]))
	}
	if store.searchedBy[0] != "AAPL" {
		t.Errorf("Expected searched_by context forwarded, got '%s'", store.searchedBy[0])
	}
}

func TestFetchMerged_PersistenceFailureIsSwallowed(t *testing.T) {
	provider := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/a", Title: "A"},
	}}
	store := &stubStore{err: errors.New("disk full")}

	orchestrator := NewOrchestrator([]providers.Provider{provider}, store)
	result := orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{})

	if len(result) != 1 {
		t.Fatalf("Expected fetched batch returned despite persistence failure, got %d articles", len(result))
	}
}

func TestFetchMerged_NoProviders(t *testing.T) {
	store := &stubStore{}
	orchestrator := NewOrchestrator(nil, store)

	result := orchestrator.FetchMerged(context.Background(), "apple", news.FetchOptions{})

	if len(result) != 0 {
		t.Errorf("Expected empty result, got %d articles", len(result))
	}
	if len(store.batches) != 0 {
		t.Errorf("Expected no persistence calls for empty batch, got %d", len(store.batches))
	}
}
