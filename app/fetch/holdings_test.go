package fetch

import (
	"context"
	"testing"

	"github.com/marketbrief/marketbrief/app/news"
	"github.com/marketbrief/marketbrief/app/providers"
)

func TestBuildHoldingQuery_TickerOnly(t *testing.T) {
	got := BuildHoldingQuery(news.Holding{Ticker: "aapl"})
	if got != "AAPL" {
		t.Errorf("Expected 'AAPL', got '%s'", got)
	}
}

func TestBuildHoldingQuery_WithLabel(t *testing.T) {
	got := BuildHoldingQuery(news.Holding{Ticker: "AAPL", Label: "Apple Inc"})
	if got != "AAPL OR Apple Inc" {
		t.Errorf("Expected 'AAPL OR Apple Inc', got '%s'", got)
	}
}

func TestBuildHoldingQuery_WithNotes(t *testing.T) {
	got := BuildHoldingQuery(news.Holding{Ticker: "AAPL", Label: "Apple Inc", Notes: "iPhone services"})
	if got != "AAPL OR Apple Inc OR iPhone services" {
		t.Errorf("Expected notes appended, got '%s'", got)
	}
}

func TestBuildHoldingQuery_NotesRejected(t *testing.T) {
	// Too many tokens.
	got := BuildHoldingQuery(news.Holding{Ticker: "AAPL", Notes: "one two three four"})
	if got != "AAPL" {
		t.Errorf("Expected notes with more than 3 tokens dropped, got '%s'", got)
	}

	// Short tokens.
	got = BuildHoldingQuery(news.Holding{Ticker: "AAPL", Notes: "buy the dip"})
	if got != "AAPL" {
		t.Errorf("Expected notes with short tokens dropped, got '%s'", got)
	}

	// Empty notes.
	got = BuildHoldingQuery(news.Holding{Ticker: "AAPL", Notes: "   "})
	if got != "AAPL" {
		t.Errorf("Expected empty notes ignored, got '%s'", got)
	}
}

func TestFetchForHoldings_TagsAndMerges(t *testing.T) {
	provider := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/shared", Title: "Shared"},
	}}

	orchestrator := NewOrchestrator([]providers.Provider{provider}, nil)
	holdings := []news.Holding{
		{Ticker: "AAPL"},
		{Ticker: "MSFT"},
	}

	result := orchestrator.FetchForHoldings(context.Background(), holdings, news.FetchOptions{})

	if len(result) != 1 {
		t.Fatalf("Expected shared article merged into one record, got %d", len(result))
	}
	if result[0].SearchedBy != "AAPL,MSFT" {
		t.Errorf("Expected searched_by 'AAPL,MSFT', got '%s'", result[0].SearchedBy)
	}
}

func TestFetchForHoldings_SkipsEmptyTickers(t *testing.T) {
	provider := &stubProvider{tag: "newsapi", articles: []news.Article{
		{URL: "https://example.com/a", Title: "A"},
	}}

	orchestrator := NewOrchestrator([]providers.Provider{provider}, nil)
	holdings := []news.Holding{
		{Ticker: "   "},
		{Ticker: "msft"},
	}

	result := orchestrator.FetchForHoldings(context.Background(), holdings, news.FetchOptions{})

	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if result[0].SearchedBy != "MSFT" {
		t.Errorf("Expected ticker uppercased to 'MSFT', got '%s'", result[0].SearchedBy)
	}
}

func TestFetchForHoldings_NoHoldings(t *testing.T) {
	orchestrator := NewOrchestrator(nil, nil)

	result := orchestrator.FetchForHoldings(context.Background(), nil, news.FetchOptions{})

	if len(result) != 0 {
		t.Errorf("Expected empty result, got %d articles", len(result))
	}
}
