package news

import (
	"testing"
	"time"
)

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	articles := []Article{
		{URL: "https://example.com/a", Title: "Original"},
		{URL: "https://example.com/b", Title: "Other"},
		{URL: "https://example.com/a", Title: "Duplicate"},
	}

	result := Deduplicate(articles)

	if len(result) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result))
	}
	if result[0].Title != "Original" {
		t.Errorf("Expected first occurrence to win, got title '%s'", result[0].Title)
	}
	if result[1].URL != "https://example.com/b" {
		t.Errorf("Expected original order preserved, got URL '%s'", result[1].URL)
	}
}

func TestDeduplicate_DropsEmptyURLs(t *testing.T) {
	articles := []Article{
		{URL: "", Title: "No URL"},
		{URL: "https://example.com/a", Title: "Has URL"},
		{URL: "", Title: "Also no URL"},
	}

	result := Deduplicate(articles)

	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if result[0].Title != "Has URL" {
		t.Errorf("Expected article with URL to survive, got '%s'", result[0].Title)
	}
}

func TestDeduplicate_EmptyInput(t *testing.T) {
	if result := Deduplicate(nil); len(result) != 0 {
		t.Errorf("Expected empty result for nil input, got %d articles", len(result))
	}
	if result := Deduplicate([]Article{}); len(result) != 0 {
		t.Errorf("Expected empty result for empty input, got %d articles", len(result))
	}
}

func TestDeduplicateWithContext_MergesSearchedBy(t *testing.T) {
	articles := []Article{
		{URL: "https://example.com/a", Title: "First", SearchedBy: "X"},
		{URL: "https://example.com/a", Title: "Second", SearchedBy: "Y"},
		{URL: "https://example.com/b", Title: "Third", SearchedBy: "Z"},
	}

	result := DeduplicateWithContext(articles)

	if len(result) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result))
	}
	if result[0].SearchedBy != "X,Y" {
		t.Errorf("Expected merged searched_by 'X,Y', got '%s'", result[0].SearchedBy)
	}
	if result[0].Title != "First" {
		t.Errorf("Expected first occurrence fields retained, got title '%s'", result[0].Title)
	}
	if result[1].SearchedBy != "Z" {
		t.Errorf("Expected 'Z', got '%s'", result[1].SearchedBy)
	}
}

func TestDeduplicateWithContext_SameTickerNotRepeated(t *testing.T) {
	articles := []Article{
		{URL: "https://example.com/a", SearchedBy: "AAPL"},
		{URL: "https://example.com/a", SearchedBy: "AAPL"},
	}

	result := DeduplicateWithContext(articles)

	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if result[0].SearchedBy != "AAPL" {
		t.Errorf("Expected 'AAPL' without duplication, got '%s'", result[0].SearchedBy)
	}
}

func TestMergeSearchedBy(t *testing.T) {
	if got := MergeSearchedBy("", "AAPL"); got != "AAPL" {
		t.Errorf("Expected 'AAPL', got '%s'", got)
	}
	if got := MergeSearchedBy("AAPL", ""); got != "AAPL" {
		t.Errorf("Expected 'AAPL', got '%s'", got)
	}
	if got := MergeSearchedBy("AAPL", "MSFT"); got != "AAPL,MSFT" {
		t.Errorf("Expected 'AAPL,MSFT', got '%s'", got)
	}
	if got := MergeSearchedBy("AAPL,MSFT", "AAPL"); got != "AAPL,MSFT" {
		t.Errorf("Expected existing value unchanged, got '%s'", got)
	}
	if got := MergeSearchedBy("AAPL", "  MSFT  "); got != "AAPL,MSFT" {
		t.Errorf("Expected incoming value trimmed, got '%s'", got)
	}
}

func TestSortByPublishedAtDesc(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	articles := []Article{
		{URL: "a", PublishedAt: base.Add(-2 * time.Hour)},
		{URL: "b", PublishedAt: base},
		{URL: "c", PublishedAt: base.Add(-1 * time.Hour)},
	}

	SortByPublishedAtDesc(articles)

	if articles[0].URL != "b" || articles[1].URL != "c" || articles[2].URL != "a" {
		t.Errorf("Expected order b, c, a, got %s, %s, %s", articles[0].URL, articles[1].URL, articles[2].URL)
	}
}

func TestSortByPublishedAtDesc_StableOnTies(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	articles := []Article{
		{URL: "first", PublishedAt: ts},
		{URL: "second", PublishedAt: ts},
	}

	SortByPublishedAtDesc(articles)

	if articles[0].URL != "first" {
		t.Errorf("Expected tie to preserve original order, got '%s' first", articles[0].URL)
	}
}
