package holdings

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHoldingsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "holdings.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write holdings file: %v", err)
	}
	return path
}

func TestCache_Run(t *testing.T) {
	path := writeHoldingsFile(t, `holdings:
  - ticker: AAPL
    label: Apple Inc
    notes: iPhone services
  - ticker: MSFT
    label: Microsoft
`)

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cache.Count() != 2 {
		t.Fatalf("Expected 2 holdings, got %d", cache.Count())
	}

	holdings := cache.GetHoldings()
	if holdings[0].Ticker != "AAPL" {
		t.Errorf("Expected ticker 'AAPL', got '%s'", holdings[0].Ticker)
	}
	if holdings[0].Label != "Apple Inc" {
		t.Errorf("Expected label 'Apple Inc', got '%s'", holdings[0].Label)
	}
	if holdings[0].Notes != "iPhone services" {
		t.Errorf("Expected notes preserved, got '%s'", holdings[0].Notes)
	}
	if holdings[1].Ticker != "MSFT" {
		t.Errorf("Expected ticker 'MSFT', got '%s'", holdings[1].Ticker)
	}
}

func TestCache_Run_MissingFileIsNotAnError(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "does-not-exist.yml"))

	if err := cache.Run(); err != nil {
		t.Fatalf("Expected missing file to be tolerated, got: %v", err)
	}
	if cache.Count() != 0 {
		t.Errorf("Expected 0 holdings, got %d", cache.Count())
	}
}

func TestCache_Reload_SkipsEntriesWithoutTicker(t *testing.T) {
	path := writeHoldingsFile(t, `holdings:
  - ticker: AAPL
  - label: Mystery Position
  - ticker: "  "
`)

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cache.Count() != 1 {
		t.Errorf("Expected 1 valid holding, got %d", cache.Count())
	}
}

func TestCache_Reload_InvalidYAML(t *testing.T) {
	path := writeHoldingsFile(t, "holdings: [unclosed")

	cache := NewCache(path)
	if err := cache.Run(); err == nil {
		t.Error("Expected parse error for invalid YAML")
	}
}

func TestCache_GetHoldingsReturnsCopy(t *testing.T) {
	path := writeHoldingsFile(t, `holdings:
  - ticker: AAPL
`)

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	holdings := cache.GetHoldings()
	holdings[0].Ticker = "MUTATED"

	if cache.GetHoldings()[0].Ticker != "AAPL" {
		t.Error("Expected cached holdings to be unaffected by caller mutation")
	}
}
