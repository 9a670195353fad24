package fetch

import (
	"context"
	"strings"
	"sync"

	"github.com/marketbrief/marketbrief/app/news"
)

// FetchForHoldings runs one orchestrated fetch per holding concurrently,
// tags every result with the holding's ticker and merges all per-holding
// lists with context-preserving deduplication, so an article surfaced by
// two tickers carries both.
func (o *Orchestrator) FetchForHoldings(ctx context.Context, holdings []news.Holding, opts news.FetchOptions) []news.Article {
	results := make([][]news.Article, len(holdings))
	var wg sync.WaitGroup

	for i, holding := range holdings {
		ticker := strings.ToUpper(strings.TrimSpace(holding.Ticker))
		if ticker == "" {
			continue
		}

		wg.Add(1)
		go func(i int, holding news.Holding, ticker string) {
			defer wg.Done()

			subOpts := opts
			subOpts.SearchedBy = ticker

			articles := o.FetchMerged(ctx, BuildHoldingQuery(holding), subOpts)

			// This call is ticker-scoped: overwrite whatever the
			// orchestrator or adapters set.
			for j := range articles {
				articles[j].SearchedBy = ticker
			}

			results[i] = articles
		}(i, holding, ticker)
	}

	wg.Wait()

	var combined []news.Article
	for _, batch := range results {
		combined = append(combined, batch...)
	}

	merged := news.DeduplicateWithContext(combined)
	news.SortByPublishedAtDesc(merged)

	return merged
}

// BuildHoldingQuery turns a holding into a provider search query:
// "TICKER [OR label] [OR notes words]". Notes contribute only when they
// split into one to three whitespace tokens each longer than three
// characters; anything else would pollute the query.
func BuildHoldingQuery(holding news.Holding) string {
	parts := []string{strings.ToUpper(strings.TrimSpace(holding.Ticker))}

	if label := strings.TrimSpace(holding.Label); label != "" {
		parts = append(parts, label)
	}

	if tokens := noteTokens(holding.Notes); len(tokens) > 0 {
		parts = append(parts, strings.Join(tokens, " "))
	}

	return strings.Join(parts, " OR ")
}

func noteTokens(notes string) []string {
	tokens := strings.Fields(notes)
	if len(tokens) == 0 || len(tokens) > 3 {
		return nil
	}
	for _, token := range tokens {
		if len(token) <= 3 {
			return nil
		}
	}
	return tokens
}
