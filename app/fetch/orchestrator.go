package fetch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/news"
	"github.com/marketbrief/marketbrief/app/providers"
)

// ArticleStore is the slice of the persistence layer the orchestrator
// needs: best-effort batch persistence of fetched articles.
type ArticleStore interface {
	UpsertArticles(articles []news.Article, searchedBy string) (database.UpsertResult, error)
}

// Orchestrator fans a query out to the enabled provider adapters in
// parallel, merges and deduplicates their results and persists the batch.
type Orchestrator struct {
	// providers are consulted in declared order: cross-provider duplicates
	// collapse to the earliest provider in this list, not to whichever
	// response arrived first.
	providers []providers.Provider
	store     ArticleStore
}

func NewOrchestrator(providerList []providers.Provider, store ArticleStore) *Orchestrator {
	return &Orchestrator{
		providers: providerList,
		store:     store,
	}
}

// FetchMerged queries all enabled providers concurrently, deduplicates the
// combined results by URL, persists the batch best-effort and returns it
// sorted by publish date descending. A persistence failure is logged and
// swallowed: the caller still receives the fetched batch.
func (o *Orchestrator) FetchMerged(ctx context.Context, query string, opts news.FetchOptions) []news.Article {
	enabled := normalizeSources(opts.Sources)

	results := make([][]news.Article, len(o.providers))
	var wg sync.WaitGroup

	for i, provider := range o.providers {
		if len(enabled) > 0 {
			if _, ok := enabled[provider.Tag()]; !ok {
				continue
			}
		}

		wg.Add(1)
		go func(i int, provider providers.Provider) {
			defer wg.Done()
			results[i] = provider.Fetch(ctx, query, opts)
		}(i, provider)
	}

	wg.Wait()

	var combined []news.Article
	for i := range results {
		for j := range results[i] {
			if results[i][j].FeedSource == "" {
				results[i][j].FeedSource = o.providers[i].Tag()
			}
		}
		combined = append(combined, results[i]...)
	}

	merged := news.Deduplicate(combined)

	if o.store != nil && len(merged) > 0 {
		result, err := o.store.UpsertArticles(merged, opts.SearchedBy)
		if err != nil {
			slog.Error("Failed to persist fetched articles", "query", query, "count", len(merged), "error", err)
		} else {
			slog.Debug("Persisted fetched articles", "query", query, "saved", result.Saved, "skipped", result.Skipped)
		}
	}

	news.SortByPublishedAtDesc(merged)

	return merged
}

// normalizeSources turns the sources option (absent, list, or
// comma-separated elements) into a lowercase tag set.
func normalizeSources(sources []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, entry := range sources {
		for _, tag := range strings.Split(entry, ",") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	return set
}
