package tasks

import (
	"context"
	"log/slog"

	"github.com/marketbrief/marketbrief/app/fetch"
	"github.com/marketbrief/marketbrief/app/holdings"
	"github.com/marketbrief/marketbrief/app/news"
)

type RefreshHoldingsTask struct {
	Task
	holdingsCache *holdings.Cache
	orchestrator  *fetch.Orchestrator
	maxArticles   int
}

func NewRefreshHoldingsTask(holdingsCache *holdings.Cache, orchestrator *fetch.Orchestrator, maxArticles int) *RefreshHoldingsTask {
	return &RefreshHoldingsTask{
		Task:          NewTask(TaskTypeRefreshHoldings, "holdings"),
		holdingsCache: holdingsCache,
		orchestrator:  orchestrator,
		maxArticles:   maxArticles,
	}
}

func (t *RefreshHoldingsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tracked := t.holdingsCache.GetHoldings()
	if len(tracked) == 0 {
		slog.Debug("No holdings configured, skipping refresh")
		return nil
	}

	articles := t.orchestrator.FetchForHoldings(ctx, tracked, news.FetchOptions{
		MaxArticles: t.maxArticles,
	})

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"holdings", len(tracked),
		"articles", len(articles))

	return nil
}
