package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marketbrief/marketbrief/app/database"
)

type CleanupTask struct {
	Task
	articleRepo   database.ArticleRepository
	retentionDays int
}

func NewCleanupTask(articleRepo database.ArticleRepository, retentionDays int) *CleanupTask {
	return &CleanupTask{
		Task:          NewTask(TaskTypeCleanup, "articles"),
		articleRepo:   articleRepo,
		retentionDays: retentionDays,
	}
}

func (t *CleanupTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.articleRepo.DeleteOlderThan(t.retentionDays)
	if err != nil {
		return fmt.Errorf("failed to delete old articles: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"retention_days", t.retentionDays,
		"deleted", deleted)

	return nil
}
