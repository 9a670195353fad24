package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/marketbrief/marketbrief/app/cfg"
	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/fetch"
	"github.com/marketbrief/marketbrief/app/holdings"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const cleanupInterval = 24 * time.Hour

type Scheduler struct {
	holdingsCache *holdings.Cache
	orchestrator  *fetch.Orchestrator
	articleRepo   database.ArticleRepository
	httpClient    *http.Client
	userAgent     string
	maxArticles   int
	retentionDays int

	interval        time.Duration
	refreshInterval time.Duration
	workerCount     int

	nextRefreshAt time.Time
	nextCleanupAt time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(holdingsCache *holdings.Cache, orchestrator *fetch.Orchestrator,
	articleRepo database.ArticleRepository, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		holdingsCache:   holdingsCache,
		orchestrator:    orchestrator,
		articleRepo:     articleRepo,
		httpClient:      httpClient,
		userAgent:       cfg.UserAgent,
		maxArticles:     cfg.MaxArticles,
		retentionDays:   cfg.RetentionDays,
		interval:        time.Duration(cfg.SchedulerInterval) * time.Second,
		refreshInterval: time.Duration(cfg.RefreshInterval) * time.Second,
		workerCount:     cfg.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	now := time.Now().UTC()
	s.nextRefreshAt = now.Add(s.refreshInterval)
	s.nextCleanupAt = now.Add(cleanupInterval)

	if s.holdingsCache.Count() == 0 {
		slog.Debug("No holdings configured, skipping startup refresh")
		return
	}

	refreshTask := NewRefreshHoldingsTask(s.holdingsCache, s.orchestrator, s.maxArticles)
	if err := s.EnqueueTask(refreshTask); err != nil {
		slog.Warn("Failed to enqueue RefreshHoldingsTask", "error", err)
	}
}

func (s *Scheduler) enqueueDueTasks() {
	now := time.Now().UTC()

	if !now.Before(s.nextRefreshAt) {
		s.nextRefreshAt = now.Add(s.refreshInterval)

		if s.holdingsCache.Count() > 0 {
			refreshTask := NewRefreshHoldingsTask(s.holdingsCache, s.orchestrator, s.maxArticles)
			if err := s.EnqueueTask(refreshTask); err != nil {
				slog.Warn("Failed to enqueue RefreshHoldingsTask", "error", err)
			}

			extractTask := NewExtractContentTask(s.httpClient, s.articleRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
			}
		} else {
			slog.Debug("No holdings configured, skipping refresh")
		}
	}

	if !now.Before(s.nextCleanupAt) {
		s.nextCleanupAt = now.Add(cleanupInterval)

		cleanupTask := NewCleanupTask(s.articleRepo, s.retentionDays)
		if err := s.EnqueueTask(cleanupTask); err != nil {
			slog.Warn("Failed to enqueue CleanupTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// The retrier joins the WaitGroup so Stop cannot close the task
			// queue while a woken retry is still enqueueing.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-time.After(retryDelay):
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
