package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/marketbrief/marketbrief/app/holdings"
)

type failingTask struct {
	Task
}

func (t *failingTask) Execute(ctx context.Context) error {
	return errors.New("task failed")
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		holdingsCache:   holdings.NewCache(filepath.Join(t.TempDir(), "missing.yml")),
		workerCount:     2,
		interval:        time.Hour,
		refreshInterval: time.Hour,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 10),
	}
}

func TestScheduler_EnqueueTask(t *testing.T) {
	s := newTestScheduler(t)

	task := &failingTask{Task: NewTask(TaskTypeCleanup, "articles")}
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	if len(s.taskQueue) != 1 {
		t.Errorf("Expected 1 queued task, got %d", len(s.taskQueue))
	}
}

func TestScheduler_EnqueueTask_QueueFull(t *testing.T) {
	s := newTestScheduler(t)
	s.taskQueue = make(chan TaskInterface, 1)

	first := &failingTask{Task: NewTask(TaskTypeCleanup, "articles")}
	if err := s.EnqueueTask(first); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	second := &failingTask{Task: NewTask(TaskTypeCleanup, "articles")}
	if err := s.EnqueueTask(second); err == nil {
		t.Error("Expected error when queue is full")
	}
}

func TestScheduler_StopWaitsForRetrier(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()

	// A failing task schedules a retry sleeper; Stop must wait it out
	// before closing the task queue instead of racing its enqueue.
	task := &failingTask{Task: NewTask(TaskTypeCleanup, "articles")}
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return, retrier is not tracked")
	}
}
