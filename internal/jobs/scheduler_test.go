package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

type blockingJob struct {
	runs    atomic.Int32
	once    sync.Once
	started chan struct{}
}

func (j *blockingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	j.once.Do(func() { close(j.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestScheduler_FailingJobKeepsRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for real ticks")
	}

	s := NewScheduler(zap.NewNop())
	job := &countingJob{err: errors.New("scrape failed")}
	s.Every("scrape", time.Second, job)
	s.Start()
	defer s.Stop(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for job.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if job.runs.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", job.runs.Load())
	}
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for real ticks")
	}

	s := NewScheduler(zap.NewNop())
	job := &blockingJob{started: make(chan struct{})}
	s.Every("retention", time.Second, job)
	s.Start()

	select {
	case <-job.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}

func TestScheduler_SkipsTickWhileJobStillRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for real ticks")
	}

	s := NewScheduler(zap.NewNop())
	job := &blockingJob{started: make(chan struct{})}
	s.Every("scrape", time.Second, job)
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-job.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	// At least two more ticks fire while the first run is still blocked.
	time.Sleep(2500 * time.Millisecond)
	if n := job.runs.Load(); n != 1 {
		t.Fatalf("expected overlapping ticks to be skipped, got %d runs", n)
	}
}
