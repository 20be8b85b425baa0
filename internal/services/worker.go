package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
)

// IndexJob asks the worker to embed one candidate and store it in the index,
// or to drop it from the index when Remove is set.
type IndexJob struct {
	RoleID    string
	Candidate models.Candidate
	Remove    bool
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(job IndexJob)
	// Processed counts finished jobs, failed ones included.
	Processed() int64
}

type worker struct {
	embedder     Embedder
	index        CandidateIndex
	log          *zap.Logger
	jobQueue     chan IndexJob
	concurrency  int
	maxRetries   int
	initialDelay time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	processed    atomic.Int64
}

func NewWorker(
	embedder Embedder,
	index CandidateIndex,
	concurrency int,
	maxRetries int,
	initialDelay time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		embedder:     embedder,
		index:        index,
		log:          log,
		jobQueue:     make(chan IndexJob, 100),
		concurrency:  concurrency,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting index worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.log.Info("✅ Index worker started")
}

// Stop implements Worker. Jobs still queued are abandoned.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 Stopping index worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("✅ Index worker stopped")
	})
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(job IndexJob) {
	select {
	case w.jobQueue <- job:
		w.log.Debug("📥 Index job enqueued",
			zap.String("role_id", job.RoleID),
			zap.String("candidate_id", job.Candidate.ID))
	case <-w.stopChan:
		w.log.Warn("⚠️ Worker stopped, cannot enqueue index job",
			zap.String("candidate_id", job.Candidate.ID))
	}
}

// Processed implements Worker.
func (w *worker) Processed() int64 { return w.processed.Load() }

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("👷 Worker stopped", zap.Int("worker", workerID))
			return
		case <-ctx.Done():
			return
		case job := <-w.jobQueue:
			if err := w.indexCandidate(ctx, job); err != nil {
				w.log.Error("❌ Failed to index candidate",
					zap.Int("worker", workerID),
					zap.String("candidate_id", job.Candidate.ID),
					zap.Error(err))
			} else {
				w.log.Debug("✅ Candidate indexed",
					zap.Int("worker", workerID),
					zap.String("candidate_id", job.Candidate.ID))
			}
			w.processed.Add(1)
		}
	}
}

func (w *worker) indexCandidate(ctx context.Context, job IndexJob) error {
	if job.Remove {
		return w.index.DeleteCandidate(ctx, job.RoleID, job.Candidate.ID)
	}
	vec, err := w.embedder.GenerateEmbeddingWithRetry(ctx, CandidateText(job.Candidate), w.maxRetries, w.initialDelay)
	if err != nil {
		return err
	}
	return w.index.UpsertCandidate(ctx, job.RoleID, job.Candidate, vec)
}

// EnqueueAll queues every candidate of every role, used by the reindex
// command. Rejected candidates are queued for removal. It returns the number
// of jobs queued.
func EnqueueAll(w Worker, state models.AppState) int {
	n := 0
	for _, role := range state.Roles {
		for _, c := range role.Candidates {
			w.EnqueueJob(IndexJob{RoleID: role.ID, Candidate: c, Remove: c.Status == models.CandidateRejected})
			n++
		}
	}
	return n
}
