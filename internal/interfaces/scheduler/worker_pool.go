package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultJobTimeout = 5 * time.Minute

var (
	jobTracer          = otel.Tracer("budgetmint/scheduler")
	jobMeter           = otel.Meter("budgetmint/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

var (
	ErrQueueFull  = errors.New("job queue full")
	ErrPoolClosed = errors.New("worker pool closed")
)

// WorkerPool runs submitted jobs on a fixed number of goroutines.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobTimeout  time.Duration
	jobs        chan Job
	logger      logrus.FieldLogger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool. jobDelay is slept by a worker after every
// job to stay under upstream rate limits.
func NewWorkerPool(workerCount int, jobDelay, jobTimeout time.Duration, queueSize int, logger logrus.FieldLogger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		jobDelay:    jobDelay,
		jobTimeout:  jobTimeout,
		jobs:        make(chan Job, queueSize),
		logger:      logger.WithField("component", "worker_pool"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (wp *WorkerPool) Start() {
	wp.logger.WithField("workers", wp.workerCount).Info("starting worker pool")

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.logger.WithField("worker", id)

	for {
		select {
		case <-wp.ctx.Done():
			log.Debug("worker shutting down")
			return

		case job, ok := <-wp.jobs:
			if !ok {
				log.Debug("job channel closed")
				return
			}

			wp.processJob(id, job)

			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					return
				}
			}
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job Job) {
	log := wp.logger.WithFields(logrus.Fields{
		"worker":  workerID,
		"job":     job.Description(),
		"user_id": job.UserID(),
	})

	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
			attribute.String("job.user_id", job.UserID()),
		),
	)
	defer span.End()

	start := time.Now()
	err := job.Execute(ctx)
	jobDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		log.WithError(err).Error("job failed")
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("job completed")
}

// Submit queues a job without blocking. A full queue drops the job.
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, job.Description())
	}
}

// SubmitBatch queues jobs and returns how many were accepted.
func (wp *WorkerPool) SubmitBatch(jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			wp.logger.WithError(err).WithField("user_id", job.UserID()).Warn("failed to submit job")
			continue
		}
		submitted++
	}
	wp.logger.WithFields(logrus.Fields{"submitted": submitted, "total": len(jobs)}).Info("submitted jobs to worker pool")
	return submitted
}

func (wp *WorkerPool) close() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return false
	}
	wp.closed = true
	close(wp.jobs)
	return true
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	if !wp.close() {
		return
	}
	wp.wg.Wait()
	wp.cancel()
	wp.logger.Info("worker pool stopped")
}

// ShutdownWithTimeout is Shutdown, but cancels running jobs once timeout elapses.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	if !wp.close() {
		return
	}

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info("all workers finished")
	case <-time.After(timeout):
		wp.logger.Warn("shutdown timeout reached, cancelling running jobs")
		wp.cancel()
		<-done
	}
	wp.cancel()
	wp.logger.Info("worker pool stopped")
}
