package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const jobProviderTimeout = 5 * time.Minute

// ScheduleTime is a time of day at which every item is synced.
type ScheduleTime struct {
	Hour   int
	Minute int
}

func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses HH:MM.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}
	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// JobProvider lists the jobs for one scheduled run.
type JobProvider func(ctx context.Context) ([]Job, error)

type Config struct {
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	JobTimeout    time.Duration
	QueueSize     int
	RunOnStartup  bool
	JobProvider   JobProvider
}

// Scheduler submits the provider's jobs at fixed times of day and accepts
// ad-hoc jobs through Submit.
type Scheduler struct {
	workerPool    *WorkerPool
	scheduleTimes []ScheduleTime
	runOnStartup  bool
	jobProvider   JobProvider
	logger        logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	lastRun string
}

func NewScheduler(cfg Config, logger logrus.FieldLogger) (*Scheduler, error) {
	scheduleTimes := make([]ScheduleTime, 0, len(cfg.ScheduleTimes))
	for _, s := range cfg.ScheduleTimes {
		st, err := ParseScheduleTime(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", s, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}
	if len(scheduleTimes) == 0 {
		return nil, errors.New("at least one schedule time is required")
	}
	if cfg.JobProvider == nil {
		return nil, errors.New("job provider is required")
	}

	logger = logger.WithField("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		workerPool:    NewWorkerPool(cfg.WorkerCount, cfg.JobDelay, cfg.JobTimeout, cfg.QueueSize, logger),
		scheduleTimes: scheduleTimes,
		runOnStartup:  cfg.RunOnStartup,
		jobProvider:   cfg.JobProvider,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func (s *Scheduler) Start() {
	s.workerPool.Start()

	if s.runOnStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJobs()
		}()
	}

	s.wg.Add(1)
	go s.scheduleLoop()

	s.logger.WithFields(logrus.Fields{
		"times":    s.scheduleTimes,
		"next_run": s.NextRun(time.Now()).Format(time.RFC3339),
	}).Info("scheduler started")
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.logger.WithField("at", now.Format("15:04")).Info("scheduled run triggered")
				s.runJobs()
			}
		}
	}
}

// shouldRun reports whether now falls on a schedule time not yet run today.
func (s *Scheduler) shouldRun(now time.Time) bool {
	key := now.Format("2006-01-02-15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == key {
		return false
	}
	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRun = key
			return true
		}
	}
	return false
}

func (s *Scheduler) runJobs() {
	ctx, cancel := context.WithTimeout(s.ctx, jobProviderTimeout)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list jobs")
		return
	}
	if len(jobs) == 0 {
		s.logger.Info("no jobs to process")
		return
	}
	s.workerPool.SubmitBatch(jobs)
}

// Submit queues one job outside the schedule.
func (s *Scheduler) Submit(job Job) error {
	return s.workerPool.Submit(job)
}

// TriggerNow starts a full run immediately.
func (s *Scheduler) TriggerNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJobs()
	}()
}

// Shutdown stops the schedule and drains the worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)
	s.logger.Info("scheduler stopped")
}

// NextRun returns the first schedule time after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	var next time.Time
	for _, st := range s.scheduleTimes {
		t := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}
