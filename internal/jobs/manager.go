package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nodemonitor/pkg/logger"

	"github.com/google/uuid"
)

// Job represents a periodic background task.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Locker is the subset of a distributed lock the manager needs.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// ExclusiveJob runs on one replica at a time. A tick whose lock is held
// elsewhere is skipped.
type ExclusiveJob interface {
	Job
	Lock() Locker
}

// RunStats is the outcome of a job's most recent tick.
type RunStats struct {
	Name     string        `json:"name"`
	Runs     int64         `json:"runs"`
	Skipped  int64         `json:"skipped"`
	LastRun  time.Time     `json:"last_run"`
	LastTook time.Duration `json:"last_took"`
	LastErr  string        `json:"last_error,omitempty"`
}

// Manager orchestrates the lifecycle of background jobs.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []Job
	stats   map[string]*RunStats
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a job manager bound to the provided context.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make([]Job, 0),
		stats:  make(map[string]*RunStats),
	}
}

// Register adds a job to the manager.
func (m *Manager) Register(job Job) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	m.stats[job.Name()] = &RunStats{Name: job.Name()}
}

// Start launches all registered jobs. Each job runs once immediately and
// then on every tick of its interval.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, job := range jobs {
		m.wg.Add(1)
		go m.runJob(job)
	}
}

// Stop signals all jobs to stop.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until all jobs exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runJob(job Job) {
	defer m.wg.Done()

	interval := job.Interval()
	if interval <= 0 {
		interval = time.Minute
	}

	m.executeJob(job)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.executeJob(job)
		}
	}
}

// executeJob runs one tick under its own trace id. A panic is logged and
// does not stop the job's schedule.
func (m *Manager) executeJob(job Job) {
	ctx := logger.WithTraceID(m.ctx, job.Name()+"-"+uuid.NewString()[:8])

	if exclusive, ok := job.(ExclusiveJob); ok && exclusive.Lock() != nil {
		l := exclusive.Lock()
		acquired, err := l.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "job %s is running on another instance, skipping this cycle", job.Name())
			m.record(job.Name(), func(s *RunStats) { s.Skipped++ })
			return
		}
		defer func() {
			if err := l.Unlock(context.Background()); err != nil {
				logger.WarnCtx(ctx, "failed to release lock for job %s: %v", job.Name(), err)
			}
		}()
	}

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return job.Run(ctx)
	}()
	took := time.Since(start)

	m.record(job.Name(), func(s *RunStats) {
		s.Runs++
		s.LastRun = start
		s.LastTook = took
		s.LastErr = ""
		if err != nil {
			s.LastErr = err.Error()
		}
	})

	if err != nil {
		logger.WarnCtx(ctx, "background job %s failed: %v", job.Name(), err)
		return
	}
	logger.DebugCtx(ctx, "background job %s finished in %v", job.Name(), took)
}

func (m *Manager) record(name string, fn func(*RunStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[name]; ok {
		fn(s)
	}
}

// Jobs returns the names of registered jobs.
func (m *Manager) Jobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stats returns a snapshot of every job's run counters, in registration order.
func (m *Manager) Stats() []RunStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunStats, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *m.stats[j.Name()])
	}
	return out
}
