package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/handiism/dman/internal/backend"
	"github.com/handiism/dman/internal/config"
	"github.com/handiism/dman/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a scheduling update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	JobID   string
}

// ErrJobNotRunning is returned by Stop for a job that is not running.
var ErrJobNotRunning = errors.New("job is not running")

// Manager schedules download jobs onto backends.
//
// Manager owns three ordered collections: pending, running and finished.
// Every state change happens in Reconcile, which retires finished jobs and
// then admits pending jobs in submission order while fewer than
// MaxConcurrentDownloads are running. Reconcile passes are serialized by a
// mutex; the backends themselves run concurrently.
type Manager struct {
	registry      *backend.Registry
	destination   string
	maxConcurrent int
	history       int
	retryInterval time.Duration

	pending  []*model.Job
	running  []*model.Job
	finished []*model.Job
	stalled  bool

	poke       chan struct{}
	onProgress func(ProgressEvent)
	mu         sync.Mutex
}

// NewManager creates a new Manager using the backends in registry.
//
// onProgress may be nil. It is called with the Manager's lock held and must
// not call back into the Manager.
func NewManager(registry *backend.Registry, settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	maxConcurrent := settings.MaxConcurrentDownloads
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		registry:      registry,
		destination:   settings.DownloadsPath,
		maxConcurrent: maxConcurrent,
		history:       settings.FinishedHistory,
		retryInterval: settings.RetryDuration(),
		poke:          make(chan struct{}, 1),
		onProgress:    onProgress,
	}
}

// Destination returns the directory used when Submit is given none.
func (m *Manager) Destination() string {
	return m.destination
}

// Submit queues url for download into destination, or into the default
// destination when destination is empty, and reconciles. The job is never
// started synchronously by Submit itself; admission is decided by the
// reconciliation pass.
func (m *Manager) Submit(url, destination string) model.JobInfo {
	if destination == "" {
		destination = m.destination
	}
	job := model.NewJob(url, destination)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = append(m.pending, job)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Queued %s", url), Level: LevelInfo, JobID: job.ID})
	m.reconcile()

	return job.Info()
}

// Reconcile retires finished jobs and admits pending ones.
func (m *Manager) Reconcile() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcile()
}

// Run reconciles whenever a backend reports completion, and every retry
// interval so jobs held back by missing backends are retried. It returns
// when ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	var retry <-chan time.Time
	if m.retryInterval > 0 {
		ticker := time.NewTicker(m.retryInterval)
		defer ticker.Stop()
		retry = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.poke:
			m.Reconcile()
		case <-retry:
			m.Reconcile()
		}
	}
}

// Stop asks the backend of a running job to terminate. The job is retired
// once the backend reports that it has exited.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.running {
		if job.ID == id {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Stopping %s", job.URL), Level: LevelWarning, JobID: id})
			return job.Backend.Stop()
		}
	}
	return ErrJobNotRunning
}

// Shutdown stops every running job. Pending jobs are left untouched.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, job := range m.running {
		if err := job.Backend.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", job.URL, err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns a copy of the scheduler's collections.
func (m *Manager) Snapshot() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return model.Snapshot{
		Pending:       infos(m.pending),
		Running:       infos(m.running),
		Finished:      infos(m.finished),
		MaxConcurrent: m.maxConcurrent,
		Backends:      m.registry.AvailableNames(),
	}
}

// reconcile is the only place jobs change state. m.mu must be held.
func (m *Manager) reconcile() {
	now := time.Now().UTC()
	m.retire(now)
	m.admit(now)
}

func (m *Manager) retire(now time.Time) {
	kept := m.running[:0]
	for _, job := range m.running {
		if !job.Backend.IsFinished() {
			kept = append(kept, job)
			continue
		}

		job.Finish(now)
		m.finished = append(m.finished, job)
		if job.Succeeded {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s", job.URL), Level: LevelSuccess, JobID: job.ID})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Failed %s: %s", job.URL, job.Error), Level: LevelError, JobID: job.ID})
		}
	}
	clear(m.running[len(kept):])
	m.running = kept

	if m.history > 0 && len(m.finished) > m.history {
		drop := len(m.finished) - m.history
		clear(m.finished[:drop])
		m.finished = m.finished[drop:]
	}
}

func (m *Manager) admit(now time.Time) {
	free := m.maxConcurrent - len(m.running)
	for free > 0 && len(m.pending) > 0 {
		job := m.pending[0]

		b, err := m.registry.New(job.Request(), m.notify)
		if err != nil {
			// the job stays at the head of the queue until a later pass
			if !m.stalled {
				m.progress(ProgressEvent{
					Message: fmt.Sprintf("Cannot start downloads: %v (%d pending)", err, len(m.pending)),
					Level:   LevelWarning,
					JobID:   job.ID,
				})
			}
			m.stalled = true
			return
		}
		m.stalled = false

		m.pending[0] = nil
		m.pending = m.pending[1:]

		if err := b.Start(); err != nil {
			// the backend is finished as failed and retired on its exit event
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error starting %s: %v", job.URL, err), Level: LevelError, JobID: job.ID})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Started %s with %s", job.URL, b.Name()), Level: LevelVerbose, JobID: job.ID})
		}

		job.Start(b, now)
		m.running = append(m.running, job)
		free--
	}
}

// notify is the completion callback handed to every backend. Bursts of
// completions collapse into a single pending reconcile.
func (m *Manager) notify() {
	select {
	case m.poke <- struct{}{}:
	default:
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func infos(jobs []*model.Job) []model.JobInfo {
	out := make([]model.JobInfo, len(jobs))
	for i, job := range jobs {
		out[i] = job.Info()
	}
	return out
}
