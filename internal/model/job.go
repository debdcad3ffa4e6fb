package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/handiism/dman/internal/backend"
)

// State is the lifecycle state of a Job.
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Job represents one requested download.
//
// Job fields are owned by the scheduler: it is the only component that
// moves a job between states. Backend is nil while the job is pending.
type Job struct {
	// ID uniquely identifies the job for the lifetime of the daemon.
	ID string

	// URL is the source to download.
	URL string

	// Destination is the directory handed to the backend.
	Destination string

	State State

	// Backend performs the transfer once the job is running.
	Backend backend.Backend

	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time

	// Succeeded and Error hold the outcome once the job is finished.
	Succeeded bool
	Error     string
}

// NewJob creates a pending job.
func NewJob(url, destination string) *Job {
	return &Job{
		ID:          uuid.NewString(),
		URL:         url,
		Destination: destination,
		State:       StatePending,
		SubmittedAt: time.Now().UTC(),
	}
}

// Request returns the backend request for this job.
func (j *Job) Request() backend.Request {
	return backend.Request{URL: j.URL, Destination: j.Destination}
}

// Start marks the job as running on b.
func (j *Job) Start(b backend.Backend, now time.Time) {
	j.Backend = b
	j.State = StateRunning
	j.StartedAt = now
}

// Finish records the outcome reported by the job's backend.
func (j *Job) Finish(now time.Time) {
	j.State = StateFinished
	j.FinishedAt = now
	if j.Backend != nil {
		j.Succeeded = j.Backend.Succeeded()
		j.Error = j.Backend.ErrorMessage()
	}
	if j.Succeeded {
		j.Error = ""
	}
}

// Info returns a copy of the job's state.
func (j *Job) Info() JobInfo {
	info := JobInfo{
		ID:          j.ID,
		URL:         j.URL,
		Destination: j.Destination,
		State:       j.State,
		SubmittedAt: j.SubmittedAt,
		Succeeded:   j.Succeeded,
		Error:       j.Error,
	}
	if j.Backend != nil {
		info.Backend = j.Backend.Name()
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		info.StartedAt = &t
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		info.FinishedAt = &t
	}
	return info
}

// JobInfo is a snapshot of a Job.
type JobInfo struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Destination string     `json:"destination"`
	State       State      `json:"state"`
	Backend     string     `json:"backend,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Succeeded   bool       `json:"succeeded"`
	Error       string     `json:"error,omitempty"`
}

// Snapshot is a copy of the scheduler's collections, each in scheduling
// order.
type Snapshot struct {
	Pending       []JobInfo `json:"pending"`
	Running       []JobInfo `json:"running"`
	Finished      []JobInfo `json:"finished"`
	MaxConcurrent int       `json:"max_concurrent"`

	// Backends lists the available backend names, default first.
	Backends []string `json:"backends"`
}

// Total returns the number of jobs in the snapshot.
func (s *Snapshot) Total() int {
	return len(s.Pending) + len(s.Running) + len(s.Finished)
}

// Failed returns the number of finished jobs that did not succeed.
func (s *Snapshot) Failed() int {
	n := 0
	for _, j := range s.Finished {
		if !j.Succeeded {
			n++
		}
	}
	return n
}
