package backend

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a backend that was started
	// before. A backend never runs twice.
	ErrAlreadyStarted = errors.New("backend already started")

	// ErrNoBackend is returned by Registry.New when no variant is available.
	ErrNoBackend = errors.New("no download backend available")
)

// Request describes the transfer a backend performs.
type Request struct {
	URL         string
	Destination string
}

// Backend performs one transfer through an external tool.
//
// Start launches the transfer exactly once. Completion is published through
// the onExit callback given to Variant.New; the status methods can also be
// polled at any time.
type Backend interface {
	// Name is the name of the variant that created the backend.
	Name() string

	// Start launches the transfer. It returns ErrAlreadyStarted if called
	// more than once. A launch failure finishes the backend as failed.
	Start() error

	// Stop asks a running transfer to terminate. It is a no-op when the
	// backend has not started or has already finished.
	Stop() error

	IsStarted() bool
	IsFinished() bool

	// Succeeded reports whether the transfer finished successfully. It is
	// only meaningful once IsFinished is true.
	Succeeded() bool

	// ErrorMessage explains the outcome of a finished transfer.
	ErrorMessage() string
}

// Variant creates backends of one kind.
type Variant interface {
	Name() string

	// Available reports whether the variant can run on this machine.
	Available() bool

	// New creates an unstarted backend for req. onExit is called once, from
	// any goroutine, when the backend finishes.
	New(req Request, onExit func()) Backend
}
