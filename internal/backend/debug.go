package backend

import "sync"

// Debug is a Variant whose backends finish successfully as soon as they
// start, without running anything.
type Debug struct{}

func (Debug) Name() string    { return "debug" }
func (Debug) Available() bool { return true }

func (Debug) New(req Request, onExit func()) Backend {
	return &debugBackend{onExit: onExit}
}

type debugBackend struct {
	mu      sync.Mutex
	started bool
	onExit  func()
}

func (b *debugBackend) Name() string { return "debug" }

func (b *debugBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true
	if b.onExit != nil {
		go b.onExit()
	}
	return nil
}

func (b *debugBackend) Stop() error { return nil }

func (b *debugBackend) IsStarted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// IsFinished is true as soon as the backend has started.
func (b *debugBackend) IsFinished() bool {
	return b.IsStarted()
}

func (b *debugBackend) Succeeded() bool {
	return b.IsStarted()
}

func (b *debugBackend) ErrorMessage() string {
	if !b.IsStarted() {
		return ""
	}
	return "No errors occurred"
}
