package backend

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
)

// Process is a Backend that runs an external command.
type Process struct {
	name   string
	path   string
	args   []string
	errors map[int]string
	output io.Writer
	onExit func()

	mu        sync.Mutex
	cmd       *exec.Cmd
	started   bool
	finished  bool
	exitCode  int
	launchErr error
	done      chan struct{}
}

// NewProcess creates an unstarted Process running path with args. messages maps
// exit codes to messages; output receives the command's stdout and stderr and
// may be nil.
func NewProcess(name, path string, args []string, messages map[int]string, output io.Writer, onExit func()) *Process {
	return &Process{
		name:   name,
		path:   path,
		args:   args,
		errors: messages,
		output: output,
		onExit: onExit,
		done:   make(chan struct{}),
	}
}

func (p *Process) Name() string {
	return p.name
}

// Args returns the command line arguments, without the executable.
func (p *Process) Args() []string {
	return p.args
}

func (p *Process) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true

	cmd := exec.Command(p.path, p.args...)
	cmd.Stdout = p.output
	cmd.Stderr = p.output
	if err := cmd.Start(); err != nil {
		p.finished = true
		p.exitCode = -1
		p.launchErr = err
		p.mu.Unlock()
		go p.exit()
		return fmt.Errorf("starting %s: %w", p.name, err)
	}
	p.cmd = cmd
	p.mu.Unlock()

	go p.wait(cmd)
	return nil
}

// wait blocks until the command exits and publishes the completion.
func (p *Process) wait(cmd *exec.Cmd) {
	_ = cmd.Wait()

	p.mu.Lock()
	p.finished = true
	p.exitCode = -1
	if cmd.ProcessState != nil {
		p.exitCode = cmd.ProcessState.ExitCode()
	}
	p.mu.Unlock()

	p.exit()
}

func (p *Process) exit() {
	close(p.done)
	if p.onExit != nil {
		p.onExit()
	}
}

func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.finished || p.cmd == nil {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping %s: %w", p.name, err)
	}
	return nil
}

func (p *Process) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *Process) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

func (p *Process) Succeeded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished && p.launchErr == nil && p.exitCode == 0
}

// ExitCode returns the exit code of the finished command, or -1 if it was
// killed by a signal, failed to launch or has not finished.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finished {
		return -1
	}
	return p.exitCode
}

// Done is closed once the process has finished.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) ErrorMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case !p.finished:
		return ""
	case p.launchErr != nil:
		return fmt.Sprintf("could not launch %s: %v", p.name, p.launchErr)
	case p.exitCode == -1:
		return "terminated by signal"
	}
	if msg, ok := p.errors[p.exitCode]; ok {
		return msg
	}
	if p.exitCode == 0 {
		return "No errors occurred"
	}
	return fmt.Sprintf("Unknown error (exit code %d)", p.exitCode)
}
