package backend

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type stubVariant struct {
	name      string
	available bool
	probes    int
}

func (v *stubVariant) Name() string { return v.name }

func (v *stubVariant) Available() bool {
	v.probes++
	return v.available
}

func (v *stubVariant) New(req Request, onExit func()) Backend {
	return Debug{}.New(req, onExit)
}

func shellTool(script string, errs map[int]string) *Tool {
	return &Tool{
		ToolName:   "sh",
		Executable: "sh",
		Args:       func(Request) []string { return []string{"-c", script} },
		Errors:     errs,
	}
}

func waitProcess(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process did not finish")
	}
}

func TestProcess_Success(t *testing.T) {
	exited := make(chan struct{}, 1)
	b := shellTool("exit 0", nil).New(Request{}, func() { exited <- struct{}{} })
	p := b.(*Process)

	if p.IsStarted() || p.IsFinished() {
		t.Fatal("new process should be neither started nor finished")
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitProcess(t, p)
	<-exited

	if !p.IsFinished() {
		t.Error("IsFinished() = false after exit")
	}
	if !p.Succeeded() {
		t.Errorf("Succeeded() = false, message %q", p.ErrorMessage())
	}
	if p.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", p.ExitCode())
	}
}

func TestProcess_FailureMessages(t *testing.T) {
	errs := map[int]string{3: "I/O error"}
	tests := []struct {
		script string
		want   string
	}{
		{"exit 3", "I/O error"},
		{"exit 42", "Unknown error (exit code 42)"},
		{"kill -TERM $$", "terminated by signal"},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			p := shellTool(tt.script, errs).New(Request{}, nil).(*Process)
			if err := p.Start(); err != nil {
				t.Fatalf("Start() error: %v", err)
			}
			waitProcess(t, p)

			if p.Succeeded() {
				t.Error("Succeeded() = true, want false")
			}
			if got := p.ErrorMessage(); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcess_StartTwice(t *testing.T) {
	p := shellTool("exit 0", nil).New(Request{}, nil).(*Process)
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := p.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want %v", err, ErrAlreadyStarted)
	}
	waitProcess(t, p)
}

func TestProcess_LaunchFailure(t *testing.T) {
	exited := make(chan struct{}, 1)
	tool := &Tool{
		ToolName:   "missing",
		Executable: "/nonexistent/dman-test-tool",
		Args:       func(Request) []string { return nil },
	}
	p := tool.New(Request{}, func() { exited <- struct{}{} }).(*Process)

	if err := p.Start(); err == nil {
		t.Fatal("Start() of missing executable should fail")
	}
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("onExit not called after launch failure")
	}
	if !p.IsFinished() || p.Succeeded() {
		t.Errorf("IsFinished() = %v, Succeeded() = %v; want true, false", p.IsFinished(), p.Succeeded())
	}
	if !strings.Contains(p.ErrorMessage(), "could not launch") {
		t.Errorf("ErrorMessage() = %q", p.ErrorMessage())
	}
}

func TestProcess_Stop(t *testing.T) {
	p := shellTool("sleep 30", nil).New(Request{}, nil).(*Process)

	if err := p.Stop(); err != nil {
		t.Errorf("Stop() before Start = %v, want nil", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	waitProcess(t, p)

	if p.Succeeded() {
		t.Error("stopped process should not succeed")
	}
}

func TestToolArgs(t *testing.T) {
	req := Request{URL: "http://example.com/f.iso", Destination: "/tmp/dl"}
	tests := []struct {
		tool *Tool
		want []string
	}{
		{Wget(nil), []string{"--no-verbose", "--directory-prefix=/tmp/dl", "--", req.URL}},
		{Aria2(nil), []string{"--dir=/tmp/dl", "--console-log-level=warn", "--", req.URL}},
	}

	for _, tt := range tests {
		t.Run(tt.tool.Name(), func(t *testing.T) {
			if got := tt.tool.Args(req); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}

	curl := Curl(nil).Args(req)
	if curl[len(curl)-1] != req.URL {
		t.Errorf("curl args should end with the URL, got %q", curl)
	}
}

func TestDebug(t *testing.T) {
	exited := make(chan struct{}, 1)
	b := Debug{}.New(Request{URL: "http://x"}, func() { exited <- struct{}{} })

	if b.IsFinished() {
		t.Error("debug backend finished before Start")
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	<-exited
	if !b.IsFinished() || !b.Succeeded() {
		t.Error("debug backend should succeed immediately")
	}
	if err := b.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want %v", err, ErrAlreadyStarted)
	}
}

func TestRegistry_Default(t *testing.T) {
	a := &stubVariant{name: "a"}
	b := &stubVariant{name: "b", available: true}
	c := &stubVariant{name: "c", available: true}
	reg := NewRegistry(a, b, c)

	v, ok := reg.Default()
	if !ok || v.Name() != "b" {
		t.Fatalf("Default() = %v, %v; want b", v, ok)
	}
	if got := reg.AvailableNames(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("AvailableNames() = %q", got)
	}

	reg.New(Request{}, nil)
	reg.New(Request{}, nil)
	if a.probes != 1 || b.probes != 1 {
		t.Errorf("variants probed %d and %d times, want once", a.probes, b.probes)
	}
}

func TestRegistry_NoBackend(t *testing.T) {
	reg := NewRegistry(&stubVariant{name: "a"})

	b, err := reg.New(Request{URL: "http://x"}, nil)
	if !errors.Is(err, ErrNoBackend) {
		t.Errorf("New() error = %v, want %v", err, ErrNoBackend)
	}
	if b != nil {
		t.Error("New() should not create a backend when none is available")
	}
}

func TestPrefer(t *testing.T) {
	variants := []Variant{Wget(nil), Curl(nil), Aria2(nil)}

	got := names(Prefer("CURL", variants))
	if want := []string{"curl", "wget", "aria2c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Prefer(curl) = %q, want %q", got, want)
	}
	got = names(Prefer("nope", variants))
	if want := []string{"wget", "curl", "aria2c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Prefer(nope) = %q, want %q", got, want)
	}
}
