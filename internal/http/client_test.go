package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/dman/internal/download"
	"github.com/handiism/dman/internal/ipc"
	"github.com/handiism/dman/internal/model"
)

type stubController struct {
	snapshot model.Snapshot
	running  map[string]bool
}

func (c *stubController) Snapshot() model.Snapshot { return c.snapshot }

func (c *stubController) Stop(id string) error {
	if !c.running[id] {
		return download.ErrJobNotRunning
	}
	return nil
}

// serveStatus runs the status API on a UNIX socket and returns its path.
func serveStatus(t *testing.T, c ipc.Controller) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dman")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "ipc")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}

	server := &http.Server{Handler: ipc.NewStatusAPI(c)}
	go server.Serve(ln)
	t.Cleanup(func() { server.Close() })
	return path
}

func TestClient_Snapshot(t *testing.T) {
	path := serveStatus(t, &stubController{snapshot: model.Snapshot{
		Running:       []model.JobInfo{{ID: "a", URL: "http://example.com/a", State: model.StateRunning}},
		MaxConcurrent: 3,
		Backends:      []string{"curl", "wget"},
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewClient(path)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health() error: %v", err)
	}

	snap, err := client.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(snap.Running) != 1 || snap.Running[0].URL != "http://example.com/a" {
		t.Errorf("Running = %+v", snap.Running)
	}
	if snap.MaxConcurrent != 3 || len(snap.Backends) != 2 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestClient_StopJob(t *testing.T) {
	path := serveStatus(t, &stubController{running: map[string]bool{"a": true}})
	client := NewClient(path)
	ctx := context.Background()

	if err := client.StopJob(ctx, "a"); err != nil {
		t.Errorf("StopJob(a) error: %v", err)
	}
	if err := client.StopJob(ctx, "b"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("StopJob(b) = %v, want ErrNotRunning", err)
	}
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClient(filepath.Join(os.TempDir(), "dman-missing-ipc"))
	if err := client.Health(context.Background()); err == nil {
		t.Error("Health() without a daemon should fail")
	}
}
