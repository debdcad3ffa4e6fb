package ipc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/handiism/dman/internal/download"
	"github.com/handiism/dman/internal/model"
)

type fakeController struct {
	snapshot model.Snapshot
	stopped  []string
	stopErr  error
}

func (c *fakeController) Snapshot() model.Snapshot { return c.snapshot }

func (c *fakeController) Stop(id string) error {
	if c.stopErr != nil {
		return c.stopErr
	}
	c.stopped = append(c.stopped, id)
	return nil
}

func TestStatusAPI_Jobs(t *testing.T) {
	c := &fakeController{snapshot: model.Snapshot{
		Pending:       []model.JobInfo{{ID: "1", URL: "http://a", State: model.StatePending}},
		Running:       []model.JobInfo{{ID: "2", URL: "http://b", State: model.StateRunning, Backend: "wget"}},
		Finished:      []model.JobInfo{},
		MaxConcurrent: 2,
		Backends:      []string{"wget"},
	}}
	api := NewStatusAPI(c)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /jobs status = %d, want 200", rec.Code)
	}
	var got model.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got.Pending) != 1 || got.Running[0].Backend != "wget" || got.MaxConcurrent != 2 {
		t.Errorf("GET /jobs = %+v", got)
	}
}

func TestStatusAPI_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStatusAPI(&fakeController{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestStatusAPI_Stop(t *testing.T) {
	tests := []struct {
		name    string
		stopErr error
		want    int
	}{
		{"running", nil, http.StatusAccepted},
		{"not running", download.ErrJobNotRunning, http.StatusConflict},
		{"backend error", errors.New("signal failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeController{stopErr: tt.stopErr}
			rec := httptest.NewRecorder()
			NewStatusAPI(c).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/abc/stop", nil))

			if rec.Code != tt.want {
				t.Errorf("POST /jobs/abc/stop status = %d, want %d", rec.Code, tt.want)
			}
			if tt.stopErr == nil && (len(c.stopped) != 1 || c.stopped[0] != "abc") {
				t.Errorf("stopped = %q, want [abc]", c.stopped)
			}
		})
	}
}
