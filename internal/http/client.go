package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/handiism/dman/internal/model"
)

// ErrNotRunning is returned by StopJob when the daemon reports that the job
// is not in the running collection.
var ErrNotRunning = errors.New("job is not running")

// Client talks to the dman status API on the ipc socket.
//
// Example usage:
//
//	client := NewClient(settings.StatusSocket())
//
//	snap, err := client.Snapshot(ctx)
//	for _, job := range snap.Running {
//	    fmt.Println(job.ID, job.URL)
//	}
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client that dials the UNIX socket at socketPath for
// every request.
//
// The client is configured with:
//   - 10 second timeout
//   - "dman" User-Agent header
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    1,
		IdleConnTimeout: 30 * time.Second,
	}
	return newClient(&http.Client{Transport: transport, Timeout: 10 * time.Second}, "http://dman")
}

func newClient(hc *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  "dman",
	}
}

// Get performs a GET request against path and returns the response body.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK
//   - Reading the body fails
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Health reports whether the daemon answers on its status socket.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Get(ctx, "/health")
	return err
}

// Snapshot fetches the current pending, running and finished jobs.
func (c *Client) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	body, err := c.Get(ctx, "/jobs")
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}

// StopJob asks the daemon to terminate the running job with the given ID.
// The job is reported as finished once its backend exits.
func (c *Client) StopJob(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodPost, "/jobs/"+id+"/stop")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	default:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}
