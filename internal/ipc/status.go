package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/handiism/dman/internal/download"
	"github.com/handiism/dman/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Controller is the part of the scheduler exposed by the status API.
type Controller interface {
	Snapshot() model.Snapshot
	Stop(id string) error
}

// NewStatusAPI builds the status API routes:
//
//	GET  /health          liveness
//	GET  /jobs            model.Snapshot of every collection
//	POST /jobs/:id/stop   stop a running job
func NewStatusAPI(c Controller) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/jobs", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, c.Snapshot())
	})

	e.POST("/jobs/:id/stop", func(ctx echo.Context) error {
		id := ctx.Param("id")
		if err := c.Stop(id); err != nil {
			if errors.Is(err, download.ErrJobNotRunning) {
				return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("job %s is not running", id))
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return ctx.NoContent(http.StatusAccepted)
	})

	return e
}

// ServeStatus serves the status API on ln until ctx is cancelled.
func ServeStatus(ctx context.Context, ln net.Listener, c Controller, logger *slog.Logger) error {
	server := http.Server{
		Handler:           NewStatusAPI(c),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting status api", "addr", ln.Addr().String())
		serverErr <- server.Serve(ln)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("serving status api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("stopping status api: %w", err)
		}
		return nil
	}
}
