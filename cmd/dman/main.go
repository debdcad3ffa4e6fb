package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/handiism/dman/internal/backend"
	"github.com/handiism/dman/internal/config"
	"github.com/handiism/dman/internal/download"
	dmanhttp "github.com/handiism/dman/internal/http"
	ioutils "github.com/handiism/dman/internal/io"
	"github.com/handiism/dman/internal/ipc"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A .env file in the working directory may set DMAN_* variables.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "dman",
		Usage: "queue downloads for a local download daemon",
		Description: "Without a command, dman submits its arguments as URLs to a running\n" +
			"daemon, or starts the daemon when no arguments are given.\n" +
			"For interactive monitoring, use: dman-tui",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config file", Value: config.DefaultPath()},
			&cli.StringFlag{Name: "runtime-dir", Usage: "directory holding the daemon sockets"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the download daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "download directory (overrides config)"},
					&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "preferred backend: wget, curl, aria2c or debug"},
					&cli.IntFlag{Name: "max-concurrent", Aliases: []string{"j"}, Usage: "maximum simultaneous downloads"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output and backend output"},
				},
				Action: serve,
			},
			{
				Name:      "add",
				Usage:     "submit URLs to the running daemon",
				ArgsUsage: "URL...",
				Action:    add,
			},
			{
				Name:   "status",
				Usage:  "show the daemon's jobs",
				Action: status,
			},
			{
				Name:      "stop",
				Usage:     "stop a running job",
				ArgsUsage: "JOB-ID",
				Action:    stop,
			},
		},
		Action: addOrServe,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// addOrServe submits the arguments as URLs, or runs the daemon when there
// are none.
func addOrServe(c *cli.Context) error {
	if c.NArg() > 0 {
		return add(c)
	}
	return serve(c)
}

// loadSettings layers the config file, DMAN_* variables and flags.
func loadSettings(c *cli.Context) (*config.Settings, error) {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}

	if dir := c.String("runtime-dir"); dir != "" {
		settings.RuntimeDir = dir
	}
	if out := c.String("output"); out != "" {
		abs, err := filepath.Abs(out)
		if err != nil {
			return nil, err
		}
		settings.DownloadsPath = abs
	}
	if name := c.String("backend"); name != "" {
		settings.Backend = name
	}
	if n := c.Int("max-concurrent"); n > 0 {
		settings.MaxConcurrentDownloads = n
	}
	if c.Bool("verbose") {
		settings.Verbose = true
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

func serve(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	var output io.Writer = io.Discard
	if settings.Verbose {
		level = slog.LevelDebug
		output = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	variants := backend.DefaultVariants(output)
	if settings.Backend == "debug" {
		variants = []backend.Variant{backend.Debug{}}
	} else {
		variants = backend.Prefer(settings.Backend, variants)
	}
	registry := backend.NewRegistry(variants...)
	if def, ok := registry.Default(); ok {
		logger.Info("backend selected", "backend", def.Name(), "available", registry.AvailableNames())
	} else {
		logger.Warn("no download backend found, jobs will wait", "tried", registry.Names())
	}

	if err := ioutils.EnsureDir(settings.DownloadsPath, 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	manager := download.NewManager(registry, settings, progressLogger(logger))

	urldrop, err := listen(settings.UrldropSocket())
	if err != nil {
		return err
	}
	defer ioutils.RemoveIfExists(settings.UrldropSocket())

	statusLn, err := listen(settings.StatusSocket())
	if err != nil {
		urldrop.Close()
		return err
	}
	defer ioutils.RemoveIfExists(settings.StatusSocket())

	logger.Info("dman started",
		"urldrop", settings.UrldropSocket(),
		"status", settings.StatusSocket(),
		"downloads", settings.DownloadsPath,
		"max_concurrent", settings.MaxConcurrentDownloads,
	)

	server := &ipc.Server{
		Submitter:        manager,
		MaxMessageLength: settings.MaxMessageLength,
		Logger:           logger.With("component", "urldrop"),
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		if err := manager.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Serve(ctx, urldrop)
	})
	g.Go(func() error {
		return ipc.ServeStatus(ctx, statusLn, manager, logger.With("component", "status"))
	})

	err = g.Wait()
	logger.Info("dman shutting down")

	if settings.StopOnExit {
		if serr := manager.Shutdown(); serr != nil {
			logger.Warn("stopping running downloads", "err", serr)
		}
	}
	return err
}

// listen claims the socket at path, refusing if another daemon owns it.
func listen(path string) (net.Listener, error) {
	if err := ioutils.PrepareSocket(path); err != nil {
		if errors.Is(err, ioutils.ErrSocketInUse) {
			return nil, fmt.Errorf("dman is already running (%s)", path)
		}
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	return ln, nil
}

func progressLogger(logger *slog.Logger) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		attrs := []any{}
		if event.JobID != "" {
			attrs = append(attrs, "job", event.JobID)
		}
		switch event.Level {
		case download.LevelError:
			logger.Error(event.Message, attrs...)
		case download.LevelWarning:
			logger.Warn(event.Message, attrs...)
		case download.LevelVerbose:
			logger.Debug(event.Message, attrs...)
		default:
			logger.Info(event.Message, attrs...)
		}
	}
}

func add(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowCommandHelp(c, "add")
	}
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	if err := ipc.Submit(ctx, settings.UrldropSocket(), c.Args().Slice()...); err != nil {
		return err
	}
	fmt.Printf("Submitted %d URL(s)\n", c.NArg())
	return nil
}

func status(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	snap, err := dmanhttp.NewClient(settings.StatusSocket()).Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("querying daemon: %w", err)
	}

	fmt.Printf("Running %d/%d, pending %d, finished %d (%d failed)\n\n",
		len(snap.Running), snap.MaxConcurrent, len(snap.Pending), len(snap.Finished), snap.Failed())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tBACKEND\tURL\tRESULT")
	for _, job := range append(append(snap.Running, snap.Pending...), snap.Finished...) {
		result := ""
		if job.FinishedAt != nil {
			result = "ok"
			if !job.Succeeded {
				result = job.Error
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", job.ID, job.State, job.Backend, job.URL, result)
	}
	return w.Flush()
}

func stop(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowCommandHelp(c, "stop")
	}
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	return dmanhttp.NewClient(settings.StatusSocket()).StopJob(ctx, c.Args().First())
}
