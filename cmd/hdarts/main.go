// Command hdarts runs a hierarchical architecture search from a YAML config file.
//
// Usage:
//
//	hdarts -config search.yaml [-resume <checkpoint dir>] [-metrics-addr :9100]
//
// With -resume, the search starts from the best architecture in the directory, and from its
// weights too if they were saved.
//
// An interrupt (SIGINT or SIGTERM) stops the search between steps; the architecture found so far
// is still reported, and the command exits successfully.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sharnoff/hdarts/checkpoint"
	"github.com/sharnoff/hdarts/metrics"
	"github.com/sharnoff/hdarts/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run returns the exit code: 0 once the search has finished or been interrupted, 1 if it could
// not be set up or failed, and 2 for bad flags.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("hdarts", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to the YAML config file (defaults are used if empty)")
	resume := fs.String("resume", "", "checkpoint directory to take the starting architecture from")
	metricsAddr := fs.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9100")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := search.LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		return 1
	}

	s, logger, closeAll, err := setup(cfg, *resume, *metricsAddr, stderr)
	if err != nil {
		logger.Error("Failed to set up search", "error", err)
		return 1
	}
	defer closeAll()

	_, runErr := s.Run(ctx)
	s.Terminate()

	switch {
	case runErr == nil:
		return 0
	case errors.Cause(runErr) == context.Canceled:
		logger.Info("Search interrupted", "weight_steps", s.WeightsSteps())
		return 0
	default:
		logger.Error("Search failed", "error", runErr)
		return 1
	}
}

// setup builds the Searcher, with its log file, metric series and (optionally) metrics server.
// The returned logger writes to both stderr and the log file; if setup fails, it writes to stderr
// alone. The returned function releases everything.
func setup(cfg search.Config, resume, metricsAddr string, stderr io.Writer) (*search.Searcher, *slog.Logger, func(), error) {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, logger, nil, err
	}

	var opts []search.Option
	from := checkpoint.Checkpointer{Root: resume}
	if resume != "" {
		normal, reduce, err := from.Load(checkpoint.Best)
		if err != nil {
			return nil, logger, nil, errors.Wrapf(err, "Failed to resume from %q", resume)
		}
		opts = append(opts, search.WithAlpha(normal, reduce))
	}

	id := search.NewID()
	logDir := filepath.Join(cfg.LogDir, cfg.Dataset, id)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, logger, nil, errors.Wrapf(err, "Failed to create log directory %q", logDir)
	}

	f, err := os.Create(filepath.Join(logDir, "search.log"))
	if err != nil {
		return nil, logger, nil, errors.Wrap(err, "Failed to create log file")
	}
	closers = append(closers, func() { f.Close() })
	stderrLogger := logger
	logger = slog.New(slog.NewTextHandler(io.MultiWriter(stderr, f), nil))

	store, err := metrics.OpenStore(filepath.Join(logDir, "series.db"))
	if err != nil {
		closeAll()
		return nil, stderrLogger, nil, err
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to write series", "error", err)
		}
	})

	reg := prometheus.NewRegistry()
	writer := metrics.Multi(metrics.NewRecorder(), store, metrics.NewExporter(reg))

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server stopped", "addr", metricsAddr, "error", err)
			}
		}()
		closers = append(closers, func() { srv.Close() })
	}

	opts = append(opts, search.WithID(id), search.WithWriter(writer), search.WithLogger(logger))
	s, err := search.New(cfg, opts...)
	if err != nil {
		closeAll()
		return nil, stderrLogger, nil, err
	}

	if resume != "" && from.HasWeights(checkpoint.Best) {
		if err := from.LoadWeights(s.Model(), checkpoint.Best); err != nil {
			closeAll()
			return nil, stderrLogger, nil, errors.Wrapf(err, "Failed to resume weights from %q", resume)
		}
		logger.Info("Restored weights", "from", checkpoint.Dir(resume, checkpoint.Best))
	}

	logger.Info("Search ready", "id", s.ID(), "log_dir", logDir, "checkpoints", s.Checkpointer().Root)
	return s, logger, closeAll, nil
}
