package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/execlog"
	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/metrics"
)

// Streams are the process streams an App talks to.
type Streams struct {
	In  io.Reader // answers to manual prompts
	Out io.Writer // command output
	Log io.Writer // structured logs
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	in     *bufio.Reader
	outW   io.Writer
	logger *slog.Logger
	config *Config

	handlers *handlers.Handlers
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	sink     execlog.Sink

	logFile    io.Closer
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, handler
// registry and metrics registry. Without modules, the core modules are used.
//
// The caller must Close the App.
func NewApp(streams Streams, cfg *Config, modules ...handlers.Module) (*App, error) {
	if streams.In == nil {
		streams.In = os.Stdin
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}
	if streams.Log == nil {
		streams.Log = os.Stderr
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, streams.Log)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	h := handlers.New()
	if len(modules) == 0 {
		modules = coreModules(streams.Out)
	}
	for _, mod := range modules {
		mod.Register(h)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "functions", h.Names())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		ctx:      ctx,
		in:       bufio.NewReader(streams.In),
		outW:     streams.Out,
		logger:   logger,
		config:   cfg,
		handlers: h,
		registry: reg,
		metrics:  metrics.New(reg),
	}

	sinks := []execlog.Sink{execlog.NewSlog(logger, slog.LevelDebug)}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open execution log: %w", err)
		}
		a.logFile = f
		sinks = append(sinks, execlog.NewJSONLines(f, func(err error) {
			logger.Error("Failed to write execution log entry.", "error", err)
		}))
		logger.Debug("Execution log file opened.", "path", cfg.LogFile)
	}
	a.sink = execlog.Multi(sinks...)

	a.healthCheckServer()
	return a, nil
}

// Handlers returns the application's handler registry. This is primarily for testing.
func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}

// Close stops the health check server and closes the execution log.
func (a *App) Close() error {
	var errs []error
	if err := a.closeHealthCheckServer(); err != nil {
		errs = append(errs, err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close execution log: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// withLogger attaches the app logger to ctx.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
