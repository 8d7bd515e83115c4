package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"HodlWatch/internal/scheduler"
	"HodlWatch/internal/usecase"
	"HodlWatch/pkg/config"
	xhttp "HodlWatch/pkg/http"
	applogger "HodlWatch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	updater    *usecase.Updater
	sched      *scheduler.Scheduler
	httpServer *xhttp.Server
}

// New creates a new App with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	updater *usecase.Updater,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
) (*App, error) {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	httpServer := xhttp.NewServer(handler,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(log),
		xhttp.WithMetricsPath(metricsPath),
	)

	if err := sched.Register(cfg.Refresh.CronSpec); err != nil {
		return nil, err
	}

	return &App{
		cfg:        cfg,
		log:        log,
		updater:    updater,
		sched:      sched,
		httpServer: httpServer,
	}, nil
}

// Run starts the scheduler and HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.sched.Start()

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.updater.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
