package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MacroSync/internal/domain/repository"
	"MacroSync/internal/usecase"
	"MacroSync/pkg/config"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

// App ties the HTTP server and the sync loop together and owns their
// shutdown order.
type App struct {
	cfg    *config.Config
	log    *applogger.Logger
	server *apphttp.Server
	syncer *usecase.Syncer
	store  repository.TableStore
	events repository.EventPublisher
}

// NewApp assembles the application.
func NewApp(
	cfg *config.Config,
	log *applogger.Logger,
	server *apphttp.Server,
	syncer *usecase.Syncer,
	store repository.TableStore,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:    cfg,
		log:    log,
		server: server,
		syncer: syncer,
		store:  store,
		events: events,
	}
}

// RunOnce executes a single sweep and exits, for batch invocations.
// It fails when any table could not be committed.
func (a *App) RunOnce(ctx context.Context, opts usecase.RunOptions) error {
	defer a.close()

	report, err := a.syncer.Run(ctx, opts)
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("tables not committed: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Run starts the HTTP server and the periodic sync loop, then blocks
// until ctx is canceled and everything has shut down.
func (a *App) Run(ctx context.Context) error {
	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	a.log.Info("service started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Duration("interval_ms", a.cfg.Sync.Interval),
	)

	go a.loop(ctx)

	<-ctx.Done()
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown", applogger.Error(err))
	}
	a.close()
	return nil
}

func (a *App) loop(ctx context.Context) {
	a.sweep(ctx)

	ticker := time.NewTicker(a.cfg.Sync.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	_, err := a.syncer.Run(ctx, usecase.RunOptions{})
	if err != nil && !errors.Is(err, usecase.ErrRunInProgress) && !errors.Is(err, context.Canceled) {
		a.log.Error("scheduled sweep failed", applogger.Error(err))
	}
}

func (a *App) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Error("close event publisher", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Error("close store", applogger.Error(err))
	}
	a.log.RemoveCollector()
}
