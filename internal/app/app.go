package app

import (
	"context"
	"log/slog"

	"github.com/abdulachik/tweettask/internal/config"
	"github.com/abdulachik/tweettask/internal/db"
	"github.com/abdulachik/tweettask/internal/task"
	"github.com/abdulachik/tweettask/internal/worker"
)

// App is the main application container holding all dependencies.
type App struct {
	Config *config.Config
	Store  *db.Store // nil when history is disabled
	Pool   *worker.Pool
	Runner *task.Runner
}

// New creates a new application instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		store    *db.Store
		recorder task.Recorder
	)
	if cfg.HistoryEnabled() {
		var err error
		store, err = db.NewStore(ctx, cfg.HistoryPath)
		if err != nil {
			return nil, err
		}

		// Run migrations
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		recorder = store
	} else {
		slog.Debug("run history disabled")
	}

	pool := worker.NewPool(cfg.Workers)

	runner := task.New(task.Config{
		Pool:          pool,
		ClientFactory: task.NewClientFactory(cfg.TwitterAPI(), cfg.RequestTimeout),
		Recorder:      recorder,
	})

	return &App{
		Config: cfg,
		Store:  store,
		Pool:   pool,
		Runner: runner,
	}, nil
}

// Close waits for running tasks, then closes all resources.
func (a *App) Close() error {
	if a.Runner != nil {
		a.Runner.Wait()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
