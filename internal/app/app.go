// Package app wires configuration, logging, the history sink, the
// scheduler engine and the HTTP control surface into one process.
package app

import (
	"context"
	"sync"

	"filesched/internal/config"
	"filesched/internal/history"
	"filesched/internal/httpapi"
	"filesched/internal/scheduler"
	"filesched/internal/store"
	logx "filesched/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	sink  history.Sink
	sched *scheduler.Service
	api   *httpapi.Server

	watchCancel context.CancelFunc
	cfgCh       chan *config.Config
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
	if err != nil {
		return nil, err
	}
	sink, err := history.Open(history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.Scheduler.TaskFile, log.With(logx.String("comp", "store")))
	sched := scheduler.New(st, sink, log.With(logx.String("comp", "scheduler")))

	readTO, err := config.ParseDurationField("api.read_timeout", cfg.API.ReadTimeout)
	if err != nil {
		return nil, err
	}
	writeTO, err := config.ParseDurationField("api.write_timeout", cfg.API.WriteTimeout)
	if err != nil {
		return nil, err
	}
	idleTO, err := config.ParseDurationField("api.idle_timeout", cfg.API.IdleTimeout)
	if err != nil {
		return nil, err
	}
	api := httpapi.New(httpapi.Config{
		Enabled:      cfg.API.Enabled,
		Addr:         cfg.API.Addr,
		Token:        cfg.API.Token,
		RatePerSec:   cfg.API.RatePerSec,
		ReadTimeout:  readTO,
		WriteTimeout: writeTO,
		IdleTimeout:  idleTO,
	}, sched, sink, log)

	return &App{
		cfgm:  cfgm,
		logs:  logs,
		log:   log.With(logx.String("comp", "app")),
		sink:  sink,
		sched: sched,
		api:   api,
	}, nil
}

func (a *App) Log() logx.Logger { return a.log }

// Start reconciles persisted tasks into live triggers, then brings up the
// firing loop, the API and the config watcher.
func (a *App) Start(ctx context.Context) error {
	restored := a.sched.Reconcile()
	a.log.Info("bootstrap complete", logx.Int("tasks", restored))

	a.sched.Start()
	if err := a.api.Start(); err != nil {
		a.sched.Stop(context.Background())
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.cfgCh = a.cfgm.Subscribe(4)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(wctx)
	}()
	go func() {
		defer a.wg.Done()
		a.applyLoop()
	}()
	return nil
}

// applyLoop hot-reloads the settings that are safe to swap at runtime.
// Only logging for now; scheduler and API changes need a restart.
func (a *App) applyLoop() {
	for cfg := range a.cfgCh {
		if cfg == nil {
			continue
		}
		a.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Console,
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
		a.log.Info("logging config reloaded", logx.String("level", cfg.Logging.Level))
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.cfgCh != nil {
		a.cfgm.Unsubscribe(a.cfgCh)
		a.cfgCh = nil
	}

	a.api.Stop(ctx)
	a.sched.Stop(ctx)

	if err := a.sink.Close(); err != nil {
		a.log.Warn("history close failed", logx.Err(err))
	}
	a.wg.Wait()
	_ = a.logs.Close()
	return nil
}
