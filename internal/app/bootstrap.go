package app

import (
	"context"
	"time"

	"github.com/dshills/meshstorm/internal/config"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/plugin/lua"
)

// scriptTimeout bounds each configured startup script.
const scriptTimeout = 30 * time.Second

// bootstrap initializes components in dependency order: event bus,
// configuration, logging, engine, initial mesh, script host, watcher.
func (a *Application) bootstrap() error {
	a.bus = event.NewBus()

	// Configuration before logging: the log level comes from it.
	copts := []config.Option{config.WithEventBus(a.bus)}
	if a.opts.ConfigPath != "" {
		copts = append(copts, config.WithPath(a.opts.ConfigPath))
	}
	a.cfg = config.New(copts...)
	if err := a.cfg.Load(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	lc := a.cfg.Logging()
	level := lc.Level
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(level)
	logCfg.JSON = lc.JSON || a.opts.JSONLog
	a.log = logging.New(logCfg)

	a.eng = engine.New(
		engine.WithLogger(a.log),
		engine.WithEventBus(a.bus),
	)

	if a.opts.MeshPath != "" {
		if _, err := a.LoadMesh(a.opts.MeshPath); err != nil {
			return &InitError{Component: "mesh", Err: err}
		}
	}

	scripts, err := lua.New(a.eng, lua.WithLogger(a.log))
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	a.scripts = scripts

	// Startup scripts are advisory: a broken script is logged, not fatal.
	for _, path := range a.cfg.Scripts().Paths {
		ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
		err := a.scripts.DoFile(ctx, path)
		cancel()
		if err != nil {
			a.log.Warn("startup script %s failed: %v", path, err)
		}
	}

	if a.opts.Watch && a.cfg.Path() != "" {
		if err := a.cfg.Watch(); err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
	}

	off := a.cfg.OnReload(func(c *config.Config) {
		a.log.SetLevel(logging.ParseLevel(c.Logging().Level))
		a.log.Info("configuration reloaded from %s", c.Path())
	})
	a.stopFns = append(a.stopFns, off)

	a.log.Debug("application ready")
	return nil
}
