// Package app assembles a working meshstorm instance: configuration,
// logging, the mesh engine, the Lua script host, and the event bus
// that ties them together. CLI commands and the interactive session
// build on this facade instead of wiring components by hand.
package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/meshstorm/internal/assist"
	"github.com/dshills/meshstorm/internal/config"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/plugin/lua"
)

// Options configures a new Application. The zero value runs on
// built-in defaults with no config file, no mesh, and no watcher.
type Options struct {
	// ConfigPath is the TOML configuration file. Empty skips file
	// loading; defaults and environment overrides still apply.
	ConfigPath string

	// MeshPath is an OBJ file loaded into the scene at startup.
	MeshPath string

	// LogLevel overrides the configured logging level when non-empty.
	LogLevel string

	// JSONLog forces the JSON log encoder regardless of configuration.
	JSONLog bool

	// Watch enables live reload of the configuration file.
	Watch bool
}

// Application owns the component graph for one meshstorm process.
type Application struct {
	opts Options

	bus     *event.Bus
	cfg     *config.Config
	log     *logging.Logger
	eng     *engine.Engine
	scripts *lua.Host

	closed    atomic.Bool
	closeOnce sync.Once
	stopFns   []func()
}

// New builds and starts an Application from opts. Components are
// initialized in dependency order; any failure tears down what was
// already started and returns an InitError naming the component.
func New(opts Options) (*Application, error) {
	a := &Application{opts: opts}
	if err := a.bootstrap(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the application's resources. Safe to call more than
// once and on a partially constructed instance.
func (a *Application) Close() {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		if a.cfg != nil {
			a.cfg.StopWatch()
		}
		for i := len(a.stopFns) - 1; i >= 0; i-- {
			a.stopFns[i]()
		}
		if a.scripts != nil {
			a.scripts.Close()
		}
		if a.log != nil {
			a.log.Sync()
		}
	})
}

// Closed reports whether Close has run.
func (a *Application) Closed() bool {
	return a.closed.Load()
}

// Config returns the layered configuration.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Engine returns the mesh engine.
func (a *Application) Engine() *engine.Engine {
	return a.eng
}

// Events returns the shared event bus.
func (a *Application) Events() *event.Bus {
	return a.bus
}

// Scripts returns the Lua script host.
func (a *Application) Scripts() *lua.Host {
	return a.scripts
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger {
	return a.log
}

// RunScript executes a Lua file through the script host.
func (a *Application) RunScript(ctx context.Context, path string) error {
	return a.scripts.DoFile(ctx, path)
}

// Planner builds an assist planner from the configured provider,
// scoped to the operators the engine currently knows.
func (a *Application) Planner() (*assist.Planner, error) {
	ac := a.cfg.Assist()
	pc := assist.Config{
		Provider:  ac.Provider,
		Model:     ac.Model,
		MaxTokens: int64(ac.MaxTokens),
	}
	switch strings.ToLower(ac.Provider) {
	case assist.ProviderOpenAI:
		pc.APIKey = ac.OpenAIKey
	case assist.ProviderGemini, "google":
		pc.APIKey = ac.GeminiKey
	default:
		pc.APIKey = ac.AnthropicKey
	}
	provider, err := assist.NewProvider(pc)
	if err != nil {
		return nil, err
	}
	return assist.NewPlanner(provider,
		assist.WithOps(a.eng.KnownOps()),
		assist.WithLogger(a.log),
	), nil
}
