package engine

import (
	"github.com/dshills/meshstorm/internal/dispatcher"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithEventBus sets the event bus the engine publishes on.
func WithEventBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithScene sets a pre-populated scene.
func WithScene(s *Scene) Option {
	return func(e *Engine) {
		if s != nil {
			e.scene = s
		}
	}
}

// WithDispatcherConfig sets the dispatcher configuration.
func WithDispatcherConfig(cfg dispatcher.Config) Option {
	return func(e *Engine) {
		e.dispCfg = cfg
	}
}
