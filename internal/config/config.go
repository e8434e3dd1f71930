// Package config provides layered configuration for meshstorm:
// built-in defaults, an optional TOML file, and MESHSTORM_* environment
// variables, merged in that order. The file can be watched for live
// reload.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
)

// Errors returned by configuration access.
var (
	// ErrNotFound indicates the config path does not exist.
	ErrNotFound = errors.New("config: key not found")

	// ErrType indicates a value exists but has the wrong type.
	ErrType = errors.New("config: type mismatch")

	// ErrNoPath indicates a file operation with no configured file path.
	ErrNoPath = errors.New("config: no file path configured")
)

// DefaultEnvPrefix is the prefix scanned for environment overrides.
const DefaultEnvPrefix = "MESHSTORM_"

// Defaults returns the built-in configuration. The applier section
// mirrors the classic inset-per-face setup.
func Defaults() map[string]any {
	return map[string]any{
		"logging": map[string]any{
			"level": "info",
			"json":  false,
		},
		"applier": map[string]any{
			"kind":     "faces",
			"operator": "mesh.inset",
			"params":   map[string]any{"thickness": 0.05},
		},
		"session": map[string]any{
			"theme":      "dark",
			"showStatus": true,
		},
		"assist": map[string]any{
			"provider":  "anthropic",
			"model":     "",
			"maxTokens": int64(1024),
		},
		"scripts": map[string]any{
			"paths": []any{},
		},
	}
}

// ReloadHandler is called after the configuration has been reloaded.
type ReloadHandler func(*Config)

// Config provides merged access to the configuration sources.
type Config struct {
	mu     sync.RWMutex
	values map[string]any

	path      string
	envPrefix string
	enableEnv bool

	log *logging.Logger
	bus *event.Bus

	cbMu      sync.Mutex
	callbacks []ReloadHandler

	watch watchState
}

// Option configures a Config instance.
type Option func(*Config)

// WithPath sets the TOML configuration file path.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		if prefix != "" {
			c.envPrefix = prefix
		}
	}
}

// WithEnv enables or disables environment variable overrides.
func WithEnv(enable bool) Option {
	return func(c *Config) {
		c.enableEnv = enable
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithEventBus sets the bus that reload events are published on.
func WithEventBus(bus *event.Bus) Option {
	return func(c *Config) {
		c.bus = bus
	}
}

// New creates a Config with the given options. Call Load before reading.
func New(opts ...Option) *Config {
	c := &Config{
		values:    Defaults(),
		envPrefix: DefaultEnvPrefix,
		enableEnv: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.Default()
	}
	c.log = c.log.WithComponent("config")
	return c
}

// Load merges defaults, the configuration file, and environment
// overrides into the live values.
func (c *Config) Load() error {
	values := Defaults()

	if c.path != "" {
		fileVals, err := loadTOMLFile(c.path)
		if err != nil {
			return err
		}
		values = DeepMerge(values, fileVals)
	}
	if c.enableEnv {
		values = DeepMerge(values, loadEnv(c.envPrefix))
	}

	c.mu.Lock()
	c.values = values
	c.mu.Unlock()
	return nil
}

// Reload re-runs Load and notifies reload handlers on success.
func (c *Config) Reload() error {
	if err := c.Load(); err != nil {
		return err
	}

	c.cbMu.Lock()
	handlers := make([]ReloadHandler, len(c.callbacks))
	copy(handlers, c.callbacks)
	c.cbMu.Unlock()

	for _, h := range handlers {
		if h != nil {
			h(c)
		}
	}
	if c.bus != nil {
		c.bus.Emit(event.TopicConfigReload, "config", map[string]any{"path": c.path})
	}
	return nil
}

// OnReload registers a handler called after each successful reload.
// The returned function unregisters it.
func (c *Config) OnReload(h ReloadHandler) func() {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	c.callbacks = append(c.callbacks, h)
	idx := len(c.callbacks) - 1
	return func() {
		c.cbMu.Lock()
		defer c.cbMu.Unlock()
		if idx < len(c.callbacks) {
			c.callbacks[idx] = nil
		}
	}
}

// Path returns the configuration file path, or "".
func (c *Config) Path() string {
	return c.path
}

// Get retrieves a raw value by dot-separated path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getByPath(c.values, path)
}

// GetString retrieves a string value.
func (c *Config) GetString(path string) (string, error) {
	val, ok := c.Get(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrType, path, val)
	}
	return s, nil
}

// GetInt retrieves an integer value. TOML and environment integers
// arrive as int64.
func (c *Config) GetInt(path string) (int, error) {
	val, ok := c.Get(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, want int", ErrType, path, val)
	}
}

// GetFloat retrieves a float value.
func (c *Config) GetFloat(path string) (float64, error) {
	val, ok := c.Get(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, want float", ErrType, path, val)
	}
}

// GetBool retrieves a boolean value.
func (c *Config) GetBool(path string) (bool, error) {
	val, ok := c.Get(path)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, want bool", ErrType, path, val)
	}
	return b, nil
}

// GetStringSlice retrieves a list of strings.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	val, ok := c.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s contains %T, want string", ErrType, path, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want string list", ErrType, path, val)
	}
}

// Set overrides a value at runtime. The override lasts until the next
// Load or Reload.
func (c *Config) Set(path string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setByPath(c.values, path, value)
}

// All returns a deep copy of the merged configuration.
func (c *Config) All() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneMap(c.values)
}

func (c *Config) getStringOr(path, def string) string {
	if s, err := c.GetString(path); err == nil {
		return s
	}
	return def
}

func (c *Config) getIntOr(path string, def int) int {
	if i, err := c.GetInt(path); err == nil {
		return i
	}
	return def
}

func (c *Config) getBoolOr(path string, def bool) bool {
	if b, err := c.GetBool(path); err == nil {
		return b
	}
	return def
}

func (c *Config) getMap(path string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := getByPath(c.values, path)
	if !ok {
		return map[string]any{}
	}
	m, ok := val.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return cloneMap(m)
}
