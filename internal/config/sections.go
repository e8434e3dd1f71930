package config

import (
	"fmt"
	"sort"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string
	JSON  bool
}

// Logging returns the logging section.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level: c.getStringOr("logging.level", "info"),
		JSON:  c.getBoolOr("logging.json", false),
	}
}

// ApplierConfig holds the default per-element apply setup: which
// element kind to walk, which operator to invoke, and its parameters.
type ApplierConfig struct {
	Kind     string
	Operator string
	Params   map[string]any
}

// Applier returns the applier section. Params is a deep copy.
func (c *Config) Applier() ApplierConfig {
	return ApplierConfig{
		Kind:     c.getStringOr("applier.kind", "faces"),
		Operator: c.getStringOr("applier.operator", "mesh.inset"),
		Params:   c.getMap("applier.params"),
	}
}

// Preset returns the applier setup stored under [presets.<name>].
// Kind defaults to faces when the preset omits it; the operator is
// required.
func (c *Config) Preset(name string) (ApplierConfig, error) {
	base := "presets." + name
	if _, ok := c.Get(base); !ok {
		return ApplierConfig{}, fmt.Errorf("%w: preset %q", ErrNotFound, name)
	}
	op := c.getStringOr(base+".operator", "")
	if op == "" {
		return ApplierConfig{}, fmt.Errorf("config: preset %q missing operator", name)
	}
	return ApplierConfig{
		Kind:     c.getStringOr(base+".kind", "faces"),
		Operator: op,
		Params:   c.getMap(base + ".params"),
	}, nil
}

// Presets returns the configured preset names, sorted.
func (c *Config) Presets() []string {
	m := c.getMap("presets")
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssistConfig holds AI assistant settings. API keys normally come
// from the environment rather than the config file.
type AssistConfig struct {
	Provider     string
	Model        string
	MaxTokens    int
	AnthropicKey string
	OpenAIKey    string
	GeminiKey    string
}

// Assist returns the assist section.
func (c *Config) Assist() AssistConfig {
	return AssistConfig{
		Provider:     c.getStringOr("assist.provider", "anthropic"),
		Model:        c.getStringOr("assist.model", ""),
		MaxTokens:    c.getIntOr("assist.maxTokens", 1024),
		AnthropicKey: c.getStringOr("assist.anthropicApiKey", ""),
		OpenAIKey:    c.getStringOr("assist.openaiApiKey", ""),
		GeminiKey:    c.getStringOr("assist.geminiApiKey", ""),
	}
}

// SessionConfig holds interactive session settings.
type SessionConfig struct {
	Theme      string
	ShowStatus bool
}

// Session returns the session section.
func (c *Config) Session() SessionConfig {
	return SessionConfig{
		Theme:      c.getStringOr("session.theme", "dark"),
		ShowStatus: c.getBoolOr("session.showStatus", true),
	}
}

// ScriptsConfig holds Lua script settings.
type ScriptsConfig struct {
	Paths []string
}

// Scripts returns the scripts section.
func (c *Config) Scripts() ScriptsConfig {
	paths, err := c.GetStringSlice("scripts.paths")
	if err != nil {
		paths = nil
	}
	return ScriptsConfig{Paths: paths}
}
