package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// loadTOMLFile reads configuration from a TOML file. A missing file is
// not an error; it simply contributes nothing.
func loadTOMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return values, nil
}

// envMapping maps well-known environment variables to config paths.
// Variables outside the mapping are converted generically, so
// MESHSTORM_SESSION_SHOW_STATUS becomes session.showStatus.
func envMapping() map[string]string {
	return map[string]string{
		"MESHSTORM_LOG_LEVEL": "logging.level",
		// Sensitive settings
		"MESHSTORM_ANTHROPIC_KEY": "assist.anthropicApiKey",
		"MESHSTORM_OPENAI_KEY":    "assist.openaiApiKey",
		"MESHSTORM_GEMINI_KEY":    "assist.geminiApiKey",
	}
}

// loadEnv reads prefixed environment variables into a configuration map.
// Empty string values are treated as valid values, not as unset.
func loadEnv(prefix string) map[string]any {
	values := make(map[string]any)
	mapping := envMapping()

	for env, path := range mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(values, path, parseEnvValue(val))
		}
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if _, mapped := mapping[name]; mapped {
			continue
		}
		setByPath(values, envToPath(name, prefix), parseEnvValue(value))
	}

	return values
}

// envToPath converts MESHSTORM_APPLIER_MAX_STEPS to applier.maxSteps.
func envToPath(env, prefix string) string {
	name := strings.TrimPrefix(env, prefix)
	parts := strings.Split(name, "_")
	if len(parts) == 1 {
		return strings.ToLower(name)
	}

	section := strings.ToLower(parts[0])
	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if len(part) > 0 {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
}

// parseEnvValue attempts to parse the string into an appropriate type.
func parseEnvValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
