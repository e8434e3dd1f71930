package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/meshstorm/internal/event"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshstorm.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c := New(WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ap := c.Applier()
	if ap.Kind != "faces" {
		t.Errorf("default kind = %q, want faces", ap.Kind)
	}
	if ap.Operator != "mesh.inset" {
		t.Errorf("default operator = %q, want mesh.inset", ap.Operator)
	}
	if th, ok := ap.Params["thickness"].(float64); !ok || th != 0.05 {
		t.Errorf("default thickness = %v, want 0.05", ap.Params["thickness"])
	}
	if lv := c.Logging().Level; lv != "info" {
		t.Errorf("default log level = %q, want info", lv)
	}
	if !c.Session().ShowStatus {
		t.Error("default showStatus = false, want true")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
[applier]
kind = "edges"
operator = "mesh.smooth"

[applier.params]
factor = 0.5

[logging]
level = "debug"
`)

	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ap := c.Applier()
	if ap.Kind != "edges" || ap.Operator != "mesh.smooth" {
		t.Errorf("applier = %+v, want edges/mesh.smooth", ap)
	}
	if f, ok := ap.Params["factor"].(float64); !ok || f != 0.5 {
		t.Errorf("factor = %v, want 0.5", ap.Params["factor"])
	}
	if lv := c.Logging().Level; lv != "debug" {
		t.Errorf("level = %q, want debug", lv)
	}
	// Untouched sections keep their defaults.
	if th := c.Session().Theme; th != "dark" {
		t.Errorf("theme = %q, want dark", th)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(WithPath(filepath.Join(t.TempDir(), "absent.toml")), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if c.Applier().Kind != "faces" {
		t.Error("missing file should leave defaults intact")
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := writeConfigFile(t, "applier = {{{")
	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err == nil {
		t.Fatal("Load with malformed TOML should fail")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "[applier]\nkind = \"edges\"\n")
	t.Setenv("MESHSTORM_APPLIER_KIND", "verts")

	c := New(WithPath(path))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := c.Applier().Kind; k != "verts" {
		t.Errorf("kind = %q, want env override verts", k)
	}
}

func TestEnvMapping(t *testing.T) {
	t.Setenv("MESHSTORM_LOG_LEVEL", "warn")
	t.Setenv("MESHSTORM_ANTHROPIC_KEY", "sk-test")

	c := New()
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lv := c.Logging().Level; lv != "warn" {
		t.Errorf("level = %q, want warn", lv)
	}
	if key := c.Assist().AnthropicKey; key != "sk-test" {
		t.Errorf("anthropic key = %q, want sk-test", key)
	}
}

func TestEnvDisabled(t *testing.T) {
	t.Setenv("MESHSTORM_APPLIER_KIND", "verts")

	c := New(WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := c.Applier().Kind; k != "faces" {
		t.Errorf("kind = %q, env should be ignored", k)
	}
}

func TestTypedGetters(t *testing.T) {
	c := New(WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s, err := c.GetString("applier.operator"); err != nil || s != "mesh.inset" {
		t.Errorf("GetString = %q, %v", s, err)
	}
	if n, err := c.GetInt("assist.maxTokens"); err != nil || n != 1024 {
		t.Errorf("GetInt = %d, %v", n, err)
	}
	if f, err := c.GetFloat("applier.params.thickness"); err != nil || f != 0.05 {
		t.Errorf("GetFloat = %v, %v", f, err)
	}
	if b, err := c.GetBool("session.showStatus"); err != nil || !b {
		t.Errorf("GetBool = %v, %v", b, err)
	}

	if _, err := c.GetString("no.such.key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key error = %v, want ErrNotFound", err)
	}
	if _, err := c.GetInt("applier.kind"); !errors.Is(err, ErrType) {
		t.Errorf("type mismatch error = %v, want ErrType", err)
	}
	if _, err := c.GetBool("applier.params.thickness"); !errors.Is(err, ErrType) {
		t.Errorf("type mismatch error = %v, want ErrType", err)
	}
}

func TestGetStringSlice(t *testing.T) {
	path := writeConfigFile(t, "[scripts]\npaths = [\"init.lua\", \"ops.lua\"]\n")
	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	paths, err := c.GetStringSlice("scripts.paths")
	if err != nil {
		t.Fatalf("GetStringSlice: %v", err)
	}
	if len(paths) != 2 || paths[0] != "init.lua" || paths[1] != "ops.lua" {
		t.Errorf("paths = %v", paths)
	}
	if got := c.Scripts().Paths; len(got) != 2 {
		t.Errorf("Scripts().Paths = %v", got)
	}
}

func TestSetOverride(t *testing.T) {
	c := New(WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.Set("applier.kind", "verts")
	if k := c.Applier().Kind; k != "verts" {
		t.Errorf("kind after Set = %q, want verts", k)
	}

	// Load resets runtime overrides.
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := c.Applier().Kind; k != "faces" {
		t.Errorf("kind after reload = %q, want faces", k)
	}
}

func TestApplierParamsAreCopied(t *testing.T) {
	c := New(WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ap := c.Applier()
	ap.Params["thickness"] = 99.0

	if f, err := c.GetFloat("applier.params.thickness"); err != nil || f != 0.05 {
		t.Errorf("stored thickness = %v, %v; snapshot mutation leaked", f, err)
	}
}

func TestPresets(t *testing.T) {
	path := writeConfigFile(t, `
[presets.shrink]
kind = "faces"
operator = "mesh.inset"

[presets.shrink.params]
thickness = 0.2

[presets.relax]
operator = "mesh.smooth"
`)
	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	names := c.Presets()
	if len(names) != 2 || names[0] != "relax" || names[1] != "shrink" {
		t.Fatalf("Presets() = %v, want [relax shrink]", names)
	}

	p, err := c.Preset("shrink")
	if err != nil {
		t.Fatalf("Preset(shrink): %v", err)
	}
	if p.Kind != "faces" || p.Operator != "mesh.inset" {
		t.Errorf("shrink = %+v", p)
	}
	if th, ok := p.Params["thickness"].(float64); !ok || th != 0.2 {
		t.Errorf("shrink thickness = %v, want 0.2", p.Params["thickness"])
	}

	relax, err := c.Preset("relax")
	if err != nil {
		t.Fatalf("Preset(relax): %v", err)
	}
	if relax.Kind != "faces" {
		t.Errorf("relax kind = %q, want faces default", relax.Kind)
	}
	if len(relax.Params) != 0 {
		t.Errorf("relax params = %v, want empty", relax.Params)
	}
}

func TestPresetErrors(t *testing.T) {
	path := writeConfigFile(t, "[presets.broken]\nkind = \"verts\"\n")
	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := c.Preset("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Preset(nope) err = %v, want ErrNotFound", err)
	}
	if _, err := c.Preset("broken"); err == nil {
		t.Error("Preset(broken) succeeded, want missing-operator error")
	}
	if names := c.Presets(); len(names) != 1 || names[0] != "broken" {
		t.Errorf("Presets() = %v, want [broken]", names)
	}
}

func TestOnReload(t *testing.T) {
	bus := event.NewBus()
	var reloads int
	bus.Subscribe(event.TopicConfigReload, func(event.Event) { reloads++ })

	c := New(WithEnv(false), WithEventBus(bus))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var called int
	off := c.OnReload(func(*Config) { called++ })

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if called != 1 {
		t.Errorf("handler called %d times, want 1", called)
	}
	if reloads != 1 {
		t.Errorf("bus saw %d reload events, want 1", reloads)
	}

	off()
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if called != 1 {
		t.Errorf("handler called %d times after unregister, want 1", called)
	}
}

func TestEnvToPath(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"MESHSTORM_APPLIER_KIND", "applier.kind"},
		{"MESHSTORM_APPLIER_MAX_STEPS", "applier.maxSteps"},
		{"MESHSTORM_SESSION_SHOW_STATUS", "session.showStatus"},
		{"MESHSTORM_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := envToPath(tt.env, "MESHSTORM_"); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseEnvValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"off", false},
		{"42", int64(42)},
		{"0.5", 0.5},
		{"750ms", 750 * time.Millisecond},
		{"plain", "plain"},
		{"", ""},
		{`["a","b"]`, []any{"a", "b"}},
	}
	for _, tt := range tests {
		got := parseEnvValue(tt.in)
		switch want := tt.want.(type) {
		case []any:
			gotSlice, ok := got.([]any)
			if !ok || len(gotSlice) != len(want) {
				t.Errorf("parseEnvValue(%q) = %#v, want %#v", tt.in, got, tt.want)
				continue
			}
			for i := range want {
				if gotSlice[i] != want[i] {
					t.Errorf("parseEnvValue(%q)[%d] = %v, want %v", tt.in, i, gotSlice[i], want[i])
				}
			}
		default:
			if got != tt.want {
				t.Errorf("parseEnvValue(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"applier": map[string]any{
			"kind":   "faces",
			"params": map[string]any{"thickness": 0.05},
		},
		"keep": "me",
	}
	src := map[string]any{
		"applier": map[string]any{
			"params": map[string]any{"depth": 1.0},
		},
	}

	out := DeepMerge(dst, src)
	if v, _ := getByPath(out, "applier.kind"); v != "faces" {
		t.Errorf("applier.kind = %v, sibling lost in merge", v)
	}
	if v, _ := getByPath(out, "applier.params.thickness"); v != 0.05 {
		t.Errorf("applier.params.thickness = %v", v)
	}
	if v, _ := getByPath(out, "applier.params.depth"); v != 1.0 {
		t.Errorf("applier.params.depth = %v", v)
	}
	if v, _ := getByPath(out, "keep"); v != "me" {
		t.Errorf("keep = %v", v)
	}
}

func TestSetByPathCreatesIntermediates(t *testing.T) {
	m := map[string]any{}
	setByPath(m, "a.b.c", 7)
	if v, ok := getByPath(m, "a.b.c"); !ok || v != 7 {
		t.Errorf("a.b.c = %v, %v", v, ok)
	}
	if _, ok := getByPath(m, "a.b.missing"); ok {
		t.Error("missing leaf reported present")
	}
	if _, ok := getByPath(m, "a.b.c.d"); ok {
		t.Error("path through scalar reported present")
	}
}

func TestWatchNoPath(t *testing.T) {
	c := New(WithEnv(false))
	if err := c.Watch(); !errors.Is(err, ErrNoPath) {
		t.Errorf("Watch without path = %v, want ErrNoPath", err)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeConfigFile(t, "[applier]\nkind = \"faces\"\n")

	c := New(WithPath(path), WithEnv(false))
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	c.OnReload(func(*Config) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	if err := c.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer c.StopWatch()
	if !c.Watching() {
		t.Fatal("Watching() = false after Watch")
	}

	if err := os.WriteFile(path, []byte("[applier]\nkind = \"edges\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload within 3s of file change")
	}

	if k := c.Applier().Kind; k != "edges" {
		t.Errorf("kind after reload = %q, want edges", k)
	}
}
