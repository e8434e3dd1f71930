// Package main is the entry point for the meshstorm CLI.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sanity-io/litter"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/dshills/meshstorm/internal/app"
	"github.com/dshills/meshstorm/internal/config"
	"github.com/dshills/meshstorm/internal/engine/geom"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/meshio"
	"github.com/dshills/meshstorm/internal/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "run":
		return cmdRun(args[1:])
	case "script":
		return cmdScript(args[1:])
	case "view":
		return cmdView(args[1:])
	case "assist":
		return cmdAssist(args[1:])
	case "info":
		return cmdInfo(args[1:])
	case "version", "-v", "-version", "--version":
		fmt.Printf("Meshstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	case "help", "-h", "-help", "--help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Meshstorm - terminal mesh editing toolkit\n\n")
	fmt.Fprintf(os.Stderr, "Usage: meshstorm <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run      apply a mesh operator to each selected element\n")
	fmt.Fprintf(os.Stderr, "  script   run a Lua script against a mesh\n")
	fmt.Fprintf(os.Stderr, "  view     open the interactive terminal session\n")
	fmt.Fprintf(os.Stderr, "  assist   plan an operator run from a natural-language prompt\n")
	fmt.Fprintf(os.Stderr, "  info     print mesh statistics\n")
	fmt.Fprintf(os.Stderr, "  version  print version information\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  meshstorm run -mesh cube.obj -op mesh.inset -params '{\"thickness\":0.1}' -out done.obj\n")
	fmt.Fprintf(os.Stderr, "  meshstorm run -mesh cube.obj -preset shrink -select 0,2,4\n")
	fmt.Fprintf(os.Stderr, "  meshstorm script -mesh cube.obj setup.lua\n")
	fmt.Fprintf(os.Stderr, "  meshstorm view -mesh cube.obj -watch\n")
	fmt.Fprintf(os.Stderr, "  meshstorm assist -mesh cube.obj -prompt \"inset every face a little\"\n\n")
	fmt.Fprintf(os.Stderr, "Run 'meshstorm <command> -h' for command flags.\n")
}

// appOptions registers the flags shared by every command that boots the
// full application. JSON logging defaults on when stderr is piped.
func appOptions(fs *flag.FlagSet) *app.Options {
	opts := &app.Options{}
	fs.StringVar(&opts.ConfigPath, "config", "", "path to configuration file")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&opts.JSONLog, "json-log", !term.IsTerminal(int(os.Stderr.Fd())),
		"encode logs as JSON (defaults on when stderr is not a terminal)")
	return opts
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	opts := appOptions(fs)
	meshPath := fs.String("mesh", "", "OBJ file to edit (required)")
	outPath := fs.String("out", "", "write the result mesh to this OBJ file")
	kindName := fs.String("kind", "", "element kind: verts, edges or faces")
	opName := fs.String("op", "", "mesh operator to apply, e.g. mesh.inset")
	paramsJSON := fs.String("params", "", "operator parameters as a JSON object")
	presetName := fs.String("preset", "", "named preset from the [presets] config section")
	selectSpec := fs.String("select", "all", "comma-separated element indices, or \"all\"")
	jsonOut := fs.Bool("json", false, "print the run report as JSON")
	fs.Parse(args)

	if *meshPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -mesh is required")
		return 2
	}
	opts.MeshPath = *meshPath

	a, err := app.New(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer a.Close()

	ac, err := resolveApplier(a.Config(), *presetName, *kindName, *opName, *paramsJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	kind, err := mesh.ParseKind(ac.Kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	indices, err := parseIndices(*selectSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := a.SelectElements(kind, indices); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	rep, err := a.ApplyOnce(kind, ac.Operator, ac.Params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOut {
		fmt.Println(rep.JSON())
	} else {
		fmt.Printf("applied %s to %d of %d %s in %s\n",
			rep.Operator, len(rep.Applied), len(rep.Captured), rep.Kind,
			rep.Elapsed.Round(time.Millisecond))
		if rep.TopologyChanged {
			fmt.Println("topology changed; restored selection is positional")
		}
	}

	if *outPath != "" {
		if err := a.SaveMesh(*outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %s\n", *outPath)
	}
	return 0
}

func cmdScript(args []string) int {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	opts := appOptions(fs)
	meshPath := fs.String("mesh", "", "OBJ file loaded before the script runs")
	outPath := fs.String("out", "", "write the active mesh to this OBJ file afterwards")
	timeout := fs.Duration("timeout", 0, "abort the script after this duration")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one script file is required")
		return 2
	}
	opts.MeshPath = *meshPath

	a, err := app.New(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if err := a.RunScript(ctx, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *outPath != "" {
		if err := a.SaveMesh(*outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func cmdView(args []string) int {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	opts := appOptions(fs)
	meshPath := fs.String("mesh", "", "OBJ file to edit")
	outPath := fs.String("out", "", "OBJ file the w key writes to")
	watch := fs.Bool("watch", false, "reload the configuration file on change")
	fs.Parse(args)

	opts.MeshPath = *meshPath
	opts.Watch = *watch

	a, err := app.New(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer a.Close()

	if a.Engine().ActiveObject() == nil {
		// Nothing loaded; edit a unit cube so the session has a scene.
		if _, err := a.Engine().AddObject("Cube", mesh.NewCube(2)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	s, err := session.New(session.Config{
		Engine:  a.Engine(),
		Conf:    a.Config(),
		Events:  a.Events(),
		Logger:  a.Logger(),
		OutPath: *outPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		s.Close()
	}()

	if err := s.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cmdAssist(args []string) int {
	fs := flag.NewFlagSet("assist", flag.ExitOnError)
	opts := appOptions(fs)
	meshPath := fs.String("mesh", "", "OBJ file to apply the plan to (omit for plan-only)")
	outPath := fs.String("out", "", "write the result mesh to this OBJ file")
	prompt := fs.String("prompt", "", "what to do, in plain language (required)")
	yes := fs.Bool("yes", false, "apply the plan without confirming")
	timeout := fs.Duration("timeout", 60*time.Second, "abort planning after this duration")
	jsonOut := fs.Bool("json", false, "print the run report as JSON")
	fs.Parse(args)

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: -prompt is required")
		return 2
	}
	opts.MeshPath = *meshPath

	a, err := app.New(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer a.Close()

	planner, err := a.Planner()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	a.Events().Emit(event.TopicAssistRequest, "cli", map[string]any{"prompt": *prompt})
	plan, err := planner.Plan(ctx, *prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("plan: %s\n", plan)

	if *meshPath == "" {
		return 0
	}
	if !*yes && !confirm("apply this plan?") {
		return 0
	}

	kind, err := mesh.ParseKind(plan.Kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := a.SelectElements(kind, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	rep, err := a.ApplyOnce(kind, plan.Operator, plan.Params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOut {
		fmt.Println(rep.JSON())
	} else {
		fmt.Printf("applied %s to %d of %d %s in %s\n",
			rep.Operator, len(rep.Applied), len(rep.Captured), rep.Kind,
			rep.Elapsed.Round(time.Millisecond))
	}

	if *outPath != "" {
		if err := a.SaveMesh(*outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %s\n", *outPath)
	}
	return 0
}

func cmdInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	meshPath := fs.String("mesh", "", "OBJ file to inspect")
	jsonOut := fs.Bool("json", false, "print statistics as JSON")
	dump := fs.Bool("dump", false, "dump the full mesh structure")
	fs.Parse(args)

	path := *meshPath
	if path == "" && fs.NArg() == 1 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: -mesh is required")
		return 2
	}

	m, err := meshio.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *dump {
		fmt.Print(litter.Sdump(m))
		fmt.Println()
		return 0
	}

	verts, edges, faces := m.Counts()
	min, max := meshBounds(m)
	colored := vertexColorCount(m)

	if *jsonOut {
		out := "{}"
		out, _ = sjson.Set(out, "name", m.Name)
		out, _ = sjson.Set(out, "counts.verts", verts)
		out, _ = sjson.Set(out, "counts.edges", edges)
		out, _ = sjson.Set(out, "counts.faces", faces)
		out, _ = sjson.Set(out, "bounds.min", []float64{min.X, min.Y, min.Z})
		out, _ = sjson.Set(out, "bounds.max", []float64{max.X, max.Y, max.Z})
		out, _ = sjson.Set(out, "coloredVerts", colored)
		fmt.Println(out)
		return 0
	}

	fmt.Printf("%s: %d verts, %d edges, %d faces\n", m.Name, verts, edges, faces)
	fmt.Printf("bounds: %s to %s\n", min, max)
	if colored > 0 {
		fmt.Printf("vertex colors: %d of %d\n", colored, verts)
	}
	return 0
}

// resolveApplier layers the command-line flags over the preset (when
// named) or the configured applier defaults.
func resolveApplier(cfg *config.Config, preset, kind, op, paramsJSON string) (config.ApplierConfig, error) {
	ac := cfg.Applier()
	if preset != "" {
		p, err := cfg.Preset(preset)
		if err != nil {
			return config.ApplierConfig{}, err
		}
		ac = p
	}
	if kind != "" {
		ac.Kind = kind
	}
	if op != "" {
		ac.Operator = op
	}
	if paramsJSON != "" {
		params, err := parseParams(paramsJSON)
		if err != nil {
			return config.ApplierConfig{}, err
		}
		ac.Params = params
	}
	return ac, nil
}

func parseParams(s string) (map[string]any, error) {
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("params: invalid JSON")
	}
	m, ok := gjson.Parse(s).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params: expected a JSON object")
	}
	return m, nil
}

func parseIndices(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "all" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("select: bad index %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func meshBounds(m *mesh.Mesh) (min, max geom.Vec3) {
	verts, _, _ := m.Counts()
	if verts == 0 {
		return geom.Vec3{}, geom.Vec3{}
	}
	min = m.Vert(0).Co
	max = m.Vert(0).Co
	for i := 1; i < verts; i++ {
		co := m.Vert(i).Co
		if co.X < min.X {
			min.X = co.X
		}
		if co.Y < min.Y {
			min.Y = co.Y
		}
		if co.Z < min.Z {
			min.Z = co.Z
		}
		if co.X > max.X {
			max.X = co.X
		}
		if co.Y > max.Y {
			max.Y = co.Y
		}
		if co.Z > max.Z {
			max.Z = co.Z
		}
	}
	return min, max
}

func vertexColorCount(m *mesh.Mesh) int {
	verts, _, _ := m.Counts()
	n := 0
	for i := 0; i < verts; i++ {
		c := m.Vert(i).Col
		if c.R != 1 || c.G != 1 || c.B != 1 {
			n++
		}
	}
	return n
}
