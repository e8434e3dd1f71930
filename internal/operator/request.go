package operator

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// RequestSource identifies where an invocation originated.
type RequestSource uint8

const (
	// SourceAPI indicates the request came from a direct API call.
	SourceAPI RequestSource = iota
	// SourceCLI indicates the request came from the command line.
	SourceCLI
	// SourceScript indicates the request came from a Lua script.
	SourceScript
	// SourceApplier indicates the request was issued by a per-element
	// applier run.
	SourceApplier
	// SourceAssist indicates the request came from an assist suggestion.
	SourceAssist
	// SourceSession indicates the request came from the interactive
	// terminal session.
	SourceSession
)

// String returns a string representation of the request source.
func (s RequestSource) String() string {
	switch s {
	case SourceAPI:
		return "api"
	case SourceCLI:
		return "cli"
	case SourceScript:
		return "script"
	case SourceApplier:
		return "applier"
	case SourceAssist:
		return "assist"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

// Params carries operator arguments by keyword.
type Params map[string]any

// Float returns the float value for key, or def when absent.
// Integer values widen to float.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the int value for key, or def when absent.
// Float values truncate.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Str returns the string value for key, or def when absent.
func (p Params) Str(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the bool value for key, or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Floats returns the []float64 value for key, unwrapping []any slices,
// or nil when absent or mistyped.
func (p Params) Floats(key string) []float64 {
	switch v := p[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, e := range v {
			switch n := e.(type) {
			case float64:
				out = append(out, n)
			case int:
				out = append(out, float64(n))
			case int64:
				out = append(out, float64(n))
			default:
				return nil
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamsFromJSON parses a JSON object into Params.
// An empty string yields empty params.
func ParamsFromJSON(s string) (Params, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Params{}, nil
	}
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("operator: invalid params JSON: %q", s)
	}
	parsed := gjson.Parse(s)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("operator: params must be a JSON object, got %q", s)
	}
	out := Params{}
	parsed.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.Value()
		return true
	})
	return out, nil
}

// Request is a single operator invocation.
type Request struct {
	// Name is the full dotted operator name (e.g., "mesh.inset").
	Name string

	// Params carries keyword arguments for the operator.
	Params Params

	// Source identifies where the invocation originated.
	Source RequestSource

	// Time is when the request was created.
	Time time.Time
}

// NewRequest creates a request stamped with the current time.
func NewRequest(name string, params Params, source RequestSource) Request {
	if params == nil {
		params = Params{}
	}
	return Request{Name: name, Params: params, Source: source, Time: time.Now()}
}

// Category returns the request's namespace: the segment before the first
// dot, or the whole name when there is no dot.
func (r Request) Category() string {
	if i := strings.Index(r.Name, "."); i >= 0 {
		return r.Name[:i]
	}
	return r.Name
}

// Op returns the operator name within its category, or the whole name
// when there is no dot.
func (r Request) Op() string {
	if i := strings.Index(r.Name, "."); i >= 0 {
		return r.Name[i+1:]
	}
	return r.Name
}

// String returns the request in "name(source)" form for logging.
func (r Request) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, r.Source)
}
