// Package assist turns natural-language modeling requests into operator
// plans by asking an LLM provider for a single JSON object naming the
// element kind, the operator and its parameters. The caller decides
// whether to execute the plan.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/logging"
)

// Assist package errors.
var (
	// ErrUnknownProvider is returned for a provider name nothing matches.
	ErrUnknownProvider = errors.New("assist: unknown provider")

	// ErrNoAPIKey is returned when the selected provider has no key.
	ErrNoAPIKey = errors.New("assist: missing api key")

	// ErrBadReply is returned when the model reply holds no usable plan.
	ErrBadReply = errors.New("assist: malformed model reply")

	// ErrUnknownOperator is returned when the plan names an operator the
	// engine does not know.
	ErrUnknownOperator = errors.New("assist: plan names an unknown operator")
)

// Provider names accepted by NewProvider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Provider completes a prompt against one model backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Complete sends the system and user prompts and returns the raw
	// model text.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and parameterizes a provider.
type Config struct {
	// Provider is one of the Provider* names. Empty picks anthropic.
	Provider string

	// Model overrides the provider's default model when set.
	Model string

	// MaxTokens caps the reply length. Zero or less picks 1024.
	MaxTokens int64

	// APIKey authenticates against the provider.
	APIKey string
}

// NewProvider builds the provider the config names.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = ProviderAnthropic
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, name)
	}
	switch name {
	case ProviderAnthropic:
		return newAnthropicProvider(cfg), nil
	case ProviderOpenAI:
		return newOpenAIProvider(cfg), nil
	case ProviderGemini, "google":
		return newGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Plan is one operator invocation proposed by the model.
type Plan struct {
	Kind     string         `json:"kind"`
	Operator string         `json:"operator"`
	Params   map[string]any `json:"params,omitempty"`
	Note     string         `json:"note,omitempty"`
}

func (p *Plan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s on selected %s", p.Operator, p.Kind)
	if len(p.Params) > 0 {
		fmt.Fprintf(&sb, " with %v", p.Params)
	}
	if p.Note != "" {
		fmt.Fprintf(&sb, " (%s)", p.Note)
	}
	return sb.String()
}

// Planner asks a provider for plans and validates them.
type Planner struct {
	provider Provider
	ops      []string
	log      *logging.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithOps restricts plans to the given operator names. The list is also
// shown to the model.
func WithOps(ops []string) PlannerOption {
	return func(p *Planner) {
		p.ops = ops
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) PlannerOption {
	return func(p *Planner) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPlanner creates a planner on top of the provider.
func NewPlanner(provider Provider, opts ...PlannerOption) *Planner {
	p := &Planner{provider: provider}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Default()
	}
	p.log = p.log.WithComponent("assist")
	return p
}

// Plan asks the provider to turn the request into one operator
// invocation and validates the reply.
func (pl *Planner) Plan(ctx context.Context, prompt string) (*Plan, error) {
	raw, err := pl.provider.Complete(ctx, systemPrompt(pl.ops), prompt)
	if err != nil {
		return nil, err
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		pl.log.Warn("unusable reply from %s: %v", pl.provider.Name(), err)
		return nil, err
	}
	if err := pl.validate(plan); err != nil {
		return nil, err
	}

	pl.log.Info("planned %s on %s", plan.Operator, plan.Kind)
	return plan, nil
}

func (pl *Planner) validate(p *Plan) error {
	if _, err := mesh.ParseKind(p.Kind); err != nil {
		return fmt.Errorf("%w: kind %q", ErrBadReply, p.Kind)
	}
	if len(pl.ops) == 0 {
		return nil
	}
	for _, op := range pl.ops {
		if op == p.Operator {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperator, p.Operator)
}

func systemPrompt(ops []string) string {
	var sb strings.Builder
	sb.WriteString("You turn a mesh modeling request into one operator invocation.\n")
	sb.WriteString("The operator will run once per selected element of the chosen kind.\n")
	sb.WriteString("Reply with a single JSON object and nothing else:\n")
	sb.WriteString(`{"kind": "verts"|"edges"|"faces", "operator": "<name>", "params": {...}, "note": "<short reason>"}`)
	sb.WriteString("\n")
	if len(ops) > 0 {
		sb.WriteString("Known operators: ")
		sb.WriteString(strings.Join(ops, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ParsePlan extracts a plan from raw model output. Replies wrapped in
// prose or markdown fences are tolerated; only the outermost JSON
// object is read.
func ParsePlan(raw string) (*Plan, error) {
	body := jsonBody(raw)
	if body == "" || !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: no JSON object found", ErrBadReply)
	}
	root := gjson.Parse(body)

	op := root.Get("operator").String()
	if op == "" {
		op = root.Get("op").String()
	}
	if op == "" {
		return nil, fmt.Errorf("%w: missing operator", ErrBadReply)
	}

	plan := &Plan{
		Kind:     root.Get("kind").String(),
		Operator: op,
		Note:     root.Get("note").String(),
	}
	if plan.Kind == "" {
		plan.Kind = mesh.KindFaces.String()
	}
	if params, ok := root.Get("params").Value().(map[string]any); ok {
		plan.Params = params
	}
	return plan, nil
}

// jsonBody cuts the outermost {...} span out of a reply, dropping any
// surrounding prose or code fences.
func jsonBody(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
