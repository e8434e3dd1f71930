package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// geminiProvider dials per call: the genai client owns a gRPC
// connection that wants a context at construction time.
type geminiProvider struct {
	apiKey    string
	model     string
	maxTokens int64
}

func newGeminiProvider(cfg Config) *geminiProvider {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiProvider{
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (p *geminiProvider) Name() string { return ProviderGemini }

func (p *geminiProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("assist: gemini: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SetMaxOutputTokens(int32(p.maxTokens))
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("assist: gemini: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: gemini returned no text", ErrBadReply)
	}
	return sb.String(), nil
}
