package assist

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o"

type openAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func newOpenAIProvider(cfg Config) *openAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIProvider{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (p *openAIProvider) Name() string { return ProviderOpenAI }

func (p *openAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("assist: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrBadReply)
	}
	return resp.Choices[0].Message.Content, nil
}
