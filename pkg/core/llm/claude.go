package llm

import (
	"context"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider calls the Anthropic Messages API.
type ClaudeProvider struct {
	Model   string
	BaseURL string
	// MaxRetries bounds SDK-level retries; zero keeps the SDK default.
	MaxRetries int
}

var _ Provider = (*ClaudeProvider)(nil)

func (p *ClaudeProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return "", serviceError("claude", "API_KEY_MISSING", errMissingKey([]string{"ANTHROPIC_API_KEY"}))
	}
	system, turns, err := splitSystem(messages)
	if err != nil {
		return "", serviceError("claude", "BAD_REQUEST", err)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.BaseURL))
	}
	if p.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(p.MaxRetries))
	}
	client := anthropic.NewClient(reqOpts...)

	model := p.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.model(model)),
		MaxTokens: int64(opts.maxTokens()),
		Messages:  claudeMessages(turns),
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", serviceError("claude", "API_ERROR", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", serviceError("claude", "EMPTY_RESPONSE", nil)
	}
	return response.String(), nil
}

func claudeMessages(turns []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	return out
}

// AdaptInstructions wraps instructions in tags, which Claude follows closely.
func (p *ClaudeProvider) AdaptInstructions(raw string) string {
	if raw == "" {
		return raw
	}
	return "<instructions>\n" + raw + "\n</instructions>"
}
