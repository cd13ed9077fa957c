package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// DeepSeekProvider calls the DeepSeek chat API with its thinking mode
// switched off.
type DeepSeekProvider struct {
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*DeepSeekProvider)(nil)

// DeepSeekRequest is the chat completions body DeepSeek accepts.
type DeepSeekRequest struct {
	Messages         []Message      `json:"messages"`
	Model            string         `json:"model"`
	Thinking         *ThinkingParam `json:"thinking,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	MaxTokens        int            `json:"max_tokens"`
	PresencePenalty  float64        `json:"presence_penalty"`
	ResponseFormat   ResponseFormat `json:"response_format"`
	Stream           bool           `json:"stream"`
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"top_p"`
}

type ThinkingParam struct {
	Type string `json:"type"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if apiKey == "" {
		return "", serviceError("deepseek", "API_KEY_MISSING", errMissingKey([]string{"DEEPSEEK_API_KEY"}))
	}
	if _, _, err := splitSystem(messages); err != nil {
		return "", serviceError("deepseek", "BAD_REQUEST", err)
	}

	format := "text"
	if opts.JSON {
		format = "json_object"
	}
	reqBody := DeepSeekRequest{
		Messages:       messages,
		Model:          opts.model("deepseek-chat"),
		Thinking:       &ThinkingParam{Type: "disabled"},
		MaxTokens:      opts.maxTokens(),
		ResponseFormat: ResponseFormat{Type: format},
		Temperature:    opts.Temperature,
		TopP:           1.0,
	}

	base := p.BaseURL
	if base == "" {
		base = "https://api.deepseek.com"
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	var response chatResponse
	if err := postJSON(ctx, client, "deepseek", strings.TrimRight(base, "/")+"/chat/completions", apiKey, reqBody, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", serviceError("deepseek", "NO_CHOICES", nil)
	}
	return response.Choices[0].Message.Content, nil
}

func (p *DeepSeekProvider) AdaptInstructions(raw string) string {
	return raw
}

func errMissingKey(envs []string) error {
	return fmt.Errorf("please set %s", strings.Join(envs, " or "))
}
