package llm

import (
	"context"
	"net/http"
	"os"
	"strings"
)

// QwenProvider calls the native DashScope text-generation API.
type QwenProvider struct {
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*QwenProvider)(nil)

type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		// some DashScope endpoints return text directly
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *QwenProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return "", serviceError("qwen", "API_KEY_MISSING", errMissingKey([]string{"DASHSCOPE_API_KEY", "QWEN_API_KEY"}))
	}
	if _, _, err := splitSystem(messages); err != nil {
		return "", serviceError("qwen", "BAD_REQUEST", err)
	}

	params := map[string]interface{}{
		"result_format": "message",
		"max_tokens":    opts.maxTokens(),
		"temperature":   opts.Temperature,
	}
	if opts.JSON {
		params["response_format"] = map[string]string{"type": "json_object"}
	}
	reqBody := map[string]interface{}{
		"model":      opts.model("qwen-max"),
		"input":      map[string]interface{}{"messages": messages},
		"parameters": params,
	}

	base := p.BaseURL
	if base == "" {
		base = "https://dashscope.aliyuncs.com"
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	var result qwenResponse
	url := strings.TrimRight(base, "/") + "/api/v1/services/aigc/text-generation/generation"
	if err := postJSON(ctx, client, "qwen", url, apiKey, reqBody, &result); err != nil {
		return "", err
	}
	if result.Code != "" {
		e := serviceError("qwen", "API_ERROR", nil)
		e.Body = result.Code + " - " + result.Message
		e.Code = "QWEN_API_ERROR: " + result.Code
		return "", e
	}
	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", serviceError("qwen", "EMPTY_RESPONSE", nil)
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}
