package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// OpenAIProvider talks to any endpoint speaking the OpenAI chat completions
// protocol. Moonshot (Kimi) and Volcengine Ark (Doubao) expose the same
// shape, so they are configured instances of this type.
type OpenAIProvider struct {
	Name         string
	BaseURL      string
	DefaultModel string
	// KeyEnv lists environment variables consulted for the API key, in order.
	KeyEnv []string
	// Style is appended to system instructions.
	Style  string
	Client *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider() *OpenAIProvider {
	base := os.Getenv("OPENAI_BASE_URL")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		Name:         "openai",
		BaseURL:      base,
		DefaultModel: "gpt-3.5-turbo",
		KeyEnv:       []string{"OPENAI_API_KEY"},
	}
}

// NewKimiProvider targets Moonshot, which handles long statement text well.
func NewKimiProvider() *OpenAIProvider {
	return &OpenAIProvider{
		Name:         "kimi",
		BaseURL:      "https://api.moonshot.cn/v1",
		DefaultModel: "moonshot-v1-32k",
		KeyEnv:       []string{"MOONSHOT_API_KEY", "KIMI_API_KEY"},
		Style:        "請以條列方式、引用具體數字回答。",
	}
}

// NewDoubaoProvider targets Volcengine Ark. Ark model names are endpoint
// IDs, so the default usually needs overriding in the task config.
func NewDoubaoProvider() *OpenAIProvider {
	return &OpenAIProvider{
		Name:         "doubao",
		BaseURL:      "https://ark.cn-beijing.volces.com/api/v3",
		DefaultModel: "doubao-pro-32k",
		KeyEnv:       []string{"ARK_API_KEY", "DOUBAO_API_KEY"},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) apiKey(opts Options) string {
	if opts.APIKey != "" {
		return opts.APIKey
	}
	for _, env := range p.KeyEnv {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

func (p *OpenAIProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	key := p.apiKey(opts)
	if key == "" {
		return "", serviceError(p.Name, "API_KEY_MISSING", errMissingKey(p.KeyEnv))
	}
	if _, _, err := splitSystem(messages); err != nil {
		return "", serviceError(p.Name, "BAD_REQUEST", err)
	}

	reqBody := chatRequest{
		Model:       opts.model(p.DefaultModel),
		Messages:    messages,
		MaxTokens:   opts.maxTokens(),
		Temperature: opts.Temperature,
	}
	if opts.JSON {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	var response chatResponse
	if err := postJSON(ctx, p.client(), p.Name, strings.TrimRight(p.BaseURL, "/")+"/chat/completions", key, reqBody, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", serviceError(p.Name, "NO_CHOICES", nil)
	}
	return response.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) AdaptInstructions(raw string) string {
	if p.Style == "" || raw == "" {
		return raw
	}
	return raw + "\n" + p.Style
}

func (p *OpenAIProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// postJSON sends body as JSON with bearer auth and decodes a 200 response
// into out. Every failure is a ServiceError.
func postJSON(ctx context.Context, client *http.Client, provider, url, key string, body, out interface{}) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return serviceError(provider, "MARSHAL_ERROR", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return serviceError(provider, "REQ_CREATE_ERROR", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	res, err := client.Do(req)
	if err != nil {
		return serviceError(provider, "API_CALL_ERROR", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return serviceError(provider, "READ_BODY_ERROR", err)
	}
	if res.StatusCode != http.StatusOK {
		e := serviceError(provider, "API_ERROR", nil)
		e.Status = res.StatusCode
		e.Body = string(raw)
		return e
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return serviceError(provider, "UNMARSHAL_ERROR", err)
	}
	return nil
}
