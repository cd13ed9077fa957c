package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7

	// DefaultSystemPrompt frames plain-text prompts.
	DefaultSystemPrompt = "你是一位專業的財務分析師，擅長解讀財務報表並提供深入的分析見解。"
)

// ErrServiceError matches every provider failure via errors.Is.
var ErrServiceError = errors.New("llm service error")

// Message is one conversation turn.
type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// Options tunes a single completion.
type Options struct {
	Model       string  `yaml:"model" json:"model,omitempty"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	// JSON asks the provider for a JSON object response where supported.
	JSON   bool   `yaml:"json" json:"json,omitempty"`
	APIKey string `yaml:"-" json:"-"`
}

// DefaultOptions returns the response budget and sampling used when a task
// configures nothing else.
func DefaultOptions() Options {
	return Options{MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature}
}

// Merge overlays the non-zero fields of o onto base.
func (base Options) Merge(o Options) Options {
	if o.Model != "" {
		base.Model = o.Model
	}
	if o.MaxTokens > 0 {
		base.MaxTokens = o.MaxTokens
	}
	if o.Temperature > 0 {
		base.Temperature = o.Temperature
	}
	if o.JSON {
		base.JSON = true
	}
	if o.APIKey != "" {
		base.APIKey = o.APIKey
	}
	return base
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}

func (o Options) model(fallback string) string {
	if o.Model != "" {
		return o.Model
	}
	return fallback
}

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error)
	// AdaptInstructions transforms raw system instructions into the style a
	// model follows best.
	AdaptInstructions(rawInstructions string) string
}

// Prompt wraps plain text with the default financial-analyst system message.
func Prompt(text string) []Message {
	return []Message{
		{Role: RoleSystem, Content: DefaultSystemPrompt},
		{Role: RoleUser, Content: text},
	}
}

// WithSystem prepends a system message.
func WithSystem(system string, turns ...Message) []Message {
	return append([]Message{{Role: RoleSystem, Content: system}}, turns...)
}

// splitSystem separates system instructions from conversation turns. Several
// system messages are joined with blank lines.
func splitSystem(messages []Message) (string, []Message, error) {
	var system []string
	turns := make([]Message, 0, len(messages))
	hasUser := false
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleUser:
			hasUser = true
			turns = append(turns, m)
		default:
			turns = append(turns, m)
		}
	}
	if !hasUser {
		return "", nil, fmt.Errorf("at least one message must have role 'user'")
	}
	return strings.Join(system, "\n\n"), turns, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ServiceError reports a failed provider call. Code follows the
// PROVIDER_REASON convention, e.g. DEEPSEEK_API_ERROR.
type ServiceError struct {
	Provider string
	Code     string
	Status   int
	Body     string
	Err      error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status=%d found=%s", e.Code, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrServiceError }

func serviceError(provider, reason string, err error) *ServiceError {
	return &ServiceError{Provider: provider, Code: strings.ToUpper(provider) + "_" + reason, Err: err}
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// StaticProvider answers from a fixed script. It backs offline runs and
// tests; the zero value echoes the last user message.
type StaticProvider struct {
	mu sync.Mutex
	// Responses are returned in order; the last one repeats.
	Responses []string
	// Err, when set, is returned from every call.
	Err   error
	calls [][]Message
}

var _ Provider = (*StaticProvider)(nil)

func (p *StaticProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", serviceError("static", "CANCELLED", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, messages)
	if p.Err != nil {
		return "", serviceError("static", "API_ERROR", p.Err)
	}
	if len(p.Responses) == 0 {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == RoleUser {
				return messages[i].Content, nil
			}
		}
		return "", nil
	}
	n := len(p.calls) - 1
	if n >= len(p.Responses) {
		n = len(p.Responses) - 1
	}
	return p.Responses[n], nil
}

func (p *StaticProvider) AdaptInstructions(raw string) string { return raw }

// Calls returns the message lists received so far.
func (p *StaticProvider) Calls() [][]Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]Message, len(p.calls))
	copy(out, p.calls)
	return out
}
