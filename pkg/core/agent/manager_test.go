package agent

import (
	"context"
	"errors"
	"testing"

	"finreport_analyzer/pkg/core/llm"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(cfg Config) (*Manager, *llm.StaticProvider, *llm.StaticProvider) {
	m := NewManager(cfg, zerolog.Nop())
	a := &llm.StaticProvider{Responses: []string{"from-a"}}
	b := &llm.StaticProvider{Responses: []string{"from-b"}}
	m.Register("a", a)
	m.Register("b", b)
	return m, a, b
}

func TestGetProvider_Resolution(t *testing.T) {
	m, a, b := newTestManager(Config{
		ActiveProvider: "a",
		Agents: map[string]AgentConfig{
			AgentAnalysis: {Provider: "b"},
			AgentSummary:  {Provider: "missing"},
		},
	})

	assert.Same(t, b, m.GetProvider(AgentAnalysis))
	assert.Same(t, a, m.GetProvider(AgentSummary))
	assert.Same(t, a, m.GetProvider("unknown"))

	require.NoError(t, m.SetGlobalProvider("b"))
	assert.Same(t, b, m.GetProvider(AgentSummary))
	assert.Equal(t, "b", m.GetActiveProvider())

	assert.Error(t, m.SetGlobalProvider("nope"))
	assert.Nil(t, m.GetProviderByName("nope"))
}

func TestNewManager_DefaultsToOpenAI(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	assert.Equal(t, "openai", m.GetActiveProvider())
	assert.Contains(t, m.Providers(), "claude")
	assert.Contains(t, m.Providers(), "kimi")
}

func TestExecutePrompt_OptionsAndAdaptation(t *testing.T) {
	m, a, _ := newTestManager(Config{
		ActiveProvider: "a",
		Agents: map[string]AgentConfig{
			AgentSummary: {Model: "gpt-4o-mini", MaxTokens: 300},
		},
	})

	out, err := m.ExecutePrompt(context.Background(), AgentSummary, llm.Prompt("摘要"))
	require.NoError(t, err)
	assert.Equal(t, "from-a", out)
	require.Len(t, a.Calls(), 1)

	opts := m.Options(AgentSummary)
	assert.Equal(t, "gpt-4o-mini", opts.Model)
	assert.Equal(t, 300, opts.MaxTokens)
	assert.Equal(t, llm.DefaultTemperature, opts.Temperature)

	def := m.Options("other")
	assert.Equal(t, llm.DefaultMaxTokens, def.MaxTokens)
}

type recordingProvider struct {
	llm.StaticProvider
}

func (p *recordingProvider) AdaptInstructions(raw string) string { return "[" + raw + "]" }

func TestExecutePrompt_AdaptsSystemOnly(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "rec"}, zerolog.Nop())
	rec := &recordingProvider{}
	m.Register("rec", rec)

	_, err := m.ExecutePrompt(context.Background(), AgentAnalysis, llm.WithSystem("sys", llm.Message{Role: llm.RoleUser, Content: "q"}))
	require.NoError(t, err)
	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "[sys]", calls[0][0].Content)
	assert.Equal(t, "q", calls[0][1].Content)
}

func TestExecutePrompt_Error(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "bad"}, zerolog.Nop())
	m.Register("bad", &llm.StaticProvider{Err: errors.New("down")})
	_, err := m.ExecutePrompt(context.Background(), AgentSummary, llm.Prompt("x"))
	assert.ErrorIs(t, err, llm.ErrServiceError)
}
