package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finreport_analyzer/pkg/core/llm"

	"github.com/rs/zerolog"
)

// Agent types used by the analysis pipeline.
const (
	// AgentSummary condenses raw statement text.
	AgentSummary = "summary"
	// AgentAnalysis writes the full five-part analysis.
	AgentAnalysis = "analysis"
	// AgentSection focuses the full analysis on one section.
	AgentSection = "section"
	// AgentStructured returns the whole report as a JSON object.
	AgentStructured = "structured"
)

// Config is loaded from config/models.yaml.
type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string  `yaml:"provider"` // Optional override
	Description string  `yaml:"description"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	JSON        bool    `yaml:"json"`
}

func (c AgentConfig) options() llm.Options {
	return llm.DefaultOptions().Merge(llm.Options{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		JSON:        c.JSON,
	})
}

// Manager routes prompts to the provider configured for each agent type.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	log       zerolog.Logger
}

func NewManager(config Config, log zerolog.Logger) *Manager {
	if config.ActiveProvider == "" {
		config.ActiveProvider = "openai"
	}
	return &Manager{
		config: config,
		log:    log.With().Str("component", "agent").Logger(),
		providers: map[string]llm.Provider{
			"openai":   llm.NewOpenAIProvider(),
			"gemini":   &llm.GeminiProvider{},
			"deepseek": &llm.DeepSeekProvider{},
			"qwen":     &llm.QwenProvider{},
			"kimi":     llm.NewKimiProvider(),
			"doubao":   llm.NewDoubaoProvider(),
			"claude":   &llm.ClaudeProvider{},
			"static":   &llm.StaticProvider{},
		},
	}
}

// Register adds or replaces a named provider.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// GetProvider resolves the provider for an agent type: the agent's own
// override, then the active provider, then openai.
func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, p := m.resolve(agentType)
	return p
}

func (m *Manager) resolve(agentType string) (string, llm.Provider) {
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return agentConfig.Provider, p
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return m.config.ActiveProvider, p
	}
	return "openai", m.providers["openai"]
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[name]; ok {
		return p
	}
	m.log.Debug().Str("provider", name).Strs("known", m.names()).Msg("provider not found")
	return nil
}

// Options returns the completion options configured for an agent type.
func (m *Manager) Options(agentType string) llm.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Agents[agentType].options()
}

// ExecutePrompt adapts the system messages to the chosen model's style and
// sends the conversation.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, messages []llm.Message) (string, error) {
	m.mu.RLock()
	name, provider := m.resolve(agentType)
	opts := m.config.Agents[agentType].options()
	m.mu.RUnlock()

	if provider == nil {
		return "", fmt.Errorf("no provider available for agent %q", agentType)
	}

	adapted := make([]llm.Message, len(messages))
	for i, msg := range messages {
		if msg.Role == llm.RoleSystem {
			msg.Content = provider.AdaptInstructions(msg.Content)
		}
		adapted[i] = msg
	}

	m.log.Debug().
		Str("agent", agentType).
		Str("provider", name).
		Str("model", opts.Model).
		Int("max_tokens", opts.MaxTokens).
		Msg("executing prompt")

	out, err := provider.GenerateResponse(ctx, adapted, opts)
	if err != nil {
		m.log.Warn().Err(err).Str("agent", agentType).Str("provider", name).Msg("prompt failed")
		return "", err
	}
	return out, nil
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.log.Info().Str("provider", newProvider).Msg("global provider set")
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Providers lists registered provider names in order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names()
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.providers))
	for k := range m.providers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
