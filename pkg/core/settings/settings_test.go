package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, []string{"*"}, s.Server.AllowedOrigins)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, ".cache/reports", s.Storage.ReportDir)
	assert.Empty(t, s.Storage.DatabaseURL)

	cfg := s.Pipeline()
	assert.Equal(t, pipeline.ExtractAuto, cfg.Extraction)
	assert.Equal(t, pipeline.LLMSections, cfg.LLM)
	assert.Equal(t, 3000, cfg.MaxPromptTokens)
	assert.Equal(t, 3*time.Minute, cfg.LLMTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FINREPORT_PORT", "9090")
	t.Setenv("FINREPORT_LLM_MODE", "structured")
	t.Setenv("FINREPORT_STRICT", "true")
	t.Setenv("FINREPORT_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DATABASE_URL", "postgres://localhost/finreport")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, pipeline.LLMStructured, s.Pipeline().LLM)
	assert.True(t, s.Pipeline().Strict)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.Server.AllowedOrigins)
	assert.Equal(t, "postgres://localhost/finreport", s.Storage.DatabaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"FINREPORT_LLM_MODE":   "always",
		"FINREPORT_EXTRACTION": "ocr",
		"FINREPORT_LOG_FORMAT": "xml",
		"FINREPORT_PORT":       "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadModels(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadModels(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ActiveProvider)

	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
active_provider: deepseek
agents:
  summary:
    model: deepseek-chat
    max_tokens: 800
    temperature: 0.3
  structured:
    provider: qwen
    json: true
`), 0o644))
	cfg, err = LoadModels(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.ActiveProvider)
	assert.Equal(t, agent.AgentConfig{Model: "deepseek-chat", MaxTokens: 800, Temperature: 0.3}, cfg.Agents[agent.AgentSummary])
	assert.True(t, cfg.Agents[agent.AgentStructured].JSON)

	require.NoError(t, os.WriteFile(path, []byte("agents:\n  summary:\n    temperature: 3\n"), 0o644))
	_, err = LoadModels(path)
	assert.Error(t, err)
}
