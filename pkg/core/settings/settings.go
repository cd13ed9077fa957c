// Package settings loads process configuration: server settings from
// FINREPORT_* environment variables and LLM routing from models.yaml.
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/pipeline"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Prefix is the environment variable prefix.
const Prefix = "FINREPORT"

// Settings is the complete process configuration. The groups are embedded
// so their variables share the FINREPORT_ prefix directly.
type Settings struct {
	Server
	Logging
	Storage
	Analysis
	Paths
}

type Server struct {
	Port            int           `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	MaxUploadMB     int64         `envconfig:"MAX_UPLOAD_MB" default:"32" validate:"min=1"`
}

type Logging struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"`
}

type Storage struct {
	// DatabaseURL enables the Postgres vault. The unprefixed DATABASE_URL
	// is read too.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	ReportDir   string `envconfig:"REPORT_DIR" default:".cache/reports"`
	Disabled    bool   `envconfig:"STORAGE_DISABLED"`
}

type Analysis struct {
	Extraction      string        `envconfig:"EXTRACTION" default:"auto" validate:"oneof=auto tables text"`
	LLM             string        `envconfig:"LLM_MODE" default:"sections" validate:"oneof=off sections structured"`
	Strict          bool          `envconfig:"STRICT"`
	MaxPromptTokens int           `envconfig:"MAX_PROMPT_TOKENS" default:"3000" validate:"min=100"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"3m"`
}

type Paths struct {
	Models string `envconfig:"MODELS_PATH" default:"config/models.yaml" validate:"required"`
	// Prompts holds an optional prompts/ and schemas/ tree overriding the
	// built-in prompt library.
	Prompts string `envconfig:"PROMPT_DIR" default:"resources"`
}

// Load reads settings from the environment and validates them.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load settings from env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	if s.Analysis.LLMTimeout <= 0 {
		return fmt.Errorf("settings validation failed: LLM_TIMEOUT must be positive")
	}
	return nil
}

// Pipeline returns the orchestrator configuration.
func (s *Settings) Pipeline() pipeline.Config {
	return pipeline.Config{
		Extraction:      pipeline.ExtractionMode(s.Analysis.Extraction),
		LLM:             pipeline.LLMMode(s.Analysis.LLM),
		Strict:          s.Analysis.Strict,
		MaxPromptTokens: s.Analysis.MaxPromptTokens,
		LLMTimeout:      s.Analysis.LLMTimeout,
	}
}

// Addr is the listen address.
func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Server.Port)
}

// LoadModels reads the LLM routing file. A missing file yields the zero
// config, which routes everything to the default provider.
func LoadModels(path string) (agent.Config, error) {
	var cfg agent.Config
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for name, a := range cfg.Agents {
		if a.MaxTokens < 0 || a.Temperature < 0 || a.Temperature > 2 {
			return cfg, fmt.Errorf("agent %q: max_tokens must be >= 0 and temperature in [0, 2]", name)
		}
	}
	return cfg, nil
}
