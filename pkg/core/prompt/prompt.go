// Package prompt provides the prompt library for LLM interactions. Prompts
// are hjson (or plain JSON) files loaded at runtime, so wording can change
// without code changes; a built-in set is embedded as the fallback.
package prompt

import "finreport_analyzer/pkg/core/llm"

// PromptTemplate is one prompt file. The user prompt is a text/template
// rendered against the caller's variables; response_schema_ref names a file
// under schemas/ whose text is exposed to the template as {{.Schema}}.
type PromptTemplate struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Description      string           `json:"description"`
	SystemPrompt     string           `json:"system_prompt"`
	UserPromptTmpl   string           `json:"user_prompt_template"`
	ResponseSchemaID string           `json:"response_schema_ref"`
	Variables        []PromptVariable `json:"variables"`
	Version          string           `json:"version"`
}

// PromptVariable declares a template input. Required inputs must be set by
// the caller; optional ones fall back to Default.
type PromptVariable struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// ResponseSchema is the JSON schema a structured reply must satisfy.
type ResponseSchema struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	JSONSchema  string `json:"json_schema"`
}

// PromptExecutionContext carries template variables for one render.
type PromptExecutionContext struct {
	Variables map[string]interface{}
}

func NewContext() *PromptExecutionContext {
	return &PromptExecutionContext{Variables: map[string]interface{}{}}
}

// Set stores a variable and returns c for chaining.
func (c *PromptExecutionContext) Set(key string, value interface{}) *PromptExecutionContext {
	c.Variables[key] = value
	return c
}

// Messages renders the template into a system + user conversation. A
// template without a system prompt gets the default analyst framing.
func Messages(pt *PromptTemplate, ctx *PromptExecutionContext) ([]llm.Message, error) {
	user, err := RenderUserPrompt(pt, ctx)
	if err != nil {
		return nil, err
	}
	system := pt.SystemPrompt
	if system == "" {
		system = llm.DefaultSystemPrompt
	}
	return llm.WithSystem(system, llm.Message{Role: llm.RoleUser, Content: user}), nil
}
