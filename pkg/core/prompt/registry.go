package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// SchemaVariable is the template variable that receives the JSON schema a
// prompt references through response_schema_ref.
const SchemaVariable = "Schema"

// Registry maps prompt IDs to templates and schema IDs to response schemas.
// Loading a file whose ID is already present replaces the earlier entry, which
// is how on-disk prompts override the embedded ones.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]*PromptTemplate
	schemas map[string]*ResponseSchema
}

var (
	shared     *Registry
	sharedOnce sync.Once
)

// NewRegistry returns a registry holding the embedded prompt set.
func NewRegistry() *Registry {
	r := &Registry{
		prompts: map[string]*PromptTemplate{},
		schemas: map[string]*ResponseSchema{},
	}
	if err := r.LoadFS(builtin, "defaults"); err != nil {
		panic(fmt.Sprintf("prompt: built-in prompts: %v", err))
	}
	return r
}

// Get returns the process-wide registry.
func Get() *Registry {
	sharedOnce.Do(func() { shared = NewRegistry() })
	return shared
}

func (r *Registry) Register(pt *PromptTemplate) error {
	if pt.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	r.prompts[pt.ID] = pt
	r.mu.Unlock()
	return nil
}

func (r *Registry) RegisterSchema(s *ResponseSchema) error {
	if s.ID == "" {
		return fmt.Errorf("schema ID cannot be empty")
	}
	r.mu.Lock()
	r.schemas[s.ID] = s
	r.mu.Unlock()
	return nil
}

func (r *Registry) GetPrompt(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pt, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	return pt, nil
}

func (r *Registry) GetSchema(id string) (*ResponseSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	if !ok {
		return nil, fmt.Errorf("schema not found: %s", id)
	}
	return s, nil
}

// schemaFor returns the schema text pt asks for, or "" when it names none.
func (r *Registry) schemaFor(pt *PromptTemplate) (string, error) {
	if pt.ResponseSchemaID == "" {
		return "", nil
	}
	s, err := r.GetSchema(pt.ResponseSchemaID)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", pt.ID, err)
	}
	return s.JSONSchema, nil
}

// ListPrompts returns the registered prompt IDs in sorted order.
func (r *Registry) ListPrompts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
