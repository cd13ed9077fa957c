package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/hjson/hjson-go/v4"
)

//go:embed defaults
var builtin embed.FS

var promptExts = map[string]bool{".json": true, ".hjson": true}

// LoadFromDirectory loads prompts from baseDir into the global registry,
// overriding built-ins with the same ID. Expected structure:
//
//	baseDir/
//	  prompts/
//	    summary/
//	      text_summary.hjson
//	    analysis/
//	      full_report.hjson
//	  schemas/
//	    analysis_sections.json
func LoadFromDirectory(baseDir string) error {
	return Get().LoadDirectory(baseDir)
}

// LoadDirectory loads prompts and schemas from a directory on disk.
func (r *Registry) LoadDirectory(baseDir string) error {
	if _, err := os.Stat(baseDir); err != nil {
		return fmt.Errorf("prompt directory %s: %w", baseDir, err)
	}
	return r.LoadFS(os.DirFS(baseDir), ".")
}

// LoadFS loads prompts and schemas rooted at root inside fsys. A missing
// schemas directory is fine; a missing prompts directory is not.
func (r *Registry) LoadFS(fsys fs.FS, root string) error {
	promptDir := path.Join(root, "prompts")
	if err := loadPrompts(r, fsys, promptDir); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	if err := loadSchemas(r, fsys, path.Join(root, "schemas")); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}
	return nil
}

// loadPrompts recursively loads all .json and .hjson files from dir
func loadPrompts(r *Registry, fsys fs.FS, dir string) error {
	if _, err := fs.Stat(fsys, dir); err != nil {
		return fmt.Errorf("prompts directory not found: %s", dir)
	}

	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !promptExts[path.Ext(p)] {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var pt PromptTemplate
		if err := hjson.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		// files without an id are named after their path
		if pt.ID == "" {
			pt.ID = generateIDFromPath(p, dir)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(p, dir)
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

// loadSchemas loads schema files; the file content is the schema itself.
func loadSchemas(r *Registry, fsys fs.FS, dir string) error {
	if _, err := fs.Stat(fsys, dir); err != nil {
		return nil
	}

	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !promptExts[path.Ext(p)] {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", p, err)
		}

		baseName := strings.TrimSuffix(path.Base(p), path.Ext(p))
		return r.RegisterSchema(&ResponseSchema{
			ID:         baseName,
			Name:       baseName,
			JSONSchema: string(data),
		})
	})
}

// generateIDFromPath maps a file path to a dotted prompt ID:
// prompts/summary/text_summary.hjson becomes summary.text_summary.
func generateIDFromPath(p string, baseDir string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, baseDir), "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(rel, "/", ".")
}

// detectCategory is the first folder under prompts/, or "default".
func detectCategory(p string, baseDir string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, baseDir), "/")
	parts := strings.Split(rel, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

// RenderUserPrompt executes the user prompt template with the given context.
// Required variables without a value fail; optional ones take their default.
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}
	if ctx == nil {
		ctx = NewContext()
	}

	vars := make(map[string]interface{}, len(ctx.Variables)+len(pt.Variables))
	for _, v := range pt.Variables {
		if v.Default != "" {
			vars[v.Name] = v.Default
		}
	}
	for k, v := range ctx.Variables {
		vars[k] = v
	}
	for _, v := range pt.Variables {
		if _, ok := vars[v.Name]; v.Required && !ok {
			return "", fmt.Errorf("prompt %s: missing required variable %s", pt.ID, v.Name)
		}
	}

	tmpl, err := template.New(pt.ID).Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
