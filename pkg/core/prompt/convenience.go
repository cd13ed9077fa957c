package prompt

import "finreport_analyzer/pkg/core/llm"

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	TextSummary        string
	AnalysisFullReport string
	AnalysisSection    string
	AnalysisStructured string
}{
	TextSummary:        "summary.text_summary",
	AnalysisFullReport: "analysis.full_report",
	AnalysisSection:    "analysis.section",
	AnalysisStructured: "analysis.structured",
}

// Render looks a prompt up in r and renders it into chat messages. When the
// prompt references a response schema, the schema text is made available to
// the template as {{.Schema}}.
func (r *Registry) Render(id string, ctx *PromptExecutionContext) ([]llm.Message, error) {
	pt, err := r.GetPrompt(id)
	if err != nil {
		return nil, err
	}
	schema, err := r.schemaFor(pt)
	if err != nil {
		return nil, err
	}
	if schema != "" {
		if ctx == nil {
			ctx = NewContext()
		}
		if _, set := ctx.Variables[SchemaVariable]; !set {
			ctx.Set(SchemaVariable, schema)
		}
	}
	return Messages(pt, ctx)
}

// TextSummary builds the prompt condensing raw document text.
func (r *Registry) TextSummary(text string) ([]llm.Message, error) {
	return r.Render(PromptIDs.TextSummary, NewContext().Set("Text", text))
}

// FullReport builds the five-part analysis prompt.
func (r *Registry) FullReport(summary string, indicators []string) ([]llm.Message, error) {
	return r.Render(PromptIDs.AnalysisFullReport, NewContext().
		Set("Summary", summary).
		Set("Indicators", indicators))
}

// SectionFocus builds the prompt narrowing a full analysis to one section.
func (r *Registry) SectionFocus(sectionName, analysis string) ([]llm.Message, error) {
	return r.Render(PromptIDs.AnalysisSection, NewContext().
		Set("SectionName", sectionName).
		Set("Analysis", analysis))
}

// Structured builds the single-call JSON analysis prompt.
func (r *Registry) Structured(summary string, indicators []string) ([]llm.Message, error) {
	return r.Render(PromptIDs.AnalysisStructured, NewContext().
		Set("Summary", summary).
		Set("Indicators", indicators))
}
