package pipeline

import (
	"time"

	"finreport_analyzer/pkg/core/narrative"
)

// Result is the outcome of one analysis run.
type Result struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Source    string    `json:"source"`
	Format    string    `json:"format"`
	Pages     int       `json:"pages,omitempty"`
	// Statements lists the statement types found in the document's tables.
	Statements []string `json:"statements,omitempty"`

	// Summary is the financial summary, followed by the model's text
	// summary when one was produced.
	Summary          string `json:"summary"`
	FinancialSummary string `json:"financial_summary"`
	TextSummary      string `json:"text_summary,omitempty"`

	Indicators map[string]float64 `json:"indicators"`
	// Analysis maps section keys to their final text.
	Analysis map[string]string `json:"analysis"`
	Report   *narrative.Report `json:"report"`
	Rendered string            `json:"rendered"`
	Verdict  narrative.Verdict `json:"verdict"`
	Provider string            `json:"provider,omitempty"`

	Defaulted    []string      `json:"defaulted,omitempty"`
	Unrecognized []string      `json:"unrecognized,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Timings      []StageTiming `json:"timings,omitempty"`
}
