package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/ingest"
	"finreport_analyzer/pkg/core/narrative"
	"finreport_analyzer/pkg/core/utils"
)

// sectionFocus names each section the way the analysis prompt does.
var sectionFocus = map[string]string{
	narrative.KeyProfitability:         "獲利能力分析",
	narrative.KeyFinancialStructure:    "財務結構分析",
	narrative.KeyOperationalEfficiency: "營運效率分析",
	narrative.KeyRiskAssessment:        "風險評估",
	narrative.KeyInvestmentAdvice:      "投資建議",
}

// structuredSections is the JSON shape requested in structured mode.
type structuredSections struct {
	Profitability         string `json:"profitability" validate:"required"`
	FinancialStructure    string `json:"financial_structure" validate:"required"`
	OperationalEfficiency string `json:"operational_efficiency" validate:"required"`
	RiskAssessment        string `json:"risk_assessment" validate:"required"`
	InvestmentAdvice      string `json:"investment_advice" validate:"required"`
}

func (s structuredSections) byKey() map[string]string {
	return map[string]string{
		narrative.KeyProfitability:         s.Profitability,
		narrative.KeyFinancialStructure:    s.FinancialStructure,
		narrative.KeyOperationalEfficiency: s.OperationalEfficiency,
		narrative.KeyRiskAssessment:        s.RiskAssessment,
		narrative.KeyInvestmentAdvice:      s.InvestmentAdvice,
	}
}

// refine runs the model stages: a text summary of the document, then the
// section analysis in the configured mode.
func (o *Orchestrator) refine(ctx context.Context, r *run) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
	defer cancel()

	if m, ok := o.llm.(interface{ GetActiveProvider() string }); ok {
		r.result.Provider = m.GetActiveProvider()
	}

	if r.doc != nil && r.doc.Text != "" {
		if err := o.stage(r, StageTextSummary, func() error {
			msgs, err := o.prompts.TextSummary(ingest.Truncate(r.doc.Text, o.cfg.MaxPromptTokens))
			if err != nil {
				return err
			}
			out, err := o.llm.ExecutePrompt(ctx, agent.AgentSummary, msgs)
			if err != nil {
				return err
			}
			r.result.TextSummary = strings.TrimSpace(out)
			return nil
		}); err != nil {
			return err
		}
	}

	combined := r.result.FinancialSummary
	if r.result.TextSummary != "" {
		combined = fmt.Sprintf("%s\n\n詳細分析：\n%s", r.result.FinancialSummary, r.result.TextSummary)
	}
	r.result.Summary = combined

	return o.stage(r, StageAnalysis, func() error {
		lines := indicatorLines(r.view)
		if o.cfg.LLM == LLMStructured {
			return o.refineStructured(ctx, r, combined, lines)
		}
		return o.refineSections(ctx, r, combined, lines)
	})
}

func (o *Orchestrator) refineSections(ctx context.Context, r *run, summary string, lines []string) error {
	msgs, err := o.prompts.FullReport(summary, lines)
	if err != nil {
		return err
	}
	full, err := o.llm.ExecutePrompt(ctx, agent.AgentAnalysis, msgs)
	if err != nil {
		return err
	}

	for _, sec := range r.result.Report.Sections() {
		msgs, err := o.prompts.SectionFocus(sectionFocus[sec.Key], full)
		if err != nil {
			return err
		}
		out, err := o.llm.ExecutePrompt(ctx, agent.AgentSection, msgs)
		if err != nil {
			return fmt.Errorf("%s: %w", sec.Key, err)
		}
		sec.Refinement = utils.CleanMarkdown(out)
	}
	return nil
}

func (o *Orchestrator) refineStructured(ctx context.Context, r *run, summary string, lines []string) error {
	msgs, err := o.prompts.Structured(summary, lines)
	if err != nil {
		return err
	}
	out, err := o.llm.ExecutePrompt(ctx, agent.AgentStructured, msgs)
	if err != nil {
		return err
	}

	var parsed structuredSections
	if _, err := utils.SmartParse(out, &parsed); err != nil {
		return err
	}
	byKey := parsed.byKey()
	for _, sec := range r.result.Report.Sections() {
		sec.Refinement = strings.TrimSpace(byKey[sec.Key])
	}
	return nil
}

// indicatorLines formats the view for prompts, one "label: value" per
// line in key order.
func indicatorLines(v narrative.View) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %s", narrative.LabelOf(k), narrative.FormatIndicator(k, v[k])))
	}
	return out
}
