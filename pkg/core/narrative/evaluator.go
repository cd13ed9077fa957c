package narrative

import (
	"fmt"
	"strings"

	"finreport_analyzer/pkg/core/calc"
)

// Section keys, in report order.
const (
	KeyProfitability         = "profitability"
	KeyFinancialStructure    = "financial_structure"
	KeyOperationalEfficiency = "operational_efficiency"
	KeyRiskAssessment        = "risk_assessment"
	KeyInvestmentAdvice      = "investment_advice"
)

// SectionKeys lists the five analysis sections in report order.
var SectionKeys = []string{
	KeyProfitability,
	KeyFinancialStructure,
	KeyOperationalEfficiency,
	KeyRiskAssessment,
	KeyInvestmentAdvice,
}

// MetricLine is one rendered entry of a section's key-figure block.
type MetricLine struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Defaulted bool    `json:"defaulted,omitempty"`
}

// Finding is the classification of one metric.
type Finding struct {
	Group  string `json:"group"`
	Metric string `json:"metric"`
	Tier   string `json:"tier"`
	Text   string `json:"text"`
}

// Section is the evaluated output of one decision table.
type Section struct {
	Key         string       `json:"key"`
	Title       string       `json:"title"`
	Metrics     []MetricLine `json:"metrics"`
	Findings    []Finding    `json:"findings"`
	Suggestions []string     `json:"suggestions,omitempty"`
	// Defaulted names every metric that was read as zero because it was
	// absent from the view.
	Defaulted []string `json:"defaulted,omitempty"`
	// Refinement holds LLM-generated text that replaces the rule-based body
	// when present.
	Refinement string `json:"refinement,omitempty"`
}

// Tier returns the tier assigned to metric, or "" when it was not classified.
func (s Section) Tier(metric string) string {
	for _, f := range s.Findings {
		if f.Metric == metric {
			return f.Tier
		}
	}
	return ""
}

// Text renders the rule-based body: key figures, numbered finding groups and
// the suggestion block.
func (s Section) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s關鍵指標：\n", s.Title)
	for _, ml := range s.Metrics {
		fmt.Fprintf(&b, "- %s：%s\n", ml.Label, ml.Display)
	}

	fmt.Fprintf(&b, "\n%s綜合分析：\n", s.Title)
	n := 0
	current := ""
	for _, f := range s.Findings {
		if f.Group != current {
			current = f.Group
			n++
			fmt.Fprintf(&b, "%d. %s：\n", n, current)
		}
		fmt.Fprintf(&b, "   - %s\n", f.Text)
	}
	if len(s.Suggestions) > 0 {
		n++
		fmt.Fprintf(&b, "%d. 綜合建議：\n", n)
		for _, sg := range s.Suggestions {
			fmt.Fprintf(&b, "   - %s\n", sg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Body returns the refinement when one was attached, the rule-based text
// otherwise.
func (s Section) Body() string {
	if s.Refinement != "" {
		return s.Refinement
	}
	return s.Text()
}

// Evaluator applies the decision tables to a view. It holds no state beyond
// the tables and is safe for concurrent use.
type Evaluator struct {
	tables map[string]Table
}

// NewEvaluator returns an evaluator over the built-in tables.
func NewEvaluator() *Evaluator {
	return &Evaluator{tables: map[string]Table{
		KeyProfitability:         profitabilityTable,
		KeyFinancialStructure:    financialStructureTable,
		KeyOperationalEfficiency: operatingEfficiencyTable,
		KeyRiskAssessment:        riskTable,
		KeyInvestmentAdvice:      investmentTable,
	}}
}

func (e *Evaluator) Profitability(v View) Section {
	return e.section(e.tables[KeyProfitability], v)
}

func (e *Evaluator) FinancialStructure(v View) Section {
	return e.section(e.tables[KeyFinancialStructure], v)
}

func (e *Evaluator) OperatingEfficiency(v View) Section {
	return e.section(e.tables[KeyOperationalEfficiency], v)
}

func (e *Evaluator) Risk(v View) Section {
	return e.section(e.tables[KeyRiskAssessment], v)
}

// InvestmentAdvice scores the investment checklist, then appends the verdict
// together with the focus points and risk hints.
func (e *Evaluator) InvestmentAdvice(v View) Section {
	s := e.section(e.tables[KeyInvestmentAdvice], v)
	verdict := Decide(v)
	s.Findings = append(s.Findings, Finding{
		Group:  "投資建議",
		Metric: "Verdict",
		Tier:   string(verdict),
		Text:   verdict.Label(),
	})
	d := newDefaults(s.Defaulted)
	for _, g := range investmentOutlook {
		s.Findings = append(s.Findings, findings(g, v, d)...)
	}
	s.Defaulted = d.list
	return s
}

// Evaluate runs all five sections. It is total: any view, including an
// empty one, yields a complete report.
func (e *Evaluator) Evaluate(v View) *Report {
	return &Report{
		Profitability:         e.Profitability(v),
		FinancialStructure:    e.FinancialStructure(v),
		OperationalEfficiency: e.OperatingEfficiency(v),
		RiskAssessment:        e.Risk(v),
		InvestmentAdvice:      e.InvestmentAdvice(v),
		Verdict:               Decide(v),
	}
}

func (e *Evaluator) section(t Table, v View) Section {
	s := Section{Key: t.Key, Title: t.Title}
	d := newDefaults(nil)

	for _, mt := range t.Metrics {
		x, ok := v.Value(mt.Key)
		if !ok {
			d.add(mt.Key)
		}
		s.Metrics = append(s.Metrics, MetricLine{
			Key:       mt.Key,
			Label:     mt.Label,
			Value:     x,
			Display:   FormatValue(x, mt.Unit),
			Defaulted: !ok,
		})
	}
	for _, g := range t.Groups {
		s.Findings = append(s.Findings, findings(g, v, d)...)
	}
	for _, sg := range t.Suggestions {
		if _, ok := v.Value(sg.Metric); !ok {
			d.add(sg.Metric)
		}
		if sg.fires(v) {
			s.Suggestions = append(s.Suggestions, sg.Text)
		}
	}
	if len(s.Suggestions) == 0 {
		s.Suggestions = append(s.Suggestions, t.Fallback...)
	}
	s.Defaulted = d.list
	return s
}

func findings(g Group, v View, d *defaults) []Finding {
	out := make([]Finding, 0, len(g.Ladders))
	for _, l := range g.Ladders {
		x, ok := v.Value(l.Metric)
		if !ok {
			d.add(l.Metric)
		}
		r := l.Classify(x, v)
		if r.Cmp == CmpBelowMetric {
			if _, ok := v.Value(r.Other); !ok {
				d.add(r.Other)
			}
		}
		text := r.Phrase
		if !l.Bare {
			text = fmt.Sprintf("%s為%s，%s", l.Label, FormatValue(x, l.Unit), r.Phrase)
		}
		out = append(out, Finding{Group: g.Title, Metric: l.Metric, Tier: r.Tier, Text: text})
	}
	return out
}

type defaults struct {
	seen map[string]bool
	list []string
}

func newDefaults(existing []string) *defaults {
	d := &defaults{seen: map[string]bool{}}
	for _, k := range existing {
		d.add(k)
	}
	return d
}

func (d *defaults) add(key string) {
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.list = append(d.list, key)
}

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is the final investment call.
type Verdict string

const (
	Recommend Verdict = "recommend"
	Watch     Verdict = "watch"
)

// Label returns the Chinese wording of the verdict.
func (v Verdict) Label() string {
	if v == Recommend {
		return "建議投資"
	}
	return "建議觀望"
}

// Decide is a simple screening rule, not a valuation: recommend when ROE
// exceeds 15%, the debt ratio is under 50% and revenue grows faster than
// 10%; watch otherwise. Missing metrics read as zero.
func Decide(v View) Verdict {
	roe, _ := v.Value(string(calc.ROE))
	debt, _ := v.Value(string(calc.DebtRatio))
	growth, _ := v.Value(string(calc.RevenueGrowth))
	if roe > 0.15 && debt < 0.5 && growth > 0.1 {
		return Recommend
	}
	return Watch
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the full five-section analysis.
type Report struct {
	Profitability         Section `json:"profitability"`
	FinancialStructure    Section `json:"financial_structure"`
	OperationalEfficiency Section `json:"operational_efficiency"`
	RiskAssessment        Section `json:"risk_assessment"`
	InvestmentAdvice      Section `json:"investment_advice"`
	Verdict               Verdict `json:"verdict"`
}

// Sections returns pointers to the five sections in report order so callers
// can attach refinements in place.
func (r *Report) Sections() []*Section {
	return []*Section{
		&r.Profitability,
		&r.FinancialStructure,
		&r.OperationalEfficiency,
		&r.RiskAssessment,
		&r.InvestmentAdvice,
	}
}

// Section looks a section up by key.
func (r *Report) Section(key string) (*Section, bool) {
	for _, s := range r.Sections() {
		if s.Key == key {
			return s, true
		}
	}
	return nil, false
}

var ordinals = []string{"一", "二", "三", "四", "五"}

// Render produces the plain-text report with numbered section headings.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("=== 財務分析報告 ===\n")
	for i, s := range r.Sections() {
		fmt.Fprintf(&b, "\n%s、%s\n%s\n", ordinals[i], s.Title, s.Body())
	}
	return b.String()
}

// Analysis maps section keys to their bodies.
func (r *Report) Analysis() map[string]string {
	out := make(map[string]string, len(SectionKeys))
	for _, s := range r.Sections() {
		out[s.Key] = s.Body()
	}
	return out
}

// Defaulted returns the union of metrics read as zero across all sections.
func (r *Report) Defaulted() []string {
	d := newDefaults(nil)
	for _, s := range r.Sections() {
		for _, k := range s.Defaulted {
			d.add(k)
		}
	}
	return d.list
}
