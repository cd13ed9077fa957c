// Package narrative turns computed indicators into the five-section
// qualitative analysis. Every threshold lives in data tables so the cutoffs
// can be tested without looking at the prose.
package narrative

import "finreport_analyzer/pkg/core/calc"

// Comparison is the predicate kind of a Rule.
type Comparison int

const (
	// CmpAbove matches value > Cutoff.
	CmpAbove Comparison = iota
	// CmpBelow matches value < Cutoff.
	CmpBelow
	// CmpBelowMetric matches value < the current value of another metric.
	CmpBelowMetric
	// CmpBetween matches Cutoff <= value <= Upper.
	CmpBetween
	// CmpOtherwise always matches and terminates a ladder.
	CmpOtherwise
)

// Rule is one rung of a threshold ladder.
type Rule struct {
	Cmp    Comparison
	Cutoff float64
	Upper  float64
	Other  string
	Tier   string
	Phrase string
}

func Above(cutoff float64, tier, phrase string) Rule {
	return Rule{Cmp: CmpAbove, Cutoff: cutoff, Tier: tier, Phrase: phrase}
}

func Below(cutoff float64, tier, phrase string) Rule {
	return Rule{Cmp: CmpBelow, Cutoff: cutoff, Tier: tier, Phrase: phrase}
}

func BelowMetric(other, tier, phrase string) Rule {
	return Rule{Cmp: CmpBelowMetric, Other: other, Tier: tier, Phrase: phrase}
}

func Between(lo, hi float64, tier, phrase string) Rule {
	return Rule{Cmp: CmpBetween, Cutoff: lo, Upper: hi, Tier: tier, Phrase: phrase}
}

func Otherwise(tier, phrase string) Rule {
	return Rule{Cmp: CmpOtherwise, Tier: tier, Phrase: phrase}
}

// Matches evaluates the predicate. Relational rules read the other metric
// through the view, so a missing peer reads as zero like any other metric.
func (r Rule) Matches(v float64, view View) bool {
	switch r.Cmp {
	case CmpAbove:
		return v > r.Cutoff
	case CmpBelow:
		return v < r.Cutoff
	case CmpBelowMetric:
		other, _ := view.Value(r.Other)
		return v < other
	case CmpBetween:
		return v >= r.Cutoff && v <= r.Upper
	case CmpOtherwise:
		return true
	}
	return false
}

// Ladder classifies one metric. Rules are tried top to bottom and the first
// match wins; well-formed ladders end with Otherwise.
type Ladder struct {
	Metric string
	Label  string
	Unit   calc.Unit
	// Bare findings print only the phrase, without label and value.
	Bare  bool
	Rules []Rule
}

// Classify returns the first matching rule. A ladder with no match yields a
// zero Rule.
func (l Ladder) Classify(v float64, view View) Rule {
	for _, r := range l.Rules {
		if r.Matches(v, view) {
			return r
		}
	}
	return Rule{}
}

// Classify evaluates a single ladder against a view.
func Classify(l Ladder, view View) Rule {
	v, _ := view.Value(l.Metric)
	return l.Classify(v, view)
}

// Suggestion fires its text when the metric breaches the cutoff.
type Suggestion struct {
	Metric string
	Cmp    Comparison
	Cutoff float64
	Text   string
}

func (s Suggestion) fires(view View) bool {
	v, _ := view.Value(s.Metric)
	return Rule{Cmp: s.Cmp, Cutoff: s.Cutoff}.Matches(v, view)
}

// Group is a numbered heading in a section's narrative.
type Group struct {
	Title   string
	Ladders []Ladder
}

// Table is the complete decision table of one section.
type Table struct {
	Key         string
	Title       string
	Metrics     []Metric
	Groups      []Group
	Suggestions []Suggestion
	Fallback    []string
}

// Metric is a line of a section's key-figure block.
type Metric struct {
	Key   string
	Label string
	Unit  calc.Unit
}
