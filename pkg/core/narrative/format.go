package narrative

import (
	"fmt"
	"math"

	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/fields"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// View is the flat indicator mapping the evaluator reads from: store values
// overlaid with computed ratios.
type View map[string]float64

// NewView merges a store and its ratios.
func NewView(store *calc.MetricStore, ratios calc.Ratios) View {
	return View(store.Indicators(ratios))
}

// reported figures stand in for a ratio the engine could not derive
var fallbacks = map[string]string{
	string(calc.EPS): string(fields.ReportedEPS),
}

// Value looks a metric up, falling back to its reported counterpart.
func (v View) Value(key string) (float64, bool) {
	if x, ok := v[key]; ok {
		return x, true
	}
	if alt, ok := fallbacks[key]; ok {
		if x, ok := v[alt]; ok {
			return x, true
		}
	}
	return 0, false
}

// FormatValue renders a metric in its display unit.
func FormatValue(v float64, u calc.Unit) string {
	switch u {
	case calc.UnitPercent:
		return FormatPercent(v)
	case calc.UnitTimes:
		return fmt.Sprintf("%.2f 倍", v)
	case calc.UnitDays:
		return fmt.Sprintf("%.1f 天", v)
	case calc.UnitPerShare:
		return fmt.Sprintf("%.2f 元", v)
	}
	return printer.Sprintf("%.0f 元", v)
}

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatNumber abbreviates large amounts with Chinese magnitude units.
func FormatNumber(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e9:
		return fmt.Sprintf("%.2f十億", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.2f百萬", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.2f千", v/1e3)
	}
	return fmt.Sprintf("%.2f", v)
}

// UnitOf infers the display unit of an indicator key.
func UnitOf(key string) calc.Unit {
	if d, ok := calc.Lookup(calc.Ratio(key)); ok {
		return d.Unit
	}
	if key == string(fields.ReportedEPS) {
		return calc.UnitPerShare
	}
	if key == MetricPE || key == MetricPB {
		return calc.UnitTimes
	}
	return calc.UnitAmount
}

// LabelOf returns the Chinese display name of an indicator key.
func LabelOf(key string) string {
	if d, ok := calc.Lookup(calc.Ratio(key)); ok {
		return d.Label
	}
	switch key {
	case MetricPE:
		return "本益比"
	case MetricPB:
		return "股價淨值比"
	}
	return fields.Label(fields.Field(key))
}

// FormatIndicator renders one indicator for an LLM prompt: percentages for
// ratio-like values, magnitude units for large amounts.
func FormatIndicator(key string, v float64) string {
	switch UnitOf(key) {
	case calc.UnitPercent:
		return FormatPercent(v)
	case calc.UnitAmount:
		if math.Abs(v) >= 1e6 {
			return FormatNumber(v)
		}
		return printer.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
