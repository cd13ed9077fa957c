package ingest

import (
	"strings"

	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/fields"
)

// Table is a grid of cells lifted from a document.
type Table struct {
	Source string     `json:"source"`
	Page   int        `json:"page,omitempty"`
	Title  string     `json:"title,omitempty"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewTable splits a raw grid into header and body. Grids with fewer than two
// rows carry no data and yield false.
func NewTable(source string, page int, grid [][]string) (Table, bool) {
	if len(grid) < 2 {
		return Table{}, false
	}
	return Table{Source: source, Page: page, Header: grid[0], Rows: grid[1:]}, true
}

// prior-period counterparts recognised in two-column statements
var priorOf = map[fields.Field]fields.Field{
	fields.Revenue:   fields.PriorRevenue,
	fields.NetIncome: fields.PriorNetIncome,
}

// reported ratios such as 毛利率 enter the store under their ratio names
var ratioByLabel = func() map[string]string {
	out := map[string]string{}
	for _, d := range calc.Definitions() {
		out[d.Label] = string(d.Name)
	}
	return out
}()

// entry prefers the field catalog; only labels it does not know are tried
// as reported ratios.
func entry(label string, v float64) calc.Entry {
	if _, ok := fields.Lookup(label); ok {
		return calc.Entry{Label: label, Value: v}
	}
	if name, ok := ratioByLabel[label]; ok {
		label = name
	}
	return calc.Entry{Label: label, Value: v}
}

// TableEntries converts a statement table into labelled figures.
//
// Wide tables carry one field per header cell and one period per row: the
// last row is the current period and the row before it the prior one. Long
// tables carry one field per row: the first numeric cell is the current
// period and the second the prior one. Cells that are not numbers are
// skipped.
func TableEntries(t Table) []calc.Entry {
	if isWide(t) {
		return wideEntries(t)
	}
	return longEntries(t)
}

func isWide(t Table) bool {
	n := 0
	for _, h := range t.Header {
		if _, ok := fields.Lookup(strings.TrimSpace(Fold(h))); ok {
			n++
		}
	}
	return n >= 2
}

func wideEntries(t Table) []calc.Entry {
	if len(t.Rows) == 0 {
		return nil
	}
	current := t.Rows[len(t.Rows)-1]
	var previous []string
	if len(t.Rows) > 1 {
		previous = t.Rows[len(t.Rows)-2]
	}

	var priors, entries []calc.Entry
	for i, h := range t.Header {
		label := strings.TrimSpace(Fold(h))
		if label == "" || i >= len(current) {
			continue
		}
		v, ok := ParsePercent(current[i])
		if !ok {
			continue
		}
		entries = append(entries, entry(label, v))

		f, known := fields.Lookup(label)
		prior, tracked := priorOf[f]
		if !known || !tracked || i >= len(previous) {
			continue
		}
		if pv, ok := ParsePercent(previous[i]); ok {
			priors = append(priors, calc.Entry{Label: string(prior), Value: pv})
		}
	}
	// explicit prior-period columns come later and win
	return append(priors, entries...)
}

func longEntries(t Table) []calc.Entry {
	var priors, entries []calc.Entry
	for _, row := range t.Rows {
		label, rest := rowLabel(row)
		if label == "" {
			continue
		}
		var values []float64
		for _, cell := range rest {
			if v, ok := ParsePercent(cell); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		entries = append(entries, entry(label, values[0]))

		if len(values) < 2 {
			continue
		}
		if f, ok := fields.Lookup(label); ok {
			if prior, tracked := priorOf[f]; tracked {
				priors = append(priors, calc.Entry{Label: string(prior), Value: values[1]})
			}
		}
	}
	return append(priors, entries...)
}

// rowLabel returns the first non-numeric, non-empty cell of a row and the
// cells after it.
func rowLabel(row []string) (string, []string) {
	for i, cell := range row {
		c := strings.TrimSpace(Fold(cell))
		if c == "" {
			continue
		}
		if _, numeric := CleanNumber(c); numeric {
			return "", nil
		}
		return c, row[i+1:]
	}
	return "", nil
}

// Entries flattens classified statements in balance sheet, income statement,
// cash flow order.
func Entries(statements map[StatementType]Table) []calc.Entry {
	var out []calc.Entry
	for _, st := range StatementTypes {
		if t, ok := statements[st]; ok {
			out = append(out, TableEntries(t)...)
		}
	}
	return out
}
