// Package ingest turns statement documents into labelled figures: plain-text
// pattern extraction, table extraction from PDF, XLSX and HTML sources, and
// statement classification.
package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/fields"
)

// =============================================================================
// PATTERN CATALOG
// =============================================================================

// PassthroughGrossMargin and its siblings are reported percentages. They are
// not statement fields, so they enter the store under their ratio names and
// are superseded by computed ratios whenever the inputs exist.
const (
	PassthroughGrossMargin     = string(calc.GrossMargin)
	PassthroughOperatingMargin = string(calc.OperatingMargin)
	PassthroughNetMargin       = string(calc.NetMargin)
)

const (
	sep    = `[\s:]*`
	amount = `(\(?-?\d[\d,]*(?:\.\d+)?\)?)`
	pct    = `(-?\d+(?:\.\d+)?%?)`
)

// TextPattern binds one regular expression to the key it populates.
type TextPattern struct {
	Key     string
	Pattern string
}

// TextPatterns is the fixed catalog in evaluation order. Input is
// width-folded before matching, so only half-width punctuation appears here.
var TextPatterns = []TextPattern{
	{string(fields.Revenue), `營業收入[總計淨額]*` + sep + amount},
	{string(fields.NetIncome), `(?:本期)?淨[利益][總計]*` + sep + amount},
	{string(fields.ReportedEPS), `每股(?:盈餘|收益)` + sep + `(-?[\d,]*\.?\d+)`},
	{PassthroughGrossMargin, `毛利率` + sep + pct},
	{PassthroughOperatingMargin, `營業利益率` + sep + pct},
	{PassthroughNetMargin, `淨利率` + sep + pct},
	{string(fields.TotalAssets), `資產總[額計][總計]*` + sep + amount},
	{string(fields.TotalLiabilities), `負債總[額計][總計]*` + sep + amount},
	{string(fields.Equity), `權益總[額計][總計]*` + sep + amount},
	{string(fields.OperatingIncome), `營業利益[總計]*` + sep + amount},
	{string(fields.OperatingCashFlow), `營業活動[之的]?淨現金流[入量出][總計]*` + sep + amount},
	{string(fields.InvestingCashFlow), `投資活動[之的]?淨現金流[入量出][總計]*` + sep + amount},
	{string(fields.FinancingCashFlow), `籌資活動[之的]?淨現金流[入量出][總計]*` + sep + amount},

	// English statements
	{string(fields.Revenue), `(?i)total\s+revenues?` + sep + amount},
	{string(fields.NetIncome), `(?i)net\s+income` + sep + amount},
	{string(fields.ReportedEPS), `(?i)(?:basic\s+)?(?:earnings\s+per\s+share|EPS)` + sep + `(-?[\d,]*\.?\d+)`},
	{PassthroughGrossMargin, `(?i)gross\s+margin` + sep + pct},
	{string(fields.TotalAssets), `(?i)total\s+assets` + sep + amount},
	{string(fields.TotalLiabilities), `(?i)total\s+liabilities` + sep + amount},
	{string(fields.Equity), `(?i)total\s+(?:stockholders'?|shareholders'?)?\s*equity` + sep + amount},
	{string(fields.OperatingIncome), `(?i)operating\s+income` + sep + amount},
	{string(fields.OperatingCashFlow), `(?i)net\s+cash\s+(?:provided\s+by|from|used\s+in)\s+operating\s+activities` + sep + amount},
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// TextExtraction is the result of one scan.
type TextExtraction struct {
	// Values maps canonical field names (and the margin passthroughs) to
	// numbers. Percentages are already fractions.
	Values map[string]float64 `json:"values"`
	// Skipped lists captures that matched a pattern but did not parse.
	Skipped []NumericParseError `json:"skipped,omitempty"`

	order []string
}

// Entries returns the values in catalog order for store construction.
func (x TextExtraction) Entries() []calc.Entry {
	out := make([]calc.Entry, 0, len(x.order))
	for _, k := range x.order {
		out = append(out, calc.Entry{Label: k, Value: x.Values[k]})
	}
	return out
}

// Len reports how many keys were extracted.
func (x TextExtraction) Len() int { return len(x.Values) }

// TextExtractor scans free text with a compiled pattern catalog. It is
// immutable after construction and safe for concurrent use.
type TextExtractor struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	key string
	re  *regexp.Regexp
}

// NewTextExtractor compiles the catalog. It panics on an invalid pattern,
// which only a programming error can produce.
func NewTextExtractor(catalog []TextPattern) *TextExtractor {
	p := &TextExtractor{patterns: make([]compiledPattern, 0, len(catalog))}
	for _, tp := range catalog {
		p.patterns = append(p.patterns, compiledPattern{key: tp.Key, re: regexp.MustCompile(tp.Pattern)})
	}
	return p
}

var defaultExtractor = NewTextExtractor(TextPatterns)

// ExtractText scans text with the built-in catalog.
func ExtractText(text string) TextExtraction {
	return defaultExtractor.Extract(text)
}

// Extract applies every pattern to the width-folded text. The first match of
// a pattern is used, and the first pattern that yields a value for a key
// wins over later ones.
func (p *TextExtractor) Extract(text string) TextExtraction {
	folded := Fold(text)
	out := TextExtraction{Values: map[string]float64{}}

	for _, cp := range p.patterns {
		if _, done := out.Values[cp.key]; done {
			continue
		}
		m := cp.re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		raw := m[len(m)-1]
		v, ok := ParsePercent(raw)
		if !ok {
			out.Skipped = append(out.Skipped, NumericParseError{Field: cp.key, Raw: raw, Err: errNotNumeric})
			continue
		}
		out.Values[cp.key] = v
		out.order = append(out.order, cp.key)
	}
	return out
}

// =============================================================================
// TOKEN BUDGET
// =============================================================================

// EstimateTokens gives a rough token count. CJK text runs close to one token
// per character, Latin text about four characters per token.
func EstimateTokens(content string) int {
	runes := utf8.RuneCountInString(content)
	ascii := 0
	for i := 0; i < len(content); i++ {
		if content[i] < utf8.RuneSelf {
			ascii++
		}
	}
	return (runes - ascii) + ascii/4
}

// Truncate trims content to roughly maxTokens, cutting on a line boundary
// when one is available.
func Truncate(content string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(content) <= maxTokens {
		return content
	}
	cut, wide, ascii := 0, 0, 0
	for i, r := range content {
		if r < utf8.RuneSelf {
			ascii++
		} else {
			wide++
		}
		if wide+ascii/4 > maxTokens {
			break
		}
		cut = i + utf8.RuneLen(r)
	}
	head := content[:cut]
	if nl := strings.LastIndexByte(head, '\n'); nl > len(head)/2 {
		head = head[:nl]
	}
	return head
}
