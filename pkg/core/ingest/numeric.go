package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// NumericParseError records a captured value that could not be read as a
// number. It is never fatal; extraction skips the field and keeps going.
type NumericParseError struct {
	Field string `json:"field"`
	Raw   string `json:"raw"`
	Err   error  `json:"-"`
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("unparsable value %q for %s: %v", e.Raw, e.Field, e.Err)
}

func (e *NumericParseError) Unwrap() error { return e.Err }

// currency and unit markers stripped before parsing
var numericNoise = strings.NewReplacer(
	"NT$", "",
	"US$", "",
	"$", "",
	"¥", "",
	"元", "",
	",", "",
	" ", "",
	"\t", "",
	"\u00a0", "",
)

// Fold normalises full-width digits, letters and punctuation to their
// half-width forms.
func Fold(s string) string {
	return width.Fold.String(s)
}

// CleanNumber reads a statement cell as a number. Thousands separators and
// currency markers are dropped, "(1,234)" is negative and a trailing "%" is
// removed without scaling. Cells such as "-" or "2023年" are not numbers.
func CleanNumber(cell string) (float64, bool) {
	v, _, ok := parseCell(cell)
	return v, ok
}

// ParsePercent is CleanNumber, except that a "%"-suffixed value is divided
// by 100.
func ParsePercent(cell string) (float64, bool) {
	v, pct, ok := parseCell(cell)
	if ok && pct {
		v /= 100
	}
	return v, ok
}

func parseCell(cell string) (float64, bool, bool) {
	s := numericNoise.Replace(strings.TrimSpace(Fold(cell)))
	if s == "" {
		return 0, false, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false, false
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, pct, true
}
