package narrative

import (
	"fmt"
	"strings"

	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/fields"
)

// Summary builds the one-paragraph rule-based digest of the headline
// figures. Absent figures are skipped; an empty view yields "".
func Summary(v View) string {
	var parts []string
	amount := func(key fields.Field, format string) {
		if x, ok := v.Value(string(key)); ok {
			parts = append(parts, fmt.Sprintf(format, FormatNumber(x)))
		}
	}
	percent := func(key calc.Ratio, format string) {
		if x, ok := v.Value(string(key)); ok {
			parts = append(parts, fmt.Sprintf(format, FormatPercent(x)))
		}
	}

	amount(fields.TotalAssets, "公司總資產為 %s 元")
	liab, okL := v.Value(string(fields.TotalLiabilities))
	eq, okE := v.Value(string(fields.Equity))
	if okL && okE {
		parts = append(parts, fmt.Sprintf("其中負債 %s 元，權益 %s 元", FormatNumber(liab), FormatNumber(eq)))
	}
	percent(calc.DebtRatio, "負債比率為 %s")

	amount(fields.Revenue, "本期營業收入 %s 元")
	amount(fields.OperatingIncome, "營業利益 %s 元")
	amount(fields.NetIncome, "本期淨利 %s 元")

	percent(calc.ROE, "股東權益報酬率(ROE)為 %s")
	percent(calc.ROA, "總資產報酬率(ROA)為 %s")

	var cash []string
	for _, cf := range []struct {
		key   fields.Field
		label string
	}{
		{fields.OperatingCashFlow, "營業活動現金流量"},
		{fields.InvestingCashFlow, "投資活動現金流量"},
		{fields.FinancingCashFlow, "籌資活動現金流量"},
	} {
		if x, ok := v.Value(string(cf.key)); ok {
			cash = append(cash, fmt.Sprintf("%s %s 元", cf.label, FormatNumber(x)))
		}
	}
	if len(cash) > 0 {
		parts = append(parts, "現金流量方面："+strings.Join(cash, "，"))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "。") + "。"
}
