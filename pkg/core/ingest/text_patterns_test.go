package ingest

import (
	"strings"
	"testing"

	"finreport_analyzer/pkg/core/calc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_GrossMarginPercent(t *testing.T) {
	x := ExtractText("本年度毛利率: 35.5%，較去年提升")

	require.Contains(t, x.Values, "GrossMargin")
	assert.InDelta(t, 0.355, x.Values["GrossMargin"], 1e-9)
}

func TestExtractText_Statement(t *testing.T) {
	text := `
合併綜合損益表
營業收入總計：15,000,000,000
營業利益 3,000,000,000
營業利益率 20%
本期淨利： 1,200,000,000
每股盈餘：1.20
資產總計 20,000,000,000
負債總計 12,000,000,000
權益總額 8,000,000,000
營業活動之淨現金流入 2,000,000,000
投資活動之淨現金流出 (500,000,000)
`
	x := ExtractText(text)

	want := map[string]float64{
		"Revenue":           1.5e10,
		"OperatingIncome":   3e9,
		"OperatingMargin":   0.2,
		"NetIncome":         1.2e9,
		"ReportedEPS":       1.2,
		"TotalAssets":       2e10,
		"TotalLiabilities":  1.2e10,
		"Equity":            8e9,
		"OperatingCashFlow": 2e9,
		"InvestingCashFlow": -5e8,
	}
	for k, v := range want {
		assert.InDelta(t, v, x.Values[k], 1e-6, k)
	}
	assert.Empty(t, x.Skipped)
}

func TestExtractText_FullWidthInput(t *testing.T) {
	x := ExtractText("營業收入：１，０００，０００\n毛利率：４０％")

	assert.Equal(t, 1e6, x.Values["Revenue"])
	assert.InDelta(t, 0.4, x.Values["GrossMargin"], 1e-9)
}

func TestExtractText_EPSCapturesNumber(t *testing.T) {
	x := ExtractText("基本每股收益 3.45 元")
	assert.InDelta(t, 3.45, x.Values["ReportedEPS"], 1e-9)
}

func TestExtractText_FirstMatchWins(t *testing.T) {
	x := ExtractText("營業收入 100\n營業收入 200\nTotal revenue 300")
	assert.Equal(t, 100.0, x.Values["Revenue"])
}

func TestExtractText_EnglishVariants(t *testing.T) {
	x := ExtractText("Total revenues: 5,000\nNet income 400\nTotal assets 10,000\nTotal stockholders' equity 6,000")

	assert.Equal(t, 5000.0, x.Values["Revenue"])
	assert.Equal(t, 400.0, x.Values["NetIncome"])
	assert.Equal(t, 10000.0, x.Values["TotalAssets"])
	assert.Equal(t, 6000.0, x.Values["Equity"])
}

func TestExtractText_UnparsableSkipped(t *testing.T) {
	x := ExtractText("營業收入 (1,000")

	assert.NotContains(t, x.Values, "Revenue")
	require.Len(t, x.Skipped, 1)
	assert.Equal(t, "Revenue", x.Skipped[0].Field)
}

func TestExtractText_NothingFound(t *testing.T) {
	x := ExtractText("這份文件沒有任何財務數字")
	assert.Zero(t, x.Len())
	assert.Empty(t, x.Entries())
}

func TestTextExtraction_FeedsRatioEngine(t *testing.T) {
	x := ExtractText("本期淨利 1,200\n資產總額 10,000\n權益總額 8,000\n負債總額 2,000")
	store := calc.NewMetricStore(x.Entries())
	r := calc.NewEngine(store).ExtractAll()

	assert.InDelta(t, 0.15, r[calc.ROE], 1e-9)
	assert.InDelta(t, 0.12, r[calc.ROA], 1e-9)
	assert.InDelta(t, 0.2, r[calc.DebtRatio], 1e-9)
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("財報內容\n", 100)
	cut := Truncate(text, 50)

	assert.LessOrEqual(t, EstimateTokens(cut), 50)
	assert.True(t, strings.HasPrefix(text, cut))
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("財報"))
}
