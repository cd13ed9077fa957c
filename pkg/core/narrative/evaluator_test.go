package narrative

import (
	"strings"
	"testing"

	"finreport_analyzer/pkg/core/calc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewOf(raw map[string]float64) View {
	store := calc.NewMetricStoreFromMap(raw)
	return NewView(store, calc.NewEngine(store).ExtractAll())
}

func TestProfitability_ROEFairTier(t *testing.T) {
	v := viewOf(map[string]float64{"NetIncome": 1.2e9, "Equity": 8e9})
	s := NewEvaluator().Profitability(v)

	assert.Equal(t, "fair", s.Tier("ROE"))
	assert.Contains(t, s.Text(), "股東權益報酬尚可")
	assert.NotContains(t, s.Text(), "股東權益報酬優異")
}

func TestProfitability_MissingEquityDefaults(t *testing.T) {
	v := viewOf(map[string]float64{"NetIncome": 1.2e9, "TotalAssets": 1e10})
	_, hasROE := v["ROE"]
	require.False(t, hasROE)

	s := NewEvaluator().Profitability(v)
	assert.Equal(t, "low", s.Tier("ROE"))
	assert.Contains(t, s.Defaulted, "ROE")
	assert.Contains(t, s.Text(), "股東權益報酬率為0.00%，股東權益報酬偏低")
	for _, ml := range s.Metrics {
		if ml.Key == "ROE" {
			assert.True(t, ml.Defaulted)
			assert.Equal(t, "0.00%", ml.Display)
		}
	}
}

func TestProfitability_SteadyGrowthTier(t *testing.T) {
	v := viewOf(map[string]float64{"Revenue": 1.5e10, "PriorRevenue": 1.2e10})
	s := NewEvaluator().Profitability(v)

	assert.Equal(t, "steady", s.Tier("RevenueGrowth"))
	assert.Equal(t, "large", s.Tier("Revenue"))
	assert.Contains(t, s.Text(), "營收呈現穩健成長（>10%），業務發展態勢良好")
	assert.NotContains(t, s.Text(), "高速成長")
}

func TestRisk_HighLeverageAndWatchVerdict(t *testing.T) {
	v := View{"DebtRatio": 0.75, "CurrentRatio": 0.9}
	e := NewEvaluator()
	s := e.Risk(v)

	assert.Equal(t, "high", s.Tier("DebtRatio"))
	assert.Equal(t, "high", s.Tier("CurrentRatio"))
	assert.Contains(t, s.Text(), "財務風險較高")
	assert.Contains(t, s.Text(), "短期償債風險高")
	assert.Contains(t, s.Suggestions, "建議降低負債水平，減少財務風險")
	assert.Contains(t, s.Suggestions, "需提高流動比率，降低短期償債風險")

	assert.Equal(t, Watch, Decide(v))
	assert.Equal(t, Watch, e.Evaluate(v).Verdict)
}

func TestDecide_Conjunction(t *testing.T) {
	cases := []struct {
		name string
		view View
		want Verdict
	}{
		{"all pass", View{"ROE": 0.2, "DebtRatio": 0.4, "RevenueGrowth": 0.15}, Recommend},
		{"roe on boundary", View{"ROE": 0.15, "DebtRatio": 0.4, "RevenueGrowth": 0.15}, Watch},
		{"debt on boundary", View{"ROE": 0.2, "DebtRatio": 0.5, "RevenueGrowth": 0.15}, Watch},
		{"growth on boundary", View{"ROE": 0.2, "DebtRatio": 0.4, "RevenueGrowth": 0.1}, Watch},
		{"empty", View{}, Watch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.view))
		})
	}
	assert.Equal(t, "建議投資", Recommend.Label())
	assert.Equal(t, "建議觀望", Watch.Label())
}

func TestEvaluate_EmptyViewIsTotal(t *testing.T) {
	r := NewEvaluator().Evaluate(View{})

	sections := r.Sections()
	require.Len(t, sections, 5)
	for i, s := range sections {
		assert.Equal(t, SectionKeys[i], s.Key)
		assert.NotEmpty(t, s.Text())
		assert.NotEmpty(t, s.Findings)
	}
	assert.Contains(t, r.Defaulted(), "ROE")
	assert.Len(t, r.Analysis(), 5)

	out := r.Render()
	assert.True(t, strings.HasPrefix(out, "=== 財務分析報告 ==="))
	for _, h := range []string{"一、獲利能力分析", "二、財務結構分析", "三、營運效率分析", "四、風險評估分析", "五、投資建議分析"} {
		assert.Contains(t, out, h)
	}
}

func TestSuggestions_FallBackToBoilerplate(t *testing.T) {
	v := View{
		"GrossMargin":     0.45,
		"OperatingMargin": 0.25,
		"RevenueGrowth":   0.2,
		"ROE":             0.25,
		"ROA":             0.12,
	}
	s := NewEvaluator().Profitability(v)

	assert.Equal(t, []string{"公司整體獲利能力優異，建議維持現有經營策略", "持續關注市場變化，確保競爭優勢"}, s.Suggestions)
}

func TestSuggestions_FireInTableOrder(t *testing.T) {
	v := View{"AssetTurnover": 0.8, "ReceivablesDays": 75, "InventoryDays": 40, "OperatingCycle": 115}
	s := NewEvaluator().OperatingEfficiency(v)

	assert.Equal(t, []string{
		"建議提升資產使用效率，增加營收貢獻",
		"需加強應收帳款管理，縮短收款天數",
		"建議縮短整體營運週期，提升營運效率",
	}, s.Suggestions)
	assert.Equal(t, "fair", s.Tier("ReceivablesDays"))
	assert.Equal(t, "good", s.Tier("InventoryDays"))
	assert.Equal(t, "fair", s.Tier("OperatingCycle"))
}

func TestClassify_Thresholds(t *testing.T) {
	roe := profitabilityTable.Groups[2].Ladders[0]
	require.Equal(t, "ROE", roe.Metric)

	cases := []struct {
		value float64
		tier  string
	}{
		{0.25, "excellent"},
		{0.2, "fair"},
		{0.1000001, "fair"},
		{0.1, "low"},
		{-0.3, "low"},
	}
	for _, tc := range cases {
		got := Classify(roe, View{"ROE": tc.value})
		assert.Equal(t, tc.tier, got.Tier, "ROE=%v", tc.value)
	}
}

func TestClassify_RelativeRule(t *testing.T) {
	ocf := riskTable.Groups[2].Ladders[0]
	require.Equal(t, "OperatingCashFlow", ocf.Metric)

	assert.Equal(t, "negative", Classify(ocf, View{"OperatingCashFlow": -1}).Tier)
	assert.Equal(t, "strained", Classify(ocf, View{"OperatingCashFlow": 5, "FinancingCashFlow": 10}).Tier)
	assert.Equal(t, "ample", Classify(ocf, View{"OperatingCashFlow": 10, "FinancingCashFlow": 5}).Tier)
}

func TestInvestmentAdvice_BandsAndVerdict(t *testing.T) {
	v := View{"ROE": 0.2, "DebtRatio": 0.3, "RevenueGrowth": 0.25, MetricPE: 15, MetricPB: 3, "ReportedEPS": 6}
	s := NewEvaluator().InvestmentAdvice(v)

	assert.Equal(t, "pass", s.Tier(MetricPE))
	assert.Equal(t, "fail", s.Tier(MetricPB))
	assert.Equal(t, "pass", s.Tier("EPS"))
	assert.Equal(t, string(Recommend), s.Tier("Verdict"))
	assert.Contains(t, s.Text(), "建議投資")
	assert.Contains(t, s.Text(), "投資風險提示")
	assert.Empty(t, s.Suggestions)
}

func TestReport_RefinementReplacesBody(t *testing.T) {
	r := NewEvaluator().Evaluate(View{})
	sec, ok := r.Section(KeyRiskAssessment)
	require.True(t, ok)
	sec.Refinement = "refined"

	assert.Equal(t, "refined", r.Analysis()[KeyRiskAssessment])
	assert.Contains(t, r.Render(), "refined")
}

func TestSummary(t *testing.T) {
	v := View{
		"TotalAssets":       2e10,
		"TotalLiabilities":  1.2e10,
		"Equity":            8e9,
		"DebtRatio":         0.6,
		"OperatingCashFlow": 2.5e6,
	}
	got := Summary(v)

	assert.Equal(t, "公司總資產為 20.00十億 元。其中負債 12.00十億 元，權益 8.00十億 元。負債比率為 60.00%。現金流量方面：營業活動現金流量 2.50百萬 元。", got)
	assert.Empty(t, Summary(View{}))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1.50十億", FormatNumber(1.5e9))
	assert.Equal(t, "-2.00百萬", FormatNumber(-2e6))
	assert.Equal(t, "3.20千", FormatNumber(3200))
	assert.Equal(t, "12.34", FormatNumber(12.34))
	assert.Equal(t, "15,000,000,000 元", FormatValue(1.5e10, calc.UnitAmount))
}
