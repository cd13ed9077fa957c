package narrative

import (
	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/fields"
)

// Market multiples are not derivable from statements; callers may supply
// them alongside the extracted figures.
const (
	MetricPE = "PriceEarnings"
	MetricPB = "PriceToBook"
)

func m[K ~string](k K) string { return string(k) }

func metric[K ~string](k K, u calc.Unit) Metric {
	return Metric{Key: string(k), Label: LabelOf(string(k)), Unit: u}
}

func ladder[K ~string](k K, u calc.Unit, rules ...Rule) Ladder {
	return Ladder{Metric: string(k), Label: LabelOf(string(k)), Unit: u, Rules: rules}
}

func bare[K ~string](k K, rules ...Rule) Ladder {
	return Ladder{Metric: string(k), Label: LabelOf(string(k)), Bare: true, Rules: rules}
}

// =============================================================================
// PROFITABILITY
// =============================================================================

var profitabilityTable = Table{
	Key:   "profitability",
	Title: "獲利能力分析",
	Metrics: []Metric{
		metric(fields.Revenue, calc.UnitAmount),
		metric(calc.RevenueGrowth, calc.UnitPercent),
		metric(calc.GrossMargin, calc.UnitPercent),
		metric(calc.OperatingMargin, calc.UnitPercent),
		metric(calc.NetMargin, calc.UnitPercent),
		metric(calc.ROE, calc.UnitPercent),
		metric(calc.ROA, calc.UnitPercent),
	},
	Groups: []Group{
		{Title: "營收規模評估", Ladders: []Ladder{
			bare(fields.Revenue,
				Above(1e10, "large", "公司營收規模龐大（超過百億），顯示具備相當市場地位"),
				Above(1e9, "medium", "公司營收規模中等（超過十億），具有一定市場基礎"),
				Otherwise("small", "公司營收規模較小，仍有成長空間")),
			bare(calc.RevenueGrowth,
				Above(0.3, "rapid", "營收呈現高速成長（>30%），顯示業務擴張迅速"),
				Above(0.1, "steady", "營收呈現穩健成長（>10%），業務發展態勢良好"),
				Above(0, "weak", "營收雖有成長但力道較弱，需加強業務拓展"),
				Otherwise("decline", "營收呈現衰退，需審慎評估業務發展策略")),
		}},
		{Title: "獲利能力評估", Ladders: []Ladder{
			ladder(calc.GrossMargin, calc.UnitPercent,
				Above(0.4, "excellent", "處於優異水準，顯示產品具備強大的價格優勢"),
				Above(0.2, "fair", "處於合理水準，產品具有一定競爭力"),
				Otherwise("low", "偏低，需加強產品定價能力或成本控制")),
			ladder(calc.OperatingMargin, calc.UnitPercent,
				Above(0.2, "excellent", "營運效率優異"),
				Above(0.1, "fair", "營運效率尚可"),
				Otherwise("low", "營運效率待提升")),
			ladder(calc.NetMargin, calc.UnitPercent,
				Above(0.15, "strong", "獲利能力強勁"),
				Above(0.05, "stable", "獲利能力穩定"),
				Otherwise("weak", "獲利能力較弱")),
		}},
		{Title: "資產報酬評估", Ladders: []Ladder{
			ladder(calc.ROE, calc.UnitPercent,
				Above(0.2, "excellent", "股東權益報酬優異"),
				Above(0.1, "fair", "股東權益報酬尚可"),
				Otherwise("low", "股東權益報酬偏低")),
			ladder(calc.ROA, calc.UnitPercent,
				Above(0.1, "high", "資產運用效率高"),
				Above(0.05, "medium", "資產運用效率中等"),
				Otherwise("low", "資產運用效率待提升")),
		}},
	},
	Suggestions: []Suggestion{
		{m(calc.GrossMargin), CmpBelow, 0.2, "建議加強產品定價策略和成本控制，提升毛利率"},
		{m(calc.OperatingMargin), CmpBelow, 0.1, "需優化營運效率，控制營業費用"},
		{m(calc.RevenueGrowth), CmpBelow, 0.1, "應強化市場開發，提升營收成長動能"},
		{m(calc.ROE), CmpBelow, 0.1, "建議改善資本配置效率，提升股東權益報酬率"},
		{m(calc.ROA), CmpBelow, 0.05, "需加強資產運用效率，提高資產報酬率"},
	},
	Fallback: []string{"公司整體獲利能力優異，建議維持現有經營策略", "持續關注市場變化，確保競爭優勢"},
}

// =============================================================================
// FINANCIAL STRUCTURE
// =============================================================================

var financialStructureTable = Table{
	Key:   "financial_structure",
	Title: "財務結構分析",
	Metrics: []Metric{
		metric(fields.TotalAssets, calc.UnitAmount),
		metric(fields.TotalLiabilities, calc.UnitAmount),
		metric(fields.Equity, calc.UnitAmount),
		metric(calc.DebtRatio, calc.UnitPercent),
		metric(calc.EquityRatio, calc.UnitPercent),
		metric(calc.CurrentRatio, calc.UnitTimes),
		metric(calc.LongTermFundsRatio, calc.UnitTimes),
		metric(calc.CurrentAssetShare, calc.UnitPercent),
		metric(calc.FixedAssetShare, calc.UnitPercent),
	},
	Groups: []Group{
		{Title: "財務結構評估", Ladders: []Ladder{
			ladder(calc.DebtRatio, calc.UnitPercent,
				Above(0.7, "high", "處於高槓桿狀態，財務風險較高"),
				Above(0.5, "moderate", "槓桿使用中等，需注意風險控制"),
				Otherwise("sound", "財務結構穩健")),
			ladder(calc.EquityRatio, calc.UnitPercent,
				Below(0.3, "low", "偏低，財務彈性較小"),
				Otherwise("adequate", "適當，具備財務彈性")),
		}},
		{Title: "償債能力評估", Ladders: []Ladder{
			ladder(calc.CurrentRatio, calc.UnitTimes,
				Above(2, "excellent", "短期償債能力優異"),
				Above(1.5, "good", "短期償債能力良好"),
				Above(1, "fair", "短期償債能力尚可"),
				Otherwise("weak", "短期償債能力不足")),
			ladder(calc.LongTermFundsRatio, calc.UnitTimes,
				Above(1.2, "excellent", "長期償債能力優異"),
				Above(1, "fair", "長期償債能力尚可"),
				Otherwise("weak", "長期資金配置需改善")),
		}},
		{Title: "資產配置評估", Ladders: []Ladder{
			ladder(calc.CurrentAssetShare, calc.UnitPercent,
				Above(0.6, "high", "資產流動性高"),
				Above(0.4, "moderate", "資產流動性適中"),
				Otherwise("low", "資產流動性較低")),
			ladder(calc.FixedAssetShare, calc.UnitPercent,
				Above(0.6, "high", "長期投資比重較高"),
				Otherwise("moderate", "長期投資比重適中")),
		}},
	},
	Suggestions: []Suggestion{
		{m(calc.DebtRatio), CmpAbove, 0.6, "建議適度降低負債水平，減少財務風險"},
		{m(calc.CurrentRatio), CmpBelow, 1.5, "需加強短期償債能力，提高流動資產配置"},
		{m(calc.LongTermFundsRatio), CmpBelow, 1, "應改善長期資金結構，確保長期投資穩定性"},
		{m(calc.CurrentAssetShare), CmpBelow, 0.3, "考慮提高流動資產比重，增加營運彈性"},
	},
	Fallback: []string{"整體財務結構穩健，建議維持現有財務政策", "持續監控負債水平，確保償債能力穩定"},
}

// =============================================================================
// OPERATING EFFICIENCY
// =============================================================================

func dayLadder[K ~string](k K, subject string, a, b, c float64) Ladder {
	return ladder(k, calc.UnitDays,
		Below(a, "excellent", subject+"優異"),
		Below(b, "good", subject+"良好"),
		Below(c, "fair", subject+"尚可"),
		Otherwise("weak", subject+"需改善"))
}

var operatingEfficiencyTable = Table{
	Key:   "operational_efficiency",
	Title: "營運效率分析",
	Metrics: []Metric{
		metric(calc.AssetTurnover, calc.UnitTimes),
		metric(calc.ReceivablesTurnover, calc.UnitTimes),
		metric(calc.InventoryTurnover, calc.UnitTimes),
		metric(calc.ReceivablesDays, calc.UnitDays),
		metric(calc.InventoryDays, calc.UnitDays),
		metric(calc.OperatingCycle, calc.UnitDays),
	},
	Groups: []Group{
		{Title: "資產運用效率評估", Ladders: []Ladder{
			ladder(calc.AssetTurnover, calc.UnitTimes,
				Above(1.5, "excellent", "資產運用效率優異"),
				Above(1, "good", "資產運用效率良好"),
				Above(0.5, "fair", "資產運用效率尚可"),
				Otherwise("weak", "資產運用效率待提升")),
		}},
		{Title: "應收帳款管理評估", Ladders: []Ladder{dayLadder(calc.ReceivablesDays, "收款效率", 30, 60, 90)}},
		{Title: "存貨管理評估", Ladders: []Ladder{dayLadder(calc.InventoryDays, "存貨管理效率", 30, 60, 90)}},
		{Title: "營運週期評估", Ladders: []Ladder{dayLadder(calc.OperatingCycle, "營運效率", 60, 90, 120)}},
	},
	Suggestions: []Suggestion{
		{m(calc.AssetTurnover), CmpBelow, 1, "建議提升資產使用效率，增加營收貢獻"},
		{m(calc.ReceivablesDays), CmpAbove, 60, "需加強應收帳款管理，縮短收款天數"},
		{m(calc.InventoryDays), CmpAbove, 60, "應優化存貨管理，降低庫存天數"},
		{m(calc.OperatingCycle), CmpAbove, 90, "建議縮短整體營運週期，提升營運效率"},
	},
	Fallback: []string{"整體營運效率良好，建議維持現有管理政策", "持續監控各項週轉指標，確保營運效率穩定"},
}

// =============================================================================
// RISK
// =============================================================================

var riskTable = Table{
	Key:   "risk_assessment",
	Title: "風險評估分析",
	Metrics: []Metric{
		metric(calc.DebtRatio, calc.UnitPercent),
		metric(calc.CurrentRatio, calc.UnitTimes),
		metric(calc.OperatingLeverage, calc.UnitTimes),
		metric(calc.FinancialLeverage, calc.UnitTimes),
		metric(calc.TotalLeverage, calc.UnitTimes),
		metric(calc.CashFlowRatio, calc.UnitPercent),
		metric(calc.CashReinvestmentRatio, calc.UnitPercent),
		metric(fields.OperatingCashFlow, calc.UnitAmount),
		metric(fields.InvestingCashFlow, calc.UnitAmount),
		metric(fields.FinancingCashFlow, calc.UnitAmount),
	},
	Groups: []Group{
		{Title: "財務風險評估", Ladders: []Ladder{
			ladder(calc.DebtRatio, calc.UnitPercent,
				Above(0.7, "high", "財務風險較高"),
				Above(0.5, "medium", "財務風險中等"),
				Otherwise("low", "財務風險較低")),
			ladder(calc.CurrentRatio, calc.UnitTimes,
				Below(1, "high", "短期償債風險高"),
				Below(1.5, "medium", "短期償債風險中等"),
				Otherwise("low", "短期償債風險低")),
		}},
		{Title: "槓桿風險評估", Ladders: []Ladder{
			ladder(calc.OperatingLeverage, calc.UnitTimes,
				Above(3, "high", "營運風險較高"),
				Above(2, "medium", "營運風險中等"),
				Otherwise("low", "營運風險較低")),
			ladder(calc.FinancialLeverage, calc.UnitTimes,
				Above(2, "high", "財務風險較高"),
				Above(1.5, "medium", "財務風險中等"),
				Otherwise("low", "財務風險較低")),
			ladder(calc.TotalLeverage, calc.UnitTimes,
				Above(4, "high", "整體經營風險較高"),
				Above(3, "medium", "整體經營風險中等"),
				Otherwise("low", "整體經營風險較低")),
		}},
		{Title: "現金流量風險評估", Ladders: []Ladder{
			bare(fields.OperatingCashFlow,
				Below(0, "negative", "營運現金流量為負，營運資金壓力大"),
				BelowMetric(m(fields.FinancingCashFlow), "strained", "營運現金流量不足以支應籌資需求，需關注資金壓力"),
				Otherwise("ample", "營運現金流量充足，營運資金壓力小")),
			ladder(calc.CashFlowRatio, calc.UnitPercent,
				Below(0.1, "high", "偏低，現金流量風險較高"),
				Below(0.2, "medium", "中等，現金流量風險中等"),
				Otherwise("low", "良好，現金流量風險較低")),
		}},
	},
	Suggestions: []Suggestion{
		{m(calc.DebtRatio), CmpAbove, 0.6, "建議降低負債水平，減少財務風險"},
		{m(calc.CurrentRatio), CmpBelow, 1.5, "需提高流動比率，降低短期償債風險"},
		{m(calc.OperatingLeverage), CmpAbove, 2.5, "應控制營運槓桿，降低營運風險"},
		{m(calc.FinancialLeverage), CmpAbove, 1.8, "建議降低財務槓桿，減少財務風險"},
		{m(calc.CashFlowRatio), CmpBelow, 0.15, "需改善現金流量，增強風險承受能力"},
	},
	Fallback: []string{"整體風險水平可控，建議維持現有風險管理政策", "持續監控各項風險指標，確保經營穩定性"},
}

// =============================================================================
// INVESTMENT ADVICE
// =============================================================================

func check[K ~string](k K, u calc.Unit, pass Rule, fail string) Ladder {
	return ladder(k, u, pass, Otherwise("fail", fail))
}

func hint[K ~string](k K, pass Rule, fail string) Ladder {
	return bare(k, pass, Otherwise("fail", fail))
}

var investmentTable = Table{
	Key:   "investment_advice",
	Title: "投資建議分析",
	Metrics: []Metric{
		metric(fields.Revenue, calc.UnitAmount),
		metric(calc.RevenueGrowth, calc.UnitPercent),
		metric(calc.GrossMargin, calc.UnitPercent),
		metric(calc.OperatingMargin, calc.UnitPercent),
		metric(calc.ROE, calc.UnitPercent),
		metric(calc.ROA, calc.UnitPercent),
		metric(calc.DebtRatio, calc.UnitPercent),
		metric(calc.CurrentRatio, calc.UnitTimes),
		metric(calc.OperatingCycle, calc.UnitDays),
		metric(fields.OperatingCashFlow, calc.UnitAmount),
		metric(calc.FreeCashFlow, calc.UnitAmount),
		metric(calc.CashFlowRatio, calc.UnitPercent),
		metric(calc.EPS, calc.UnitPerShare),
		metric(MetricPE, calc.UnitTimes),
		metric(MetricPB, calc.UnitTimes),
	},
	Groups: []Group{
		{Title: "營運表現評估", Ladders: []Ladder{
			check(fields.Revenue, calc.UnitAmount, Above(1e10, "pass", "顯示經營規模可觀"), "營運規模尚待提升"),
			check(calc.RevenueGrowth, calc.UnitPercent, Above(0.2, "pass", "成長動能強勁"), "成長力道待加強"),
			check(calc.GrossMargin, calc.UnitPercent, Above(0.3, "pass", "顯示具備良好獲利能力"), "獲利能力有待提升"),
			check(calc.ROE, calc.UnitPercent, Above(0.15, "pass", "股東權益報酬優異"), "股東報酬待改善"),
		}},
		{Title: "財務結構評估", Ladders: []Ladder{
			check(calc.DebtRatio, calc.UnitPercent, Above(0.5, "elevated", "財務槓桿較高需注意風險"), "財務結構相對穩健"),
			check(calc.CurrentRatio, calc.UnitTimes, Above(2, "pass", "短期償債能力佳"), "流動性風險需關注"),
			check(calc.OperatingCycle, calc.UnitDays, Below(90, "pass", "營運效率良好"), "營運效率有待提升"),
		}},
		{Title: "現金流量評估", Ladders: []Ladder{
			check(fields.OperatingCashFlow, calc.UnitAmount, Above(0, "pass", "營運現金創造能力強"), "營運現金流需改善"),
			check(calc.FreeCashFlow, calc.UnitAmount, Above(0, "pass", "具備良好投資發展潛力"), "自由現金流待加強"),
			check(calc.CashFlowRatio, calc.UnitPercent, Above(0.2, "pass", "現金流量充裕"), "現金流量管理需加強"),
		}},
		{Title: "風險評估", Ladders: []Ladder{
			check(calc.OperatingLeverage, calc.UnitTimes, Above(3, "elevated", "營運風險較高"), "營運風險可控"),
			check(calc.FinancialLeverage, calc.UnitTimes, Above(2, "elevated", "財務風險需關注"), "財務風險可控"),
			check(calc.TotalLeverage, calc.UnitTimes, Above(4, "elevated", "整體風險偏高"), "整體風險程度可控"),
		}},
		{Title: "投資價值評估", Ladders: []Ladder{
			check(calc.EPS, calc.UnitPerShare, Above(5, "pass", "獲利表現優異"), "獲利能力待提升"),
			check(MetricPE, calc.UnitTimes, Between(10, 20, "pass", "評價合理"), "需評估投資價值"),
			check(MetricPB, calc.UnitTimes, Between(0.8, 2, "pass", "評價合理"), "需評估投資價值"),
		}},
	},
}

// Rendered after the verdict line.
var investmentOutlook = []Group{
	{Title: "投資重點關注", Ladders: []Ladder{
		hint(calc.RevenueGrowth, Above(0.1, "pass", "成長性佳"), "成長性待觀察"),
		hint(calc.ROE, Above(0.15, "pass", "獲利能力強"), "獲利能力待提升"),
		hint(calc.DebtRatio, Below(0.5, "pass", "財務結構穩健"), "財務結構需改善"),
		hint(calc.CashFlowRatio, Above(0.2, "pass", "現金流量充足"), "現金流量待加強"),
		hint(calc.TotalLeverage, Below(4, "pass", "風險程度可控"), "風險程度較高"),
	}},
	{Title: "投資風險提示", Ladders: []Ladder{
		hint(calc.DebtRatio, Above(0.5, "warn", "負債比率偏高，需注意財務風險"), "財務結構相對穩健"),
		hint(calc.OperatingLeverage, Above(3, "warn", "營運槓桿度高，獲利波動風險大"), "營運風險程度可控"),
		hint(calc.CashFlowRatio, Below(0.2, "warn", "現金流量不足，需關注營運資金"), "現金流量狀況良好"),
	}},
}
