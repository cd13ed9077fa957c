package calc

import (
	"math"
	"sort"

	f "finreport_analyzer/pkg/core/fields"
)

// Ratio names a derived metric.
type Ratio string

// Family groups ratios the way the engine exposes them.
type Family int

const (
	Profitability Family = iota
	FinancialStructure
	OperatingEfficiency
	Growth
	CashFlow
	Leverage
	PerShare
)

// Families lists ratio families in evaluation order.
var Families = []Family{Profitability, FinancialStructure, OperatingEfficiency, Growth, CashFlow, Leverage, PerShare}

func (fam Family) String() string {
	switch fam {
	case Profitability:
		return "profitability"
	case FinancialStructure:
		return "financial_structure"
	case OperatingEfficiency:
		return "operating_efficiency"
	case Growth:
		return "growth"
	case CashFlow:
		return "cash_flow"
	case Leverage:
		return "leverage"
	case PerShare:
		return "per_share"
	}
	return "unknown"
}

// Unit tells presentation code how to format a value.
type Unit int

const (
	UnitPercent Unit = iota
	UnitTimes
	UnitDays
	UnitAmount
	UnitPerShare
)

const (
	ROE                   Ratio = "ROE"
	ROA                   Ratio = "ROA"
	GrossMargin           Ratio = "GrossMargin"
	OperatingMargin       Ratio = "OperatingMargin"
	NetMargin             Ratio = "NetMargin"
	EBITDAMargin          Ratio = "EBITDAMargin"
	DebtRatio             Ratio = "DebtRatio"
	CurrentRatio          Ratio = "CurrentRatio"
	QuickRatio            Ratio = "QuickRatio"
	EquityRatio           Ratio = "EquityRatio"
	LongTermFundsRatio    Ratio = "LongTermFundsRatio"
	CurrentAssetShare     Ratio = "CurrentAssetShare"
	FixedAssetShare       Ratio = "FixedAssetShare"
	ReceivablesTurnover   Ratio = "ReceivablesTurnover"
	ReceivablesDays       Ratio = "ReceivablesDays"
	InventoryTurnover     Ratio = "InventoryTurnover"
	InventoryDays         Ratio = "InventoryDays"
	OperatingCycle        Ratio = "OperatingCycle"
	AssetTurnover         Ratio = "AssetTurnover"
	FixedAssetTurnover    Ratio = "FixedAssetTurnover"
	RevenueGrowth         Ratio = "RevenueGrowth"
	NetIncomeGrowth       Ratio = "NetIncomeGrowth"
	CashFlowRatio         Ratio = "CashFlowRatio"
	CashReinvestmentRatio Ratio = "CashReinvestmentRatio"
	FreeCashFlow          Ratio = "FreeCashFlow"
	FinancialLeverage     Ratio = "FinancialLeverage"
	OperatingLeverage     Ratio = "OperatingLeverage"
	TotalLeverage         Ratio = "TotalLeverage"
	InterestCoverage      Ratio = "InterestCoverage"
	EPS                   Ratio = "EPS"
	BookValuePerShare     Ratio = "BookValuePerShare"
)

const daysPerYear = 365.0

// Definition declares one ratio. Inputs are canonical fields or ratios
// computed earlier in the same family; Denominators is the subset that must
// be non-zero. Formula only ever sees inputs that are present.
type Definition struct {
	Name         Ratio
	Label        string
	Family       Family
	Unit         Unit
	Inputs       []string
	Denominators []string
	Formula      func(in Inputs) float64
}

// Inputs is the resolved argument set handed to a formula.
type Inputs map[string]float64

// Field returns a canonical field argument.
func (in Inputs) Field(k f.Field) float64 { return in[string(k)] }

// Ratio returns an argument produced by an earlier ratio.
func (in Inputs) Ratio(k Ratio) float64 { return in[string(k)] }

func names[K ~string](keys ...K) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func quotient(num, den f.Field) func(Inputs) float64 {
	return func(in Inputs) float64 { return in.Field(num) / in.Field(den) }
}

// Ratios is an engine result; an absent key means not computable.
type Ratios map[Ratio]float64

// Get returns one ratio.
func (r Ratios) Get(name Ratio) (float64, bool) {
	v, ok := r[name]
	return v, ok
}

// Names lists the computed ratios sorted by name.
func (r Ratios) Names() []Ratio {
	out := make([]Ratio, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map converts to plain string keys for serialization.
func (r Ratios) Map() map[string]float64 {
	out := make(map[string]float64, len(r))
	for k, v := range r {
		out[string(k)] = v
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// =============================================================================
// RATIO CATALOG
// =============================================================================

// definitions is ordered so that every ratio input produced by another
// ratio appears before its consumer within the same family.
var definitions = []Definition{
	// Profitability
	{Name: ROE, Label: "股東權益報酬率", Family: Profitability, Unit: UnitPercent,
		Inputs: names(f.NetIncome, f.Equity), Denominators: names(f.Equity),
		Formula: quotient(f.NetIncome, f.Equity)},
	{Name: ROA, Label: "資產報酬率", Family: Profitability, Unit: UnitPercent,
		Inputs: names(f.NetIncome, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.NetIncome, f.TotalAssets)},
	{Name: GrossMargin, Label: "毛利率", Family: Profitability, Unit: UnitPercent,
		Inputs: names(f.GrossProfit, f.Revenue), Denominators: names(f.Revenue),
		Formula: quotient(f.GrossProfit, f.Revenue)},
	{Name: OperatingMargin, Label: "營業利益率", Family: Profitability, Unit: UnitPercent,
		Inputs: names(f.OperatingIncome, f.Revenue), Denominators: names(f.Revenue),
		Formula: quotient(f.OperatingIncome, f.Revenue)},
	{Name: NetMargin, Label: "淨利率", Family: Profitability, Unit: UnitPercent,
		Inputs: names(f.NetIncome, f.Revenue), Denominators: names(f.Revenue),
		Formula: quotient(f.NetIncome, f.Revenue)},
	{Name: EBITDAMargin, Label: "EBITDA利潤率", Family: Profitability, Unit: UnitPercent,
		Inputs:       names(f.OperatingIncome, f.Depreciation, f.Amortization, f.Revenue),
		Denominators: names(f.Revenue),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.OperatingIncome) + in.Field(f.Depreciation) + in.Field(f.Amortization)) / in.Field(f.Revenue)
		}},

	// Financial structure
	{Name: DebtRatio, Label: "負債比率", Family: FinancialStructure, Unit: UnitPercent,
		Inputs: names(f.TotalLiabilities, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.TotalLiabilities, f.TotalAssets)},
	{Name: CurrentRatio, Label: "流動比率", Family: FinancialStructure, Unit: UnitTimes,
		Inputs: names(f.CurrentAssets, f.CurrentLiabilities), Denominators: names(f.CurrentLiabilities),
		Formula: quotient(f.CurrentAssets, f.CurrentLiabilities)},
	{Name: QuickRatio, Label: "速動比率", Family: FinancialStructure, Unit: UnitTimes,
		Inputs:       names(f.CurrentAssets, f.Inventory, f.CurrentLiabilities),
		Denominators: names(f.CurrentLiabilities),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.CurrentAssets) - in.Field(f.Inventory)) / in.Field(f.CurrentLiabilities)
		}},
	{Name: EquityRatio, Label: "權益比率", Family: FinancialStructure, Unit: UnitPercent,
		Inputs: names(f.Equity, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.Equity, f.TotalAssets)},
	{Name: LongTermFundsRatio, Label: "長期資金適合率", Family: FinancialStructure, Unit: UnitTimes,
		Inputs:       names(f.Equity, f.LongTermLiabilities, f.FixedAssets),
		Denominators: names(f.FixedAssets),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.Equity) + in.Field(f.LongTermLiabilities)) / in.Field(f.FixedAssets)
		}},
	{Name: CurrentAssetShare, Label: "流動資產比率", Family: FinancialStructure, Unit: UnitPercent,
		Inputs: names(f.CurrentAssets, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.CurrentAssets, f.TotalAssets)},
	{Name: FixedAssetShare, Label: "非流動資產比率", Family: FinancialStructure, Unit: UnitPercent,
		Inputs: names(f.FixedAssets, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.FixedAssets, f.TotalAssets)},

	// Operating efficiency
	{Name: ReceivablesTurnover, Label: "應收帳款週轉率", Family: OperatingEfficiency, Unit: UnitTimes,
		Inputs: names(f.Revenue, f.Receivables), Denominators: names(f.Receivables),
		Formula: quotient(f.Revenue, f.Receivables)},
	{Name: ReceivablesDays, Label: "應收帳款週轉天數", Family: OperatingEfficiency, Unit: UnitDays,
		Inputs: names(ReceivablesTurnover), Denominators: names(ReceivablesTurnover),
		Formula: func(in Inputs) float64 { return daysPerYear / in.Ratio(ReceivablesTurnover) }},
	{Name: InventoryTurnover, Label: "存貨週轉率", Family: OperatingEfficiency, Unit: UnitTimes,
		Inputs: names(f.COGS, f.Inventory), Denominators: names(f.Inventory),
		Formula: quotient(f.COGS, f.Inventory)},
	{Name: InventoryDays, Label: "存貨週轉天數", Family: OperatingEfficiency, Unit: UnitDays,
		Inputs: names(InventoryTurnover), Denominators: names(InventoryTurnover),
		Formula: func(in Inputs) float64 { return daysPerYear / in.Ratio(InventoryTurnover) }},
	{Name: OperatingCycle, Label: "營業週期", Family: OperatingEfficiency, Unit: UnitDays,
		Inputs:  names(ReceivablesDays, InventoryDays),
		Formula: func(in Inputs) float64 { return in.Ratio(ReceivablesDays) + in.Ratio(InventoryDays) }},
	{Name: AssetTurnover, Label: "總資產週轉率", Family: OperatingEfficiency, Unit: UnitTimes,
		Inputs: names(f.Revenue, f.TotalAssets), Denominators: names(f.TotalAssets),
		Formula: quotient(f.Revenue, f.TotalAssets)},
	{Name: FixedAssetTurnover, Label: "固定資產週轉率", Family: OperatingEfficiency, Unit: UnitTimes,
		Inputs: names(f.Revenue, f.FixedAssets), Denominators: names(f.FixedAssets),
		Formula: quotient(f.Revenue, f.FixedAssets)},

	// Growth
	{Name: RevenueGrowth, Label: "營收成長率", Family: Growth, Unit: UnitPercent,
		Inputs: names(f.Revenue, f.PriorRevenue), Denominators: names(f.PriorRevenue),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.Revenue) - in.Field(f.PriorRevenue)) / in.Field(f.PriorRevenue)
		}},
	{Name: NetIncomeGrowth, Label: "淨利成長率", Family: Growth, Unit: UnitPercent,
		Inputs: names(f.NetIncome, f.PriorNetIncome), Denominators: names(f.PriorNetIncome),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.NetIncome) - in.Field(f.PriorNetIncome)) / in.Field(f.PriorNetIncome)
		}},

	// Cash flow
	{Name: CashFlowRatio, Label: "現金流量比率", Family: CashFlow, Unit: UnitPercent,
		Inputs: names(f.OperatingCashFlow, f.CurrentLiabilities), Denominators: names(f.CurrentLiabilities),
		Formula: quotient(f.OperatingCashFlow, f.CurrentLiabilities)},
	{Name: CashReinvestmentRatio, Label: "現金再投資比率", Family: CashFlow, Unit: UnitPercent,
		Inputs: names(f.OperatingCashFlow, f.NetIncome), Denominators: names(f.NetIncome),
		Formula: quotient(f.OperatingCashFlow, f.NetIncome)},
	// Capex is reported as an outflow by some filers and as a positive
	// amount by others; either way it reduces free cash flow.
	{Name: FreeCashFlow, Label: "自由現金流量", Family: CashFlow, Unit: UnitAmount,
		Inputs: names(f.OperatingCashFlow, f.CapitalExpenditure),
		Formula: func(in Inputs) float64 {
			return in.Field(f.OperatingCashFlow) - math.Abs(in.Field(f.CapitalExpenditure))
		}},

	// Leverage
	{Name: FinancialLeverage, Label: "財務槓桿度", Family: Leverage, Unit: UnitTimes,
		Inputs: names(f.TotalLiabilities, f.Equity), Denominators: names(f.Equity),
		Formula: quotient(f.TotalLiabilities, f.Equity)},
	{Name: OperatingLeverage, Label: "營運槓桿度", Family: Leverage, Unit: UnitTimes,
		Inputs: names(f.Revenue, f.COGS, f.OperatingIncome), Denominators: names(f.OperatingIncome),
		Formula: func(in Inputs) float64 {
			return (in.Field(f.Revenue) - in.Field(f.COGS)) / in.Field(f.OperatingIncome)
		}},
	{Name: TotalLeverage, Label: "總槓桿度", Family: Leverage, Unit: UnitTimes,
		Inputs:  names(OperatingLeverage, FinancialLeverage),
		Formula: func(in Inputs) float64 { return in.Ratio(OperatingLeverage) * in.Ratio(FinancialLeverage) }},
	{Name: InterestCoverage, Label: "利息保障倍數", Family: Leverage, Unit: UnitTimes,
		Inputs: names(f.OperatingIncome, f.InterestExpense), Denominators: names(f.InterestExpense),
		Formula: quotient(f.OperatingIncome, f.InterestExpense)},

	// Per share
	{Name: EPS, Label: "每股盈餘", Family: PerShare, Unit: UnitPerShare,
		Inputs: names(f.NetIncome, f.SharesOutstanding), Denominators: names(f.SharesOutstanding),
		Formula: quotient(f.NetIncome, f.SharesOutstanding)},
	{Name: BookValuePerShare, Label: "每股淨值", Family: PerShare, Unit: UnitPerShare,
		Inputs: names(f.Equity, f.SharesOutstanding), Denominators: names(f.SharesOutstanding),
		Formula: quotient(f.Equity, f.SharesOutstanding)},
}

var byName = func() map[Ratio]Definition {
	m := make(map[Ratio]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Name] = d
	}
	return m
}()

// Definitions returns the built-in ratio catalog in evaluation order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the built-in definition of a ratio.
func Lookup(name Ratio) (Definition, bool) {
	d, ok := byName[name]
	return d, ok
}
