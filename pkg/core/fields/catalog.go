// Package fields holds the closed catalog of canonical financial statement
// line items and resolves surface labels found in documents onto it.
package fields

// Family groups canonical fields by the statement they are reported on.
type Family int

const (
	BalanceSheet Family = iota
	IncomeStatement
	CashFlow
)

func (f Family) String() string {
	switch f {
	case BalanceSheet:
		return "balance_sheet"
	case IncomeStatement:
		return "income_statement"
	case CashFlow:
		return "cash_flow"
	}
	return "unknown"
}

// Families lists every family in resolution order.
var Families = []Family{BalanceSheet, IncomeStatement, CashFlow}

// Field is a canonical line item identifier.
type Field string

// =============================================================================
// BALANCE SHEET
// =============================================================================

const (
	CurrentAssets       Field = "CurrentAssets"
	FixedAssets         Field = "FixedAssets"
	Inventory           Field = "Inventory"
	Cash                Field = "Cash"
	Receivables         Field = "Receivables"
	TotalAssets         Field = "TotalAssets"
	CurrentLiabilities  Field = "CurrentLiabilities"
	LongTermLiabilities Field = "LongTermLiabilities"
	AccountsPayable     Field = "AccountsPayable"
	ShortTermBorrowings Field = "ShortTermBorrowings"
	TotalLiabilities    Field = "TotalLiabilities"
	Equity              Field = "Equity"
	RetainedEarnings    Field = "RetainedEarnings"
	SharesOutstanding   Field = "SharesOutstanding"
)

// =============================================================================
// INCOME STATEMENT
// =============================================================================

const (
	Revenue           Field = "Revenue"
	COGS              Field = "COGS"
	GrossProfit       Field = "GrossProfit"
	OperatingExpenses Field = "OperatingExpenses"
	OperatingIncome   Field = "OperatingIncome"
	InterestExpense   Field = "InterestExpense"
	PreTaxIncome      Field = "PreTaxIncome"
	IncomeTax         Field = "IncomeTax"
	NetIncome         Field = "NetIncome"
	ReportedEPS       Field = "ReportedEPS"
	PriorRevenue      Field = "PriorRevenue"
	PriorNetIncome    Field = "PriorNetIncome"
)

// =============================================================================
// CASH FLOW
// =============================================================================

const (
	OperatingCashFlow  Field = "OperatingCashFlow"
	InvestingCashFlow  Field = "InvestingCashFlow"
	FinancingCashFlow  Field = "FinancingCashFlow"
	NetCashChange      Field = "NetCashChange"
	EndingCash         Field = "EndingCash"
	Depreciation       Field = "Depreciation"
	Amortization       Field = "Amortization"
	CapitalExpenditure Field = "CapitalExpenditure"
	DividendsPaid      Field = "DividendsPaid"
)

// entry is one row of the static catalog. The display label is the
// Traditional Chinese name used in reports and is also accepted as an alias.
type entry struct {
	field   Field
	label   string
	aliases []string
}

// catalog is ordered by family; resolution walks it in this order.
var catalog = map[Family][]entry{
	BalanceSheet: {
		{CurrentAssets, "流動資產", []string{"流動資產合計", "流動資產總額", "短期資產", "Total current assets"}},
		{FixedAssets, "非流動資產", []string{"固定資產", "長期投資", "其他資產", "固定資產淨額", "非流動資產合計", "Property, plant and equipment"}},
		{Inventory, "存貨", []string{"商品", "在製品", "原物料", "存貨淨額", "Inventories"}},
		{Cash, "現金與約當現金", []string{"現金及約當現金", "現金", "約當現金", "現金及銀行存款", "Cash and cash equivalents"}},
		{Receivables, "應收帳款", []string{"應收款項", "應收票據及帳款", "應收帳款及票據", "應收帳款淨額", "Accounts receivable"}},
		{TotalAssets, "總資產", []string{"資產總額", "資產總計", "全部資產", "Total assets"}},
		{CurrentLiabilities, "流動負債", []string{"流動負債合計", "流動負債總額", "短期負債", "Total current liabilities"}},
		{LongTermLiabilities, "非流動負債", []string{"長期負債", "其他負債", "長期負債合計", "非流動負債合計", "Long-term debt"}},
		{AccountsPayable, "應付帳款", []string{"應付款項", "應付票據及帳款", "應付帳款及票據", "Accounts payable"}},
		{ShortTermBorrowings, "短期借款", []string{"短期借款合計", "Short-term borrowings"}},
		{TotalLiabilities, "總負債", []string{"負債總額", "負債總計", "負債合計", "Total liabilities"}},
		{Equity, "權益總額", []string{"淨值總額", "股東權益合計", "權益總計", "淨值", "權益合計", "Total equity", "Total stockholders' equity"}},
		{RetainedEarnings, "保留盈餘", []string{"未分配盈餘", "累積盈虧", "Retained earnings"}},
		{SharesOutstanding, "普通股股數", []string{"普通股股本", "股本", "實收資本", "已發行股數", "Shares outstanding"}},
	},
	IncomeStatement: {
		{Revenue, "營業收入", []string{"營收", "收入總額", "營業收入淨額", "銷貨收入", "營業收入合計", "Total revenue", "Net sales"}},
		{COGS, "營業成本", []string{"成本", "銷貨成本", "營業成本合計", "Cost of revenue", "Cost of goods sold"}},
		{GrossProfit, "毛利", []string{"營業毛利", "毛利淨額", "銷貨毛利", "營業毛利（毛損）", "Gross profit"}},
		{OperatingExpenses, "營業費用", []string{"營業費用合計", "Operating expenses"}},
		{OperatingIncome, "營業利益", []string{"營業淨利", "營業損益", "營業利益（損失）", "Operating income"}},
		{InterestExpense, "利息費用", []string{"財務成本", "融資成本", "Interest expense"}},
		{PreTaxIncome, "稅前淨利", []string{"稅前損益", "稅前利益", "稅前淨利（淨損）", "Income before income taxes"}},
		{IncomeTax, "所得稅費用", []string{"所得稅", "所得稅費用（利益）", "Income tax expense"}},
		{NetIncome, "本期淨利", []string{"稅後淨利", "淨利", "淨損益", "本期損益", "本期淨利（淨損）", "Net income"}},
		{ReportedEPS, "每股盈餘", []string{"每股利益", "EPS", "基本每股盈餘", "Basic earnings per share"}},
		{PriorRevenue, "前期營業收入", []string{"去年同期營收", "上期營業收入", "Prior revenue"}},
		{PriorNetIncome, "前期淨利", []string{"去年同期淨利", "上期淨利", "Prior net income"}},
	},
	CashFlow: {
		{OperatingCashFlow, "營業活動現金流量", []string{"營業活動之淨現金流入", "營業活動之現金流量", "營運產生之現金流入", "營業活動之淨現金流入（流出）", "Net cash provided by operating activities"}},
		{InvestingCashFlow, "投資活動現金流量", []string{"投資活動之淨現金流入", "投資活動之現金流量", "投資活動之淨現金流量", "投資活動之淨現金流入（流出）", "Net cash used in investing activities"}},
		{FinancingCashFlow, "籌資活動現金流量", []string{"籌資活動之淨現金流入", "籌資活動之現金流量", "籌資活動之淨現金流量", "籌資活動之淨現金流入（流出）", "Net cash used in financing activities"}},
		{NetCashChange, "本期現金增減", []string{"本期現金增加數", "本期現金淨流量", "現金及約當現金增加", "本期現金及約當現金增加（減少）"}},
		{EndingCash, "期末現金餘額", []string{"期末現金及約當現金餘額", "期末現金及約當現金", "Cash at end of period"}},
		{Depreciation, "折舊", []string{"折舊費用", "本期折舊", "Depreciation"}},
		{Amortization, "攤銷", []string{"攤銷費用", "本期攤銷", "Amortization"}},
		{CapitalExpenditure, "資本支出", []string{"取得不動產、廠房及設備", "購置固定資產", "Capital expenditures"}},
		{DividendsPaid, "發放現金股利", []string{"支付股利", "發放股利", "Dividends paid"}},
	},
}
