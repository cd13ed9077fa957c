package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"finreport_analyzer/pkg/core/calc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234", 1234, true},
		{"NT$ 1,234.5", 1234.5, true},
		{"(1,234)", -1234, true},
		{"-42", -42, true},
		{"１２３", 123, true},
		{"35.5%", 35.5, true},
		{"1,000 元", 1000, true},
		{"-", 0, false},
		{"", 0, false},
		{"2023年", 0, false},
		{"營業收入", 0, false},
	}
	for _, tc := range cases {
		got, ok := CleanNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}

	v, ok := ParsePercent("35.5%")
	require.True(t, ok)
	assert.InDelta(t, 0.355, v, 1e-9)
	v, _ = ParsePercent("35.5")
	assert.Equal(t, 35.5, v)
}

func TestClassifyStatement_HeaderKeywords(t *testing.T) {
	cases := []struct {
		header []string
		want   StatementType
	}{
		{[]string{"資產", "2023"}, BalanceSheet},
		{[]string{"營業收入", "營業成本"}, IncomeStatement},
		{[]string{"營業活動", "金額"}, CashFlowStatement},
		// balance-sheet keywords are checked first
		{[]string{"營業收入", "權益"}, BalanceSheet},
		{[]string{"Consolidated Statements of Cash Flows"}, CashFlowStatement},
		{[]string{"項目", "金額"}, UnknownStatement},
	}
	for _, tc := range cases {
		got := ClassifyStatement(Table{Header: tc.header})
		assert.Equal(t, tc.want, got, strings.Join(tc.header, ","))
	}
}

func TestClassifyStatement_RowFallback(t *testing.T) {
	tbl := Table{
		Header: []string{"項目", "本期", "上期"},
		Rows: [][]string{
			{"營業收入淨額", "1,500", "1,200"},
			{"營業成本", "900", "800"},
			{"本期淨利", "120", "100"},
			{"現金及約當現金", "50", "40"},
		},
	}
	assert.Equal(t, IncomeStatement, ClassifyStatement(tbl))
}

func TestClassifyTables(t *testing.T) {
	bs := Table{Header: []string{"資產負債表"}, Rows: [][]string{{"總資產", "1"}}}
	cf := Table{Header: []string{"營業活動現金流量", "投資活動現金流量"}, Rows: [][]string{{"1", "2"}}}
	unknown := Table{Header: []string{"備註"}, Rows: [][]string{{"text"}}}

	got, err := ClassifyTables([]Table{bs, unknown, cf})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, cf, got[CashFlowStatement])

	_, err = ClassifyTables([]Table{unknown})
	var unrecognized *UnrecognizedStatementError
	require.True(t, errors.As(err, &unrecognized))
	assert.Equal(t, 1, unrecognized.Tables)
}

func TestTableEntries_LongFormat(t *testing.T) {
	tbl := Table{
		Header: []string{"會計項目", "2023年", "2022年"},
		Rows: [][]string{
			{"營業收入", "15,000", "12,000"},
			{"本期淨利", "1,200", "1,000"},
			{"毛利率", "40%", "38%"},
			{"", "", ""},
			{"附註說明", "見附註"},
		},
	}
	store := calc.NewMetricStore(TableEntries(tbl))

	assertValue(t, store, "Revenue", 15000)
	assertValue(t, store, "PriorRevenue", 12000)
	assertValue(t, store, "NetIncome", 1200)
	assertValue(t, store, "PriorNetIncome", 1000)
	assertValue(t, store, "GrossMargin", 0.4)
	assert.False(t, store.Has("附註說明"))

	r := calc.NewEngine(store).ExtractAll()
	assert.InDelta(t, 0.25, r[calc.RevenueGrowth], 1e-9)
}

func TestTableEntries_EPSRowIsReportedEPS(t *testing.T) {
	tbl := Table{
		Header: []string{"會計項目", "2023年"},
		Rows: [][]string{
			{"本期淨利", "1,200"},
			{"每股盈餘", "2.35"},
		},
	}
	store := calc.NewMetricStore(TableEntries(tbl))

	assertValue(t, store, "ReportedEPS", 2.35)
	assert.False(t, store.Has("EPS"))
	assert.Empty(t, store.Unrecognized())
}

func TestTableEntries_WideFormat(t *testing.T) {
	tbl := Table{
		Header: []string{"年度", "總資產", "權益總額", "營業收入"},
		Rows: [][]string{
			{"2022", "900", "500", "1,200"},
			{"2023", "1,000", "600", "1,500"},
		},
	}
	store := calc.NewMetricStore(TableEntries(tbl))

	assertValue(t, store, "TotalAssets", 1000)
	assertValue(t, store, "Equity", 600)
	assertValue(t, store, "Revenue", 1500)
	assertValue(t, store, "PriorRevenue", 1200)
}

func TestTableEntries_WideExplicitPriorWins(t *testing.T) {
	tbl := Table{
		Header: []string{"營業收入", "前期營業收入"},
		Rows: [][]string{
			{"1", "0"},
			{"150", "120"},
		},
	}
	store := calc.NewMetricStore(TableEntries(tbl))
	assertValue(t, store, "PriorRevenue", 120)
}

func TestEntries_StatementOrder(t *testing.T) {
	statements := map[StatementType]Table{
		CashFlowStatement: {Header: []string{"項目", "金額"}, Rows: [][]string{{"營業活動現金流量", "10"}}},
		BalanceSheet:      {Header: []string{"項目", "金額"}, Rows: [][]string{{"總資產", "100"}}},
	}
	entries := Entries(statements)
	require.Len(t, entries, 2)
	assert.Equal(t, "總資產", entries[0].Label)
	assert.Equal(t, "營業活動現金流量", entries[1].Label)
}

func TestGridsFromLines(t *testing.T) {
	lines := []line{
		{Y: 700, Spans: []span{{X: 50, W: 60, S: "合併資產負債表"}}},
		{Y: 680, Spans: []span{{X: 300, W: 30, S: "2023"}, {X: 50, W: 40, S: "項目"}}},
		{Y: 660, Spans: []span{{X: 50, W: 20, S: "流動"}, {X: 71, W: 20, S: "資產"}, {X: 300, W: 40, S: "8,000"}}},
		{Y: 640, Spans: []span{{X: 50, W: 40, S: "總資產"}, {X: 300, W: 50, S: "20,000"}}},
		{Y: 500, Spans: []span{{X: 50, W: 200, S: "註：單位新台幣千元"}}},
	}
	grids := gridsFromLines(lines)

	require.Len(t, grids, 1)
	assert.Equal(t, [][]string{
		{"項目", "2023"},
		{"流動資產", "8,000"},
		{"總資產", "20,000"},
	}, grids[0])
}

func TestCellsOf_ZeroWidthUsesFontSize(t *testing.T) {
	cells := cellsOf([]span{
		{X: 10, Size: 10, S: "存"},
		{X: 20, Size: 10, S: "貨"},
		{X: 100, Size: 10, S: "500"},
	})
	assert.Equal(t, []string{"存貨", "500"}, cells)
}

func TestReadHTMLTables(t *testing.T) {
	html := `<html><body>
<h3>合併損益表</h3>
<table>
<tr><th>項目</th><th>2023</th><th>2022</th></tr>
<tr><td>營業收入</td><td>1,500</td><td>1,200</td></tr>
<tr><td>本期淨利</td><td>150</td><td>100</td></tr>
</table>
<table><tr><td>only header</td></tr></table>
</body></html>`

	tables, err := ReadHTMLTables(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "合併損益表", tables[0].Title)
	assert.Equal(t, IncomeStatement, ClassifyStatement(tables[0]))
	assert.Len(t, tables[0].Rows, 2)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := "現金流量表"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"項目", "2023"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"營業活動現金流量", 2000}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"投資活動現金流量", -500}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tables, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, CashFlowStatement, ClassifyStatement(tables[0]))

	store := calc.NewMetricStore(TableEntries(tables[0]))
	assertValue(t, store, "OperatingCashFlow", 2000)
	assertValue(t, store, "InvestingCashFlow", -500)
}

func TestLoad_Formats(t *testing.T) {
	doc, err := Load("report.txt", []byte("毛利率: 35.5%"))
	require.NoError(t, err)
	assert.Equal(t, "report.txt", doc.Name)
	assert.Contains(t, doc.Text, "毛利率")

	_, err = Load("report.docx", []byte("x"))
	assert.Error(t, err)

	_, err = Load("empty.txt", []byte("   "))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Load("broken.pdf", []byte("not a pdf"))
	var docErr *DocumentError
	assert.True(t, errors.As(err, &docErr))
}

func assertValue(t *testing.T, s *calc.MetricStore, key string, want float64) {
	t.Helper()
	got, ok := s.Get(key)
	require.True(t, ok, "missing %s", key)
	assert.InDelta(t, want, got, 1e-9, key)
}
