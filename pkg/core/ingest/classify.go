package ingest

import (
	"strings"

	"finreport_analyzer/pkg/core/fields"
)

// StatementType identifies which financial statement a table holds.
type StatementType int

const (
	UnknownStatement StatementType = iota
	BalanceSheet
	IncomeStatement
	CashFlowStatement
)

// StatementTypes lists the recognizable statements in classification order.
var StatementTypes = []StatementType{BalanceSheet, IncomeStatement, CashFlowStatement}

func (s StatementType) String() string {
	switch s {
	case BalanceSheet:
		return "balance_sheet"
	case IncomeStatement:
		return "income_statement"
	case CashFlowStatement:
		return "cash_flow"
	}
	return "unknown"
}

// Label is the Chinese statement name.
func (s StatementType) Label() string {
	switch s {
	case BalanceSheet:
		return "資產負債表"
	case IncomeStatement:
		return "損益表"
	case CashFlowStatement:
		return "現金流量表"
	}
	return "未知報表"
}

// header keywords, tried in StatementTypes order
var statementKeywords = map[StatementType][]string{
	BalanceSheet:      {"資產", "負債", "權益", "balance sheet", "total assets"},
	IncomeStatement:   {"營業收入", "營業成本", "稅前淨利", "損益表", "income statement", "revenue"},
	CashFlowStatement: {"營業活動", "投資活動", "籌資活動", "現金流量表", "cash flow", "operating activities"},
}

var familyStatement = map[fields.Family]StatementType{
	fields.BalanceSheet:    BalanceSheet,
	fields.IncomeStatement: IncomeStatement,
	fields.CashFlow:        CashFlowStatement,
}

// ClassifyStatement decides the statement type from the title and header
// keywords. When those are inconclusive it falls back to counting which
// family the row labels resolve to.
func ClassifyStatement(t Table) StatementType {
	header := strings.ToLower(Fold(t.Title + " " + strings.Join(t.Header, " ")))
	for _, st := range StatementTypes {
		for _, kw := range statementKeywords[st] {
			if strings.Contains(header, kw) {
				return st
			}
		}
	}
	return classifyByRows(t)
}

func classifyByRows(t Table) StatementType {
	counts := map[fields.Family]int{}
	for _, row := range t.Rows {
		label, _ := rowLabel(row)
		if fam, ok := fields.FamilyOf(label); ok {
			counts[fam]++
		}
	}
	best, bestN := UnknownStatement, 0
	for _, fam := range fields.Families {
		if counts[fam] > bestN {
			best, bestN = familyStatement[fam], counts[fam]
		}
	}
	return best
}

// ClassifyTables assigns tables to statements. A later table of the same
// type replaces an earlier one.
func ClassifyTables(tables []Table) (map[StatementType]Table, error) {
	out := map[StatementType]Table{}
	for _, t := range tables {
		if st := ClassifyStatement(t); st != UnknownStatement {
			out[st] = t
		}
	}
	if len(out) == 0 {
		return nil, &UnrecognizedStatementError{Tables: len(tables)}
	}
	return out, nil
}
