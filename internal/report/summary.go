package report

import (
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

// Summary holds batch totals for dashboards.
type Summary struct {
	TotalTransactions    int             `json:"totalTransactions"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	TotalCredits         decimal.Decimal `json:"totalCredits"`
	TotalDebits          decimal.Decimal `json:"totalDebits"`
	AvgTransactionAmount decimal.Decimal `json:"avgTransactionAmount"`
	CategoryCounts       map[string]int  `json:"categoryCounts"`
}

// Summarize totals batch. The average of an empty batch is zero.
func Summarize(batch []txn.Transaction) Summary {
	s := Summary{
		TotalTransactions: len(batch),
		CategoryCounts:    make(map[string]int),
	}
	for _, t := range batch {
		amt := decimal.NewFromFloat(t.Amount)
		s.TotalAmount = s.TotalAmount.Add(amt)
		switch t.Type {
		case txn.Credit:
			s.TotalCredits = s.TotalCredits.Add(amt)
		case txn.Debit:
			s.TotalDebits = s.TotalDebits.Add(amt)
		}
		s.CategoryCounts[t.CategoryKey()]++
	}
	if len(batch) > 0 {
		s.AvgTransactionAmount = s.TotalAmount.Div(decimal.NewFromInt(int64(len(batch))))
	}
	return s
}
