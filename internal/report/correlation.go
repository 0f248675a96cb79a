package report

import (
	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/stats"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

// Correlation builds the category-by-category correlation matrix. Amounts are
// paired by position within each category's sequence, not by matching
// transactions, so the value is a coarse co-movement proxy. Self pairs are
// included.
func Correlation(batch []txn.Transaction) map[string]map[string]float64 {
	byCategory := index.ByCategory(batch)
	amounts := make(map[string][]float64, byCategory.Len())
	for _, c := range byCategory.Keys() {
		group := byCategory.Get(c)
		series := make([]float64, len(group))
		for i, t := range group {
			series[i] = t.Amount
		}
		amounts[c] = series
	}

	matrix := make(map[string]map[string]float64, len(amounts))
	for _, a := range byCategory.Keys() {
		row := make(map[string]float64, len(amounts))
		for _, b := range byCategory.Keys() {
			row[b] = stats.Pearson(amounts[a], amounts[b])
		}
		matrix[a] = row
	}
	return matrix
}
