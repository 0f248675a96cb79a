package report

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

const clusterWidth = 100.0

// Spending describes one user's transactions.
type Spending struct {
	AvgAmount            float64        `json:"avgAmount"`
	TotalAmount          float64        `json:"totalAmount"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
}

// SpendingPattern summarises txns, normally the history of a single user.
// Amounts are summed in decimal so the tier boundary is not shifted by
// accumulated float error.
func SpendingPattern(txns []txn.Transaction) Spending {
	s := Spending{CategoryDistribution: make(map[string]int)}
	if len(txns) == 0 {
		return s
	}
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(decimal.NewFromFloat(t.Amount))
		s.CategoryDistribution[t.CategoryKey()]++
	}
	s.TotalAmount = total.InexactFloat64()
	s.AvgAmount = total.Div(decimal.NewFromInt(int64(len(txns)))).InexactFloat64()
	return s
}

// ClusterKey returns the spend tier for an average amount.
func ClusterKey(avg float64) string {
	return "cluster_" + strconv.FormatFloat(math.Floor(avg/clusterWidth), 'f', 0, 64)
}

// Clusters groups users into spend tiers of width 100 and returns every
// tier's transactions, users in first-appearance order.
func Clusters(batch []txn.Transaction) map[string][]txn.Transaction {
	users := index.ByUser(batch)
	clusters := make(map[string][]txn.Transaction)
	for _, u := range users.Keys() {
		history := users.Get(u)
		key := ClusterKey(SpendingPattern(history).AvgAmount)
		clusters[key] = append(clusters[key], history...)
	}
	return clusters
}
