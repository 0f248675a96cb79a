package report

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

func mockTransactions() []txn.Transaction {
	return []txn.Transaction{
		{
			ID: "1", Timestamp: time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC), Amount: 100,
			Currency: "USD", Type: txn.Debit, Category: "Groceries", MerchantName: "Supermarket",
			Status: txn.Completed, Description: "Weekly groceries", UserID: "user1", AccountID: "account1",
		},
		{
			ID: "2", Timestamp: time.Date(2023, 1, 15, 10, 5, 0, 0, time.UTC), Amount: 105,
			Currency: "USD", Type: txn.Debit, Category: "Groceries", MerchantName: "Supermarket",
			Status: txn.Completed, Description: "More groceries", UserID: "user1", AccountID: "account1",
		},
		{
			ID: "3", Timestamp: time.Date(2023, 1, 16, 12, 0, 0, 0, time.UTC), Amount: 50,
			Currency: "USD", Type: txn.Credit, Category: "Salary", MerchantName: "Employer",
			Status: txn.Completed, Description: "Monthly salary", UserID: "user1", AccountID: "account1",
		},
	}
}

func TestTimeSeries_DailyBuckets(t *testing.T) {
	ts := TimeSeries(mockTransactions(), time.UTC)

	assert.Equal(t, DailyBucket{Total: 205, Count: 2}, ts.DailyData["2023-01-15"])
	assert.Equal(t, DailyBucket{Total: 50, Count: 1}, ts.DailyData["2023-01-16"])
	require.Len(t, ts.MovingAverages, 2)
	assert.Equal(t, MovingAverage{Date: "2023-01-15", MovingAverage: 205}, ts.MovingAverages[0])
	assert.Equal(t, MovingAverage{Date: "2023-01-16", MovingAverage: 127.5}, ts.MovingAverages[1])
}

func TestTimeSeries_ChronologicalAcrossYearBoundary(t *testing.T) {
	batch := []txn.Transaction{
		{ID: "a", Timestamp: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), Amount: 30},
		{ID: "b", Timestamp: time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), Amount: 10},
		{ID: "c", Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Amount: 20},
	}
	ts := TimeSeries(batch, time.UTC)

	var dates []string
	for _, m := range ts.MovingAverages {
		dates = append(dates, m.Date)
	}
	assert.Equal(t, []string{"2023-12-31", "2024-01-01", "2024-01-02"}, dates)
	assert.InDelta(t, 20.0, ts.MovingAverages[2].MovingAverage, 1e-12)
}

func TestTimeSeries_WindowIsSevenPresentDates(t *testing.T) {
	var batch []txn.Transaction
	// Every other day for 20 days; totals 1..10.
	for i := 0; i < 10; i++ {
		batch = append(batch, txn.Transaction{
			ID:        fmt.Sprintf("t%d", i),
			Timestamp: time.Date(2023, 3, 1+2*i, 9, 0, 0, 0, time.UTC),
			Amount:    float64(i + 1),
		})
	}
	ts := TimeSeries(batch, time.UTC)
	require.Len(t, ts.MovingAverages, 10)
	assert.InDelta(t, 1.0, ts.MovingAverages[0].MovingAverage, 1e-12)
	assert.InDelta(t, 2.5, ts.MovingAverages[3].MovingAverage, 1e-12) // (1+2+3+4)/4
	assert.InDelta(t, 7.0, ts.MovingAverages[9].MovingAverage, 1e-12) // (4..10)/7
}

func TestTimeSeries_BucketsInConfiguredZone(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	batch := []txn.Transaction{{ID: "1", Timestamp: time.Date(2023, 1, 16, 3, 0, 0, 0, time.UTC), Amount: 10}}

	assert.Contains(t, TimeSeries(batch, time.UTC).DailyData, "2023-01-16")
	assert.Contains(t, TimeSeries(batch, ny).DailyData, "2023-01-15")
}

func TestTimeSeries_Empty(t *testing.T) {
	ts := TimeSeries(nil, time.UTC)
	assert.Empty(t, ts.DailyData)
	assert.Empty(t, ts.MovingAverages)
}

func TestCorrelation(t *testing.T) {
	m := Correlation(mockTransactions())

	require.Contains(t, m, "Groceries")
	require.Contains(t, m["Groceries"], "Salary")
	assert.InDelta(t, 1.0, m["Groceries"]["Groceries"], 1e-12)
	assert.Equal(t, 0.0, m["Groceries"]["Salary"], "salary has a single amount")
	assert.Equal(t, 0.0, m["Salary"]["Salary"])
}

func TestCorrelation_PositionalPairing(t *testing.T) {
	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := []txn.Transaction{
		{ID: "1", Timestamp: at, Category: "A", Amount: 10},
		{ID: "2", Timestamp: at, Category: "B", Amount: 300},
		{ID: "3", Timestamp: at, Category: "A", Amount: 20},
		{ID: "4", Timestamp: at, Category: "B", Amount: 200},
		{ID: "5", Timestamp: at, Category: "A", Amount: 30},
	}
	m := Correlation(batch)
	assert.InDelta(t, -1.0, m["A"]["B"], 1e-12)
	assert.InDelta(t, -1.0, m["B"]["A"], 1e-12)
	assert.InDelta(t, 1.0, m["A"]["A"], 1e-12)
}

func TestCorrelation_EmptyCategoryUsesSentinel(t *testing.T) {
	m := Correlation([]txn.Transaction{{ID: "1", Amount: 5}})
	assert.Contains(t, m, txn.Unknown)
}

func TestSpendingPattern(t *testing.T) {
	s := SpendingPattern(mockTransactions())
	assert.Equal(t, 255.0, s.TotalAmount)
	assert.Equal(t, 85.0, s.AvgAmount)
	assert.Equal(t, map[string]int{"Groceries": 2, "Salary": 1}, s.CategoryDistribution)

	empty := SpendingPattern(nil)
	assert.Equal(t, 0.0, empty.AvgAmount)
}

func TestClusters(t *testing.T) {
	batch := mockTransactions() // user1 averages 85
	at := time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)
	batch = append(batch,
		txn.Transaction{ID: "4", Timestamp: at, Amount: 100, UserID: "user2"},
		txn.Transaction{ID: "5", Timestamp: at, Amount: 200, UserID: "user2"},
	)
	clusters := Clusters(batch)

	require.Len(t, clusters, 2)
	require.Len(t, clusters["cluster_0"], 3)
	require.Len(t, clusters["cluster_1"], 2)
	assert.Equal(t, "1", clusters["cluster_0"][0].ID)
	assert.Equal(t, "4", clusters["cluster_1"][0].ID)
}

func TestClusters_MergesUsersInSameTier(t *testing.T) {
	at := time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)
	batch := []txn.Transaction{
		{ID: "a1", Timestamp: at, Amount: 120, UserID: "a"},
		{ID: "b1", Timestamp: at, Amount: 180, UserID: "b"},
		{ID: "a2", Timestamp: at, Amount: 140, UserID: "a"},
	}
	clusters := Clusters(batch)
	require.Len(t, clusters["cluster_1"], 3)

	var ids []string
	for _, c := range clusters["cluster_1"] {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids)
}

func TestClusterKey(t *testing.T) {
	assert.Equal(t, "cluster_0", ClusterKey(85))
	assert.Equal(t, "cluster_1", ClusterKey(150))
	assert.Equal(t, "cluster_1", ClusterKey(100))
	assert.Equal(t, "cluster_42", ClusterKey(4299.99))
	assert.Equal(t, "cluster_100000000000000000000", ClusterKey(1e22))
	assert.NotContains(t, ClusterKey(math.MaxFloat64), "-")
}

func TestSummarize(t *testing.T) {
	s := Summarize(mockTransactions())
	assert.Equal(t, 3, s.TotalTransactions)
	assert.True(t, decimal.NewFromInt(255).Equal(s.TotalAmount), s.TotalAmount.String())
	assert.True(t, decimal.NewFromInt(50).Equal(s.TotalCredits))
	assert.True(t, decimal.NewFromInt(205).Equal(s.TotalDebits))
	assert.True(t, decimal.NewFromInt(85).Equal(s.AvgTransactionAmount))
	assert.Equal(t, map[string]int{"Groceries": 2, "Salary": 1}, s.CategoryCounts)

	empty := Summarize(nil)
	assert.True(t, empty.AvgTransactionAmount.IsZero())
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(time.UTC)
	b.now = fixedClock()

	a := b.Build(mockTransactions())
	require.Len(t, a.FraudScores, 3)
	assert.InDelta(t, 0.3, a.FraudScores[0].FraudScore, 1e-12)
	assert.InDelta(t, 0.3, a.FraudScores[1].FraudScore, 1e-12)
	assert.Equal(t, 0.0, a.FraudScores[2].FraudScore)
	assert.Equal(t, 9, a.DataPoints)
	assert.Equal(t, 0.0, a.ProcessingTime)
	assert.Len(t, a.TimeSeries.DailyData, 2)
	assert.Len(t, a.MarketCorrelation, 2)
	assert.Contains(t, a.BehaviorClusters, "cluster_0")
}

func TestBuilder_Idempotent(t *testing.T) {
	b := NewBuilder(time.UTC)
	b.now = fixedClock()

	batch := mockTransactions()
	for i := 0; i < 40; i++ {
		batch = append(batch, txn.Transaction{
			ID:           fmt.Sprintf("x%d", i),
			Timestamp:    time.Date(2023, 2, 1+i%9, i%24, 0, 0, 0, time.UTC),
			Amount:       float64(i*73%900) + 0.37,
			Category:     []string{"Travel", "Shopping", "Bills"}[i%3],
			MerchantName: []string{"Uber", "Lyft", "Amazon"}[i%3],
			UserID:       fmt.Sprintf("user_%d", i%5),
		})
	}

	first := b.Build(batch)
	second := b.Build(batch)
	assert.Equal(t, first, second)
}

func TestBuilder_EmptyBatch(t *testing.T) {
	a := NewBuilder(time.UTC).Build(nil)
	assert.Empty(t, a.FraudScores)
	assert.Empty(t, a.MarketCorrelation)
	assert.Empty(t, a.BehaviorClusters)
	assert.Equal(t, 0, a.DataPoints)
	assert.GreaterOrEqual(t, a.ProcessingTime, 0.0)
}
