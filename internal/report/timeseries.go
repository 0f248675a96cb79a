package report

import (
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

// DateLayout is the bucket key format; lexical order equals chronological order.
const DateLayout = "2006-01-02"

const movingAverageWindow = 7

// DailyBucket aggregates one calendar day.
type DailyBucket struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// MovingAverage is the trailing mean of daily totals ending at Date.
type MovingAverage struct {
	Date          string  `json:"date"`
	MovingAverage float64 `json:"movingAverage"`
}

// TimeSeriesData is the daily bucketing of a batch.
type TimeSeriesData struct {
	DailyData      map[string]DailyBucket `json:"dailyData"`
	MovingAverages []MovingAverage        `json:"movingAverages"`
}

// TimeSeries buckets batch by calendar date in loc (nil means time.Local).
// Each moving average spans up to seven trailing dates that are present in
// the data; missing calendar days are not padded.
func TimeSeries(batch []txn.Transaction, loc *time.Location) TimeSeriesData {
	if loc == nil {
		loc = time.Local
	}
	daily := make(map[string]DailyBucket)
	for _, t := range batch {
		key := t.Timestamp.In(loc).Format(DateLayout)
		b := daily[key]
		b.Total += t.Amount
		b.Count++
		daily[key] = b
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	averages := make([]MovingAverage, len(dates))
	for i, d := range dates {
		window := dates[max(0, i-movingAverageWindow+1) : i+1]
		var sum float64
		for _, w := range window {
			sum += daily[w].Total
		}
		averages[i] = MovingAverage{Date: d, MovingAverage: sum / float64(len(window))}
	}

	return TimeSeriesData{DailyData: daily, MovingAverages: averages}
}
