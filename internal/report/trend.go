package report

import (
	"time"

	"github.com/vanshika/downline/internal/aggregate"
)

// DefaultTrendCap bounds trend series length.
const DefaultTrendCap = 62

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Start  time.Time `json:"start" yaml:"start"`
	Count  int       `json:"count" yaml:"count"`
	Annual float64   `json:"annual" yaml:"annual"`
}

func trendCap(max int) int {
	if max <= 0 {
		return DefaultTrendCap
	}
	return max
}

// Trend returns the per-bucket series, keeping the most recent max buckets.
func Trend(res aggregate.Result, max int) []TrendPoint {
	buckets := res.Buckets
	if limit := trendCap(max); len(buckets) > limit {
		buckets = buckets[len(buckets)-limit:]
	}
	points := make([]TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, TrendPoint{Start: b.Start, Count: b.Count, Annual: b.Annual})
	}
	return points
}
