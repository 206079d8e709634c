// Package aggregate sums annualized premium over a team scope and a time
// window, per member and per calendar bucket.
//
// Aggregate never fails on business data. Owners outside the scope and deals
// outside the window are skipped, malformed premiums count as zero, and an
// empty scope or window yields a well-formed empty result.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/premium"
)

// Options controls bucketing. A nil Location buckets by UTC calendar days.
type Options struct {
	Granularity domain.Granularity
	Location    *time.Location
	// MaxBuckets keeps only the most recent buckets (and cells) of a long
	// window. Member rows and Total always cover the whole window. Zero
	// means no cap.
	MaxBuckets int
}

// MemberTotals is one scope member's production inside the window.
type MemberTotals struct {
	MemberID string  `json:"memberId" yaml:"memberId"`
	Count    int     `json:"count" yaml:"count"`
	Premium  float64 `json:"premium" yaml:"premium"`
	Annual   float64 `json:"annual" yaml:"annual"`
	// AverageGap is the mean time between consecutive deals, zero when the
	// member wrote fewer than two.
	AverageGap time.Duration `json:"averageGapNs" yaml:"averageGapNs"`
	FirstAt    time.Time     `json:"firstAt" yaml:"firstAt"`
	LastAt     time.Time     `json:"lastAt" yaml:"lastAt"`
}

// Bucket is one calendar slot of the window.
type Bucket struct {
	Start  time.Time `json:"start" yaml:"start"`
	End    time.Time `json:"end" yaml:"end"`
	Count  int       `json:"count" yaml:"count"`
	Annual float64   `json:"annual" yaml:"annual"`
}

// Totals sums a whole result.
type Totals struct {
	Count   int     `json:"count" yaml:"count"`
	Premium float64 `json:"premium" yaml:"premium"`
	Annual  float64 `json:"annual" yaml:"annual"`
}

// Result is the output of Aggregate.
type Result struct {
	Window      domain.TimeWindow
	Granularity domain.Granularity
	Location    *time.Location
	// Members has one row per distinct scope id in scope order, including
	// members without deals.
	Members []MemberTotals
	// Buckets covers the window, or its trailing MaxBuckets buckets.
	Buckets []Bucket
	// Cells holds annual premium per bucket for members with at least one
	// deal, aligned with Buckets.
	Cells map[string][]float64
	Total Totals

	position map[string]int
}

// Member returns the totals row for id.
func (r Result) Member(id string) (MemberTotals, bool) {
	i, ok := r.position[id]
	if !ok {
		return MemberTotals{}, false
	}
	return r.Members[i], true
}

// InScope reports whether id was part of the aggregated scope.
func (r Result) InScope(id string) bool {
	_, ok := r.position[id]
	return ok
}

// Row returns the per-bucket series for id, zeros for members without deals.
func (r Result) Row(id string) []float64 {
	if row, ok := r.Cells[id]; ok {
		return row
	}
	return make([]float64, len(r.Buckets))
}

type memberAcc struct {
	count   int
	premium decimal.Decimal
	annual  decimal.Decimal
	first   time.Time
	last    time.Time
	cells   []decimal.Decimal
}

// Aggregate filters deals to owners in scope and instants in window, then
// sums them per member and per bucket.
func Aggregate(deals []domain.Deal, scope []string, window domain.TimeWindow, opts Options) Result {
	if opts.Granularity == "" {
		opts.Granularity = domain.GranularityDay
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	res := Result{
		Window:      window,
		Granularity: opts.Granularity,
		Location:    opts.Location,
		Members:     make([]MemberTotals, 0, len(scope)),
		Buckets:     Buckets(TrailingWindow(window, opts.Granularity, opts.Location, opts.MaxBuckets), opts.Granularity, opts.Location),
		Cells:       make(map[string][]float64),
		position:    make(map[string]int, len(scope)),
	}

	accs := make(map[string]*memberAcc, len(scope))
	for _, id := range scope {
		if _, dup := res.position[id]; dup {
			continue
		}
		res.position[id] = len(res.Members)
		res.Members = append(res.Members, MemberTotals{MemberID: id})
		accs[id] = &memberAcc{}
	}

	bucketAt := make(map[int64]int, len(res.Buckets))
	for i, b := range res.Buckets {
		bucketAt[b.Start.Unix()] = i
	}
	bucketAnnual := make([]decimal.Decimal, len(res.Buckets))

	var totalPremium, totalAnnual decimal.Decimal
	for _, deal := range deals {
		acc, ok := accs[deal.OwnerID]
		if !ok || !window.Contains(deal.OccurredAt) {
			continue
		}

		monthly := premium.Normalize(deal.Premium)
		annual := monthly.Mul(decimal.NewFromInt(premium.AnnualMultiplier))

		acc.count++
		acc.premium = acc.premium.Add(monthly)
		acc.annual = acc.annual.Add(annual)
		if acc.count == 1 || deal.OccurredAt.Before(acc.first) {
			acc.first = deal.OccurredAt
		}
		if acc.count == 1 || deal.OccurredAt.After(acc.last) {
			acc.last = deal.OccurredAt
		}

		if i, ok := bucketAt[BucketStart(deal.OccurredAt, opts.Granularity, opts.Location).Unix()]; ok {
			res.Buckets[i].Count++
			bucketAnnual[i] = bucketAnnual[i].Add(annual)
			if acc.cells == nil {
				acc.cells = make([]decimal.Decimal, len(res.Buckets))
			}
			acc.cells[i] = acc.cells[i].Add(annual)
		}

		res.Total.Count++
		totalPremium = totalPremium.Add(monthly)
		totalAnnual = totalAnnual.Add(annual)
	}

	for i := range res.Buckets {
		res.Buckets[i].Annual = bucketAnnual[i].InexactFloat64()
	}

	for i := range res.Members {
		row := &res.Members[i]
		acc := accs[row.MemberID]
		row.Count = acc.count
		row.Premium = acc.premium.InexactFloat64()
		row.Annual = acc.annual.InexactFloat64()
		if acc.count > 0 {
			row.FirstAt = acc.first
			row.LastAt = acc.last
		}
		row.AverageGap = averageGap(acc)
		if acc.cells != nil {
			cells := make([]float64, len(acc.cells))
			for j, c := range acc.cells {
				cells[j] = c.InexactFloat64()
			}
			res.Cells[row.MemberID] = cells
		}
	}

	res.Total.Premium = totalPremium.InexactFloat64()
	res.Total.Annual = totalAnnual.InexactFloat64()
	return res
}

// averageGap is the mean of consecutive deltas over sorted timestamps, which
// telescopes to (last - first) / (n - 1).
func averageGap(acc *memberAcc) time.Duration {
	if acc.count < 2 {
		return 0
	}
	return acc.last.Sub(acc.first) / time.Duration(acc.count-1)
}
