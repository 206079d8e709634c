package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/hierarchy"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, 1+d, 0, 0, 0, 0, time.UTC)
}

func dayWindow(from, to int) domain.TimeWindow {
	return domain.NewTimeWindow(day(from), day(to))
}

func TestAggregate_ZeroDefault(t *testing.T) {
	res := Aggregate(nil, []string{"m1", "m2"}, dayWindow(0, 1), Options{})

	require.Len(t, res.Members, 2)
	for _, id := range []string{"m1", "m2"} {
		row, ok := res.Member(id)
		require.True(t, ok, id)
		assert.Equal(t, 0, row.Count)
		assert.Equal(t, 0.0, row.Annual)
		assert.Zero(t, row.AverageGap)
	}
}

func TestAggregate_WindowIsHalfOpen(t *testing.T) {
	deals := []domain.Deal{
		{ID: "start", OwnerID: "m1", OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Premium: 10},
		{ID: "end", OwnerID: "m1", OccurredAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Premium: 20},
		{ID: "last-ns", OwnerID: "m1", OccurredAt: time.Date(2024, 1, 1, 23, 59, 59, 999999999, time.UTC), Premium: 5},
	}
	window := domain.NewTimeWindow(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	)

	res := Aggregate(deals, []string{"m1"}, window, Options{})

	row, _ := res.Member("m1")
	assert.Equal(t, 2, row.Count)
	assert.Equal(t, 180.0, row.Annual)
	require.Len(t, res.Buckets, 1)
}

func TestAggregate_Annualization(t *testing.T) {
	deals := []domain.Deal{{ID: "d1", OwnerID: "m1", OccurredAt: day(0), Premium: 100}}

	res := Aggregate(deals, []string{"m1"}, dayWindow(0, 1), Options{})

	row, _ := res.Member("m1")
	assert.Equal(t, 1200.0, row.Annual)
	assert.Equal(t, 100.0, row.Premium)
	assert.Equal(t, 1200.0, res.Total.Annual)
}

func TestAggregate_MalformedPremiumStillCounts(t *testing.T) {
	deals := []domain.Deal{
		{ID: "bad", OwnerID: "m1", OccurredAt: day(0), Premium: "abc"},
		{ID: "good", OwnerID: "m1", OccurredAt: day(0).Add(time.Hour), Premium: "$25.50"},
	}

	res := Aggregate(deals, []string{"m1"}, dayWindow(0, 1), Options{})

	row, _ := res.Member("m1")
	assert.Equal(t, 2, row.Count)
	assert.Equal(t, 306.0, row.Annual)
	assert.Equal(t, 2, res.Total.Count)
}

func TestAggregate_BucketCompleteness(t *testing.T) {
	res := Aggregate(nil, []string{"m1"}, dayWindow(0, 7), Options{Granularity: domain.GranularityDay})

	require.Len(t, res.Buckets, 7)
	for i, b := range res.Buckets {
		assert.Equal(t, day(i), b.Start)
		assert.Equal(t, day(i+1), b.End)
		assert.Equal(t, 0.0, b.Annual)
		assert.Equal(t, 0, b.Count)
	}
}

func TestAggregate_EmptyInputs(t *testing.T) {
	deals := []domain.Deal{{ID: "d1", OwnerID: "m1", OccurredAt: day(0), Premium: 10}}

	t.Run("empty scope", func(t *testing.T) {
		res := Aggregate(deals, nil, dayWindow(0, 1), Options{})
		assert.Empty(t, res.Members)
		assert.Equal(t, 0, res.Total.Count)
		assert.Len(t, res.Buckets, 1)
	})

	t.Run("zero width window", func(t *testing.T) {
		res := Aggregate(deals, []string{"m1"}, dayWindow(0, 0), Options{})
		assert.Empty(t, res.Buckets)
		row, ok := res.Member("m1")
		require.True(t, ok)
		assert.Equal(t, 0, row.Count)
	})

	t.Run("inverted window", func(t *testing.T) {
		res := Aggregate(deals, []string{"m1"}, dayWindow(3, 1), Options{})
		assert.Empty(t, res.Buckets)
		assert.Equal(t, 0, res.Total.Count)
	})
}

func TestAggregate_FiltersByScope(t *testing.T) {
	deals := []domain.Deal{
		{ID: "in", OwnerID: "m1", OccurredAt: day(0), Premium: 10},
		{ID: "out", OwnerID: "stranger", OccurredAt: day(0), Premium: 1000},
	}

	res := Aggregate(deals, []string{"m1", "m1", "ghost"}, dayWindow(0, 1), Options{})

	require.Len(t, res.Members, 2, "duplicate scope ids collapse")
	assert.Equal(t, "m1", res.Members[0].MemberID)
	assert.Equal(t, "ghost", res.Members[1].MemberID)
	assert.Equal(t, 120.0, res.Total.Annual)
	assert.False(t, res.InScope("stranger"))
}

func TestAggregate_AverageGap(t *testing.T) {
	base := day(0)
	deals := []domain.Deal{
		{OwnerID: "m1", OccurredAt: base.Add(10 * time.Hour)},
		{OwnerID: "m1", OccurredAt: base},
		{OwnerID: "m1", OccurredAt: base.Add(4 * time.Hour)},
		{OwnerID: "m2", OccurredAt: base.Add(time.Hour)},
	}

	res := Aggregate(deals, []string{"m1", "m2"}, dayWindow(0, 1), Options{})

	m1, _ := res.Member("m1")
	assert.Equal(t, 5*time.Hour, m1.AverageGap)
	assert.Equal(t, base, m1.FirstAt)
	assert.Equal(t, base.Add(10*time.Hour), m1.LastAt)

	m2, _ := res.Member("m2")
	assert.Zero(t, m2.AverageGap)
}

func TestAggregate_Cells(t *testing.T) {
	deals := []domain.Deal{
		{OwnerID: "m1", OccurredAt: day(1), Premium: 10},
		{OwnerID: "m1", OccurredAt: day(1).Add(time.Hour), Premium: 5},
		{OwnerID: "m1", OccurredAt: day(2), Premium: 1},
	}

	res := Aggregate(deals, []string{"m1", "m2"}, dayWindow(0, 3), Options{})

	assert.Equal(t, []float64{0, 180, 12}, res.Row("m1"))
	assert.Equal(t, []float64{0, 0, 0}, res.Row("m2"))
	assert.NotContains(t, res.Cells, "m2")
}

func TestAggregate_WeekAndMonthBuckets(t *testing.T) {
	// 2024-01-01 is a Monday.
	deals := []domain.Deal{
		{OwnerID: "m1", OccurredAt: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), Premium: 1},
		{OwnerID: "m1", OccurredAt: time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC), Premium: 2},
		{OwnerID: "m1", OccurredAt: time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC), Premium: 3},
	}
	window := domain.NewTimeWindow(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	weekly := Aggregate(deals, []string{"m1"}, window, Options{Granularity: domain.GranularityWeek})
	require.Len(t, weekly.Buckets, 6)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), weekly.Buckets[0].Start)
	assert.Equal(t, 12.0, weekly.Buckets[0].Annual)
	assert.Equal(t, 24.0, weekly.Buckets[1].Annual)
	assert.Equal(t, 36.0, weekly.Buckets[4].Annual)

	monthly := Aggregate(deals, []string{"m1"}, window, Options{Granularity: domain.GranularityMonth})
	require.Len(t, monthly.Buckets, 2)
	assert.Equal(t, 36.0, monthly.Buckets[0].Annual)
	assert.Equal(t, 36.0, monthly.Buckets[1].Annual)
	assert.Equal(t, 2, monthly.Buckets[0].Count)
}

func TestAggregate_LocalDayBoundary(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 03:00 UTC on Jan 2 is still Jan 1 in UTC-5.
	deals := []domain.Deal{{OwnerID: "m1", OccurredAt: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC), Premium: 10}}
	window := domain.NewTimeWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, loc), time.Date(2024, 1, 3, 0, 0, 0, 0, loc))

	utc := Aggregate(deals, []string{"m1"}, window, Options{})
	local := Aggregate(deals, []string{"m1"}, window, Options{Location: loc})

	require.Len(t, local.Buckets, 2)
	assert.Equal(t, 120.0, local.Buckets[0].Annual)
	assert.Equal(t, 0.0, local.Buckets[1].Annual)

	require.Len(t, utc.Buckets, 3)
	assert.Equal(t, 120.0, utc.Buckets[1].Annual)
}

func TestAggregate_EndToEnd(t *testing.T) {
	members := []domain.Member{{ID: "u1"}, {ID: "u2", ParentID: "u1"}}
	deals := []domain.Deal{{ID: "d1", OwnerID: "u2", OccurredAt: day(1), Premium: 50}}

	scope := hierarchy.Resolve("u1", hierarchy.BuildIndex(members), hierarchy.DefaultScopeLimit)
	require.Equal(t, []string{"u1", "u2"}, scope)

	res := Aggregate(deals, scope, dayWindow(0, 2), Options{Granularity: domain.GranularityDay})

	u1, _ := res.Member("u1")
	u2, _ := res.Member("u2")
	assert.Equal(t, MemberTotals{MemberID: "u1"}, u1)
	assert.Equal(t, 1, u2.Count)
	assert.Equal(t, 600.0, u2.Annual)

	require.Len(t, res.Buckets, 2)
	assert.Equal(t, day(0), res.Buckets[0].Start)
	assert.Equal(t, 0.0, res.Buckets[0].Annual)
	assert.Equal(t, day(1), res.Buckets[1].Start)
	assert.Equal(t, 600.0, res.Buckets[1].Annual)
}

func TestAggregate_Idempotent(t *testing.T) {
	deals := []domain.Deal{
		{OwnerID: "m1", OccurredAt: day(0), Premium: "12.5"},
		{OwnerID: "m2", OccurredAt: day(1), Premium: 7},
	}
	scope := []string{"m1", "m2"}

	first := Aggregate(deals, scope, dayWindow(0, 2), Options{})
	second := Aggregate(deals, scope, dayWindow(0, 2), Options{})

	assert.Equal(t, first.Members, second.Members)
	assert.Equal(t, first.Buckets, second.Buckets)
	assert.Equal(t, first.Total, second.Total)
}

func TestAggregate_MaxBucketsKeepsTotals(t *testing.T) {
	deals := []domain.Deal{
		{OwnerID: "m1", OccurredAt: day(0), Premium: 100},
		{OwnerID: "m1", OccurredAt: day(9), Premium: 50},
	}

	res := Aggregate(deals, []string{"m1"}, dayWindow(0, 10), Options{MaxBuckets: 3})

	require.Len(t, res.Buckets, 3)
	assert.Equal(t, day(7), res.Buckets[0].Start)
	assert.Equal(t, day(10), res.Buckets[2].End)
	assert.Equal(t, []float64{0, 0, 600}, res.Row("m1"))

	assert.Equal(t, 2, res.Total.Count)
	assert.Equal(t, 1800.0, res.Total.Annual)
	m1, _ := res.Member("m1")
	assert.Equal(t, 2, m1.Count)
	assert.Equal(t, 1800.0, m1.Annual)
}
