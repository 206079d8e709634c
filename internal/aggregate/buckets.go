package aggregate

import (
	"time"

	"github.com/vanshika/downline/internal/domain"
)

// DayStart returns the first instant of the calendar day y-m-d in loc.
// Out-of-range fields normalize as in time.Date. In zones where a DST shift
// skips midnight, the day starts at the transition, not at a normalized
// 23:00 on the previous day.
func DayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	gy, gm, gd := t.Date()
	if time.Date(gy, gm, gd, 0, 0, 0, 0, time.UTC).Before(want) {
		_, end := t.ZoneBounds()
		if !end.IsZero() {
			return end
		}
	}
	return t
}

// BucketStart truncates t to the start of its calendar bucket in loc. Weeks
// start on Monday. A nil loc means UTC.
func BucketStart(t time.Time, g domain.Granularity, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	switch g {
	case domain.GranularityWeek:
		// Weekday from the UTC civil date, which has no DST.
		offset := (int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Weekday()) + 6) % 7
		return DayStart(y, m, d-offset, loc)
	case domain.GranularityMonth:
		return DayStart(y, m, 1, loc)
	default:
		return DayStart(y, m, d, loc)
	}
}

// ShiftBucket moves a bucket start n buckets forward, or backward for
// negative n. Starts are recomputed from calendar fields, so every result
// equals BucketStart of the same bucket.
func ShiftBucket(start time.Time, g domain.Granularity, n int) time.Time {
	loc := start.Location()
	y, m, d := start.Date()
	switch g {
	case domain.GranularityWeek:
		return DayStart(y, m, d+7*n, loc)
	case domain.GranularityMonth:
		return DayStart(y, m+time.Month(n), 1, loc)
	default:
		return DayStart(y, m, d+n, loc)
	}
}

// NextBucket returns the start of the bucket following start.
func NextBucket(start time.Time, g domain.Granularity) time.Time {
	return ShiftBucket(start, g, 1)
}

// Buckets lays out the contiguous buckets covering window: from the bucket
// containing window.Start through the last bucket starting before
// window.End. Empty windows have no buckets.
func Buckets(window domain.TimeWindow, g domain.Granularity, loc *time.Location) []Bucket {
	if window.Empty() {
		return nil
	}
	var buckets []Bucket
	for start := BucketStart(window.Start, g, loc); start.Before(window.End); {
		end := NextBucket(start, g)
		buckets = append(buckets, Bucket{Start: start, End: end})
		start = end
	}
	return buckets
}

// CountBuckets returns len(Buckets(window, g, loc)) without allocating them.
func CountBuckets(window domain.TimeWindow, g domain.Granularity, loc *time.Location) int {
	if window.Empty() {
		return 0
	}
	n := 0
	for start := BucketStart(window.Start, g, loc); start.Before(window.End); start = NextBucket(start, g) {
		n++
	}
	return n
}

// TrailingWindow narrows window to its last max buckets, keeping the end.
// Windows already within max buckets come back unchanged. It walks at most
// max buckets whatever the window length.
func TrailingWindow(window domain.TimeWindow, g domain.Granularity, loc *time.Location, max int) domain.TimeWindow {
	if max <= 0 || window.Empty() {
		return window
	}
	first := BucketStart(window.Start, g, loc)
	last := BucketStart(window.End.Add(-time.Nanosecond), g, loc)
	start := ShiftBucket(last, g, -(max - 1))
	if !start.After(first) {
		return window
	}
	return domain.NewTimeWindow(start, window.End)
}
