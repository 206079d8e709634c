package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanshika/downline/internal/domain"
)

// Preset names a window relative to the current time.
type Preset string

const (
	PresetToday     Preset = "today"
	PresetYesterday Preset = "yesterday"
	PresetLast7     Preset = "last7"
	PresetThisWeek  Preset = "this_week"
	PresetThisMonth Preset = "this_month"
	PresetLast30    Preset = "last30"
	PresetYTD       Preset = "ytd"
)

// ErrUnknownPreset is returned for preset names outside the list above.
var ErrUnknownPreset = errors.New("unknown window preset")

// ParsePreset validates a preset name.
func ParsePreset(value string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case PresetToday, PresetYesterday, PresetLast7, PresetThisWeek, PresetThisMonth, PresetLast30, PresetYTD:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, value)
	}
}

// PresetWindow resolves p against now, using calendar days in loc.
func PresetWindow(p Preset, now time.Time, loc *time.Location) (domain.TimeWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := BucketStart(now, domain.GranularityDay, loc)
	tomorrow := ShiftBucket(today, domain.GranularityDay, 1)

	switch p {
	case PresetToday:
		return domain.NewTimeWindow(today, tomorrow), nil
	case PresetYesterday:
		return domain.NewTimeWindow(ShiftBucket(today, domain.GranularityDay, -1), today), nil
	case PresetLast7:
		return domain.NewTimeWindow(ShiftBucket(today, domain.GranularityDay, -6), tomorrow), nil
	case PresetThisWeek:
		week := BucketStart(now, domain.GranularityWeek, loc)
		return domain.NewTimeWindow(week, NextBucket(week, domain.GranularityWeek)), nil
	case PresetThisMonth:
		month := BucketStart(now, domain.GranularityMonth, loc)
		return domain.NewTimeWindow(month, NextBucket(month, domain.GranularityMonth)), nil
	case PresetLast30:
		return domain.NewTimeWindow(ShiftBucket(today, domain.GranularityDay, -29), tomorrow), nil
	case PresetYTD:
		nowLocal := now.In(loc)
		return domain.NewTimeWindow(DayStart(nowLocal.Year(), time.January, 1, loc), tomorrow), nil
	default:
		return domain.TimeWindow{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}
