package listsync

import (
	"time"

	appErrors "github.com/noah-isme/admin-console/pkg/errors"
)

// DatePreset names a date range shortcut offered by the filter bar.
type DatePreset string

const (
	PresetToday  DatePreset = "today"
	PresetWeek   DatePreset = "week"
	PresetMonth  DatePreset = "month"
	PresetCustom DatePreset = "custom"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

var (
	errUnknownPreset = appErrors.Clone(appErrors.ErrValidation, "unknown date preset")
	errInvertedRange = appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
)

// DateRange bounds a date filter. Both ends are nil when the filter is inactive.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// IsZero reports whether the range is the empty {nil, nil} value.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day in its own location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// FormatISO renders t the way the remote list service expects date params.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ResolveDateRange computes the concrete range for preset relative to now.
// For PresetCustom both start and end must be set; callers treat a missing
// bound as a request to clear the date filter before reaching this point.
func ResolveDateRange(preset DatePreset, now time.Time, start, end *time.Time) (DateRange, error) {
	var from, to time.Time

	switch preset {
	case PresetToday:
		from, to = StartOfDay(now), EndOfDay(now)
	case PresetWeek:
		from = StartOfDay(now.AddDate(0, 0, -int(now.Weekday())))
		to = EndOfDay(from.AddDate(0, 0, 6))
	case PresetMonth:
		y, m, _ := now.Date()
		from = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		to = EndOfDay(from.AddDate(0, 1, -1))
	case PresetCustom:
		if start == nil || end == nil {
			return DateRange{}, nil
		}
		from, to = *start, *end
		if to.Before(from) {
			return DateRange{}, errInvertedRange
		}
	default:
		return DateRange{}, errUnknownPreset
	}

	return DateRange{Start: &from, End: &to}, nil
}
