// Package schedule derives bookable days and time slots from a
// practitioner's availability windows. Everything here is pure; the caller
// owns fetching and caching the windows.
package schedule

import (
	"time"

	"github.com/clinicware/clinic-booking/internal/clinic"
)

// DayLayout is the opaque day key grouping windows by calendar date.
const DayLayout = "2006-01-02"

// DayOf returns the day key for an instant.
func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}

// DeriveDays returns the distinct calendar dates of the windows' start
// instants, each exactly once, in first-seen order.
func DeriveDays(windows []clinic.Availability) []string {
	if len(windows) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(windows))
	days := make([]string, 0, len(windows))
	for _, w := range windows {
		day := DayOf(w.Start)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	return days
}

// SlotsForDay filters the windows whose start instant falls on day,
// preserving the provider's original ordering. No matching windows yields an
// empty result, not an error.
func SlotsForDay(windows []clinic.Availability, day string) []clinic.Availability {
	if len(windows) == 0 || day == "" {
		return nil
	}

	var slots []clinic.Availability
	for _, w := range windows {
		if DayOf(w.Start) == day {
			slots = append(slots, w)
		}
	}

	return slots
}
