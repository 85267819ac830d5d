// Package ramp gradually raises speaker volume toward a target after
// activation, and decides how long that ramp should take based on the
// day/night schedule.
package ramp

import "time"

// Schedule holds the ramp timing settings that apply to one activation.
type Schedule struct {
	RampEnabled         bool
	RampDurationMs      int
	DayNightModeEnabled bool
	DayStartHour        int
	DayEndHour          int
	NightRampDurationMs int
}

// EffectiveDuration returns the ramp duration for an activation at now.
// Ramping disabled means instant volume. With day/night mode enabled,
// activations during the day window are instant and night activations use
// the night duration; otherwise the manual duration applies.
func EffectiveDuration(s Schedule, now time.Time) time.Duration {
	if !s.RampEnabled {
		return 0
	}
	if s.DayNightModeEnabled {
		if inDayWindow(now.Hour(), s.DayStartHour, s.DayEndHour) {
			return 0
		}
		return time.Duration(s.NightRampDurationMs) * time.Millisecond
	}
	return time.Duration(s.RampDurationMs) * time.Millisecond
}

// inDayWindow reports whether hour falls in [start, end). A window whose
// start is after its end wraps past midnight; an empty window never
// matches.
func inDayWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
