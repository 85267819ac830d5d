// Package gate implements the debounced activity detector that decides
// when paging audio is present on the studio feed. The detector tracks how
// long the level has been continuously above or below the threshold; the
// monitoring controller owns the resulting activation state.
package gate

import "time"

// Thresholds are the detection parameters for one update. They are passed
// per call so configuration changes take effect on the next sample.
type Thresholds struct {
	// ThresholdPercent is the level a sample must exceed to qualify as
	// activity. Comparison is strictly greater.
	ThresholdPercent int
	// SustainMs is how long activity must hold before activation fires.
	SustainMs int
	// ReleaseMs is how long silence must hold before release fires.
	ReleaseMs int
}

// Observation reports the detector state after one sample.
type Observation struct {
	Level      int
	Loud       bool
	ActivityMs int64
	SilenceMs  int64
	SustainMet bool
	ReleaseMet bool
}

// Detector tracks run lengths of activity and silence. A single sample on
// the other side of the threshold resets the opposing run. The zero value
// is ready to use.
type Detector struct {
	loudSince  time.Time
	quietSince time.Time
}

// Update feeds one level sample into the detector and reports the state of
// both runs at time now. Samples must be fed in non-decreasing time order.
func (d *Detector) Update(level int, cfg Thresholds, now time.Time) Observation {
	obs := Observation{Level: level}
	if level > cfg.ThresholdPercent {
		if d.loudSince.IsZero() {
			d.loudSince = now
		}
		d.quietSince = time.Time{}
		obs.Loud = true
		obs.ActivityMs = now.Sub(d.loudSince).Milliseconds()
		obs.SustainMet = obs.ActivityMs >= int64(cfg.SustainMs)
		return obs
	}
	if d.quietSince.IsZero() {
		d.quietSince = now
	}
	d.loudSince = time.Time{}
	obs.SilenceMs = now.Sub(d.quietSince).Milliseconds()
	obs.ReleaseMet = obs.SilenceMs >= int64(cfg.ReleaseMs)
	return obs
}

// Reset clears both runs, as when monitoring stops or restarts.
func (d *Detector) Reset() {
	*d = Detector{}
}
