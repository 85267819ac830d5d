package gate

import (
	"testing"
	"time"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// feed runs samples through the detector at the given spacing and returns
// the observation for each sample.
func feed(d *Detector, cfg Thresholds, levels []int, spacing time.Duration) []Observation {
	observations := make([]Observation, len(levels))
	for i, level := range levels {
		observations[i] = d.Update(level, cfg, testStart.Add(time.Duration(i)*spacing))
	}
	return observations
}

func TestSustainMetAfterContinuousActivity(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 1000, ReleaseMs: 30000}
	var d Detector

	// Five qualifying samples 250ms apart span exactly 1000ms.
	obs := feed(&d, cfg, []int{6, 6, 6, 6, 6}, 250*time.Millisecond)
	for i := range 4 {
		if obs[i].SustainMet {
			t.Errorf("sample %d: sustain met after %dms, want not met", i, obs[i].ActivityMs)
		}
	}
	last := obs[4]
	if !last.SustainMet {
		t.Errorf("sample 5: sustain not met after %dms", last.ActivityMs)
	}
	if last.ActivityMs != 1000 {
		t.Errorf("sample 5: activity = %dms, want 1000", last.ActivityMs)
	}
}

func TestSingleDipResetsSustainTimer(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 1000, ReleaseMs: 30000}
	var d Detector

	// The dip to 2 at t=500ms restarts the run; the timer then needs four
	// further samples beyond the restart to span 1000ms again.
	obs := feed(&d, cfg, []int{6, 6, 2, 6, 6, 6, 6, 6}, 250*time.Millisecond)
	for i, o := range obs[:7] {
		if o.SustainMet {
			t.Errorf("sample %d: sustain met prematurely", i)
		}
	}
	if !obs[7].SustainMet {
		t.Errorf("sample 8: sustain not met after %dms", obs[7].ActivityMs)
	}
	if obs[2].Loud {
		t.Error("sample 3: level 2 counted as loud")
	}
	if obs[3].ActivityMs != 0 {
		t.Errorf("sample 4: activity = %dms after reset, want 0", obs[3].ActivityMs)
	}
}

func TestReleaseMetAfterContinuousSilence(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 0, ReleaseMs: 1000}
	var d Detector

	levels := []int{50, 0, 0, 0, 0, 0}
	obs := feed(&d, cfg, levels, 250*time.Millisecond)
	for i := 1; i < 5; i++ {
		if obs[i].ReleaseMet {
			t.Errorf("sample %d: release met after %dms, want not met", i, obs[i].SilenceMs)
		}
	}
	if !obs[5].ReleaseMet {
		t.Errorf("sample 6: release not met after %dms", obs[5].SilenceMs)
	}
}

func TestSingleLoudSampleResetsReleaseTimer(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 0, ReleaseMs: 1000}
	var d Detector

	obs := feed(&d, cfg, []int{0, 0, 0, 50, 0, 0, 0}, 250*time.Millisecond)
	if obs[3].SilenceMs != 0 || obs[3].ReleaseMet {
		t.Error("loud sample still reported a silence run")
	}
	if obs[4].SilenceMs != 0 {
		t.Errorf("sample 5: silence = %dms after reset, want 0", obs[4].SilenceMs)
	}
	if obs[6].ReleaseMet {
		t.Errorf("sample 7: release met after only %dms", obs[6].SilenceMs)
	}
}

func TestThresholdComparisonIsStrict(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 0, ReleaseMs: 0}
	var d Detector

	at := d.Update(5, cfg, testStart)
	if at.Loud {
		t.Error("level equal to threshold counted as loud")
	}
	above := d.Update(6, cfg, testStart.Add(time.Millisecond))
	if !above.Loud {
		t.Error("level above threshold not counted as loud")
	}
}

func TestZeroSustainFiresImmediately(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 0, ReleaseMs: 1000}
	var d Detector

	if obs := d.Update(6, cfg, testStart); !obs.SustainMet {
		t.Error("sustain of 0ms not met on first qualifying sample")
	}
}

func TestResetClearsRuns(t *testing.T) {
	cfg := Thresholds{ThresholdPercent: 5, SustainMs: 1000, ReleaseMs: 1000}
	var d Detector

	feed(&d, cfg, []int{6, 6, 6}, 250*time.Millisecond)
	d.Reset()

	obs := d.Update(6, cfg, testStart.Add(time.Second))
	if obs.ActivityMs != 0 {
		t.Errorf("activity = %dms after reset, want 0", obs.ActivityMs)
	}
}
