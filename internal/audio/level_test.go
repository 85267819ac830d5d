package audio

import (
	"math/rand/v2"
	"testing"
)

func noiseWindow(amplitude float64, n int) []float64 {
	rng := rand.New(rand.NewPCG(42, 1))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * (2*rng.Float64() - 1)
	}
	return samples
}

func TestLevelPercentSilence(t *testing.T) {
	m := NewLevelMeter()
	if level := m.LevelPercent(make([]float64, FFTSize)); level != 0 {
		t.Errorf("silence level = %d, want 0", level)
	}
}

func TestLevelPercentScalesWithAmplitude(t *testing.T) {
	m := NewLevelMeter()

	loud := m.LevelPercent(noiseWindow(1.0, FFTSize))
	moderate := m.LevelPercent(noiseWindow(0.01, FFTSize))
	faint := m.LevelPercent(noiseWindow(0.0001, FFTSize))

	if loud < 80 {
		t.Errorf("full-scale noise level = %d, want >= 80", loud)
	}
	if moderate <= faint || moderate >= loud {
		t.Errorf("levels not ordered: faint=%d moderate=%d loud=%d", faint, moderate, loud)
	}
	if faint > 5 {
		t.Errorf("faint noise level = %d, want <= 5", faint)
	}
}

func TestLevelPercentBounds(t *testing.T) {
	m := NewLevelMeter()
	for _, amplitude := range []float64{0, 1e-6, 0.001, 0.1, 1.0} {
		level := m.LevelPercent(noiseWindow(amplitude, FFTSize))
		if level < 0 || level > 100 {
			t.Errorf("amplitude %g: level = %d, out of range", amplitude, level)
		}
	}
}

func TestLevelPercentShortInput(t *testing.T) {
	m := NewLevelMeter()

	// A short window is zero-padded, so it must read no louder than the
	// same signal filling a whole window.
	full := m.LevelPercent(noiseWindow(1.0, FFTSize))
	short := m.LevelPercent(noiseWindow(1.0, FFTSize/4))
	if short > full {
		t.Errorf("short input level = %d, want <= %d", short, full)
	}
}

func TestLevelPercentUsesMostRecentSamples(t *testing.T) {
	m := NewLevelMeter()

	// Loud history followed by a window of silence must read as silence.
	samples := noiseWindow(1.0, FFTSize)
	samples = append(samples, make([]float64, FFTSize)...)
	if level := m.LevelPercent(samples); level != 0 {
		t.Errorf("level after trailing silence = %d, want 0", level)
	}
}

func TestBinByte(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		want      float64
	}{
		{"zero", 0, 0},
		{"below floor", 1e-6, 0},
		{"at floor", 1e-5, 0},
		{"full scale", 1.0, 255},
		{"above ceiling", 0.1, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := binByte(tt.magnitude); got != tt.want {
				t.Errorf("binByte(%g) = %g, want %g", tt.magnitude, got, tt.want)
			}
		})
	}

	// Midpoint of the dB range maps onto the midpoint of the byte scale.
	mid := binByte(5.623413251903491e-4) // -65 dBFS
	if mid < 127 || mid > 128 {
		t.Errorf("binByte(-65 dBFS) = %g, want 127.5", mid)
	}
}

func TestMonoSamples(t *testing.T) {
	// Two frames: (16384, -16384) averages to 0, (32767, 32767) to ~1.
	pcm := []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F, 0xFF, 0x7F, 0x01}
	samples := MonoSamples(pcm, nil)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2 (trailing byte ignored)", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %g, want 0", samples[0])
	}
	if samples[1] < 0.999 || samples[1] > 1.0 {
		t.Errorf("samples[1] = %g, want ~1", samples[1])
	}
}
