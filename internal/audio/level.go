package audio

import (
	"encoding/binary"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTSize is the number of mono samples per spectral analysis window.
const FFTSize = 1024

// Magnitude range mapped onto the 0-255 bin scale. Bins below minDB read
// as 0, bins above maxDB saturate at 255.
const (
	minDB = -100.0
	maxDB = -30.0
)

// LevelMeter converts windows of mono PCM into normalized 0-100 levels.
// The level of a window is the mean byte-scaled magnitude of its frequency
// spectrum: each FFT bin magnitude is converted to dBFS, clamped into
// [minDB, maxDB] and scaled onto 0-255, and the mean over all bins is
// expressed as an integer percentage of full scale.
type LevelMeter struct {
	fft    *fourier.FFT
	window []float64
	coeffs []complex128
}

// NewLevelMeter returns a meter with an FFTSize analysis window.
func NewLevelMeter() *LevelMeter {
	return &LevelMeter{
		fft:    fourier.NewFFT(FFTSize),
		window: make([]float64, FFTSize),
		coeffs: make([]complex128, FFTSize/2+1),
	}
}

// LevelPercent computes the normalized level of one analysis window.
// samples must hold at least FFTSize mono samples in [-1, 1]; only the
// most recent FFTSize samples are analyzed. Shorter inputs are zero-padded
// at the front, so a meter that has just started reads low rather than
// failing.
func (m *LevelMeter) LevelPercent(samples []float64) int {
	if len(samples) >= FFTSize {
		copy(m.window, samples[len(samples)-FFTSize:])
	} else {
		pad := FFTSize - len(samples)
		clear(m.window[:pad])
		copy(m.window[pad:], samples)
	}

	m.coeffs = m.fft.Coefficients(m.coeffs, m.window)
	var sum float64
	for _, c := range m.coeffs {
		sum += binByte(cmplx.Abs(c) / FFTSize)
	}
	mean := sum / float64(len(m.coeffs))
	return int(math.Round(mean / 255 * 100))
}

// binByte maps a normalized bin magnitude onto the 0-255 scale.
func binByte(magnitude float64) float64 {
	if magnitude <= 0 {
		return 0
	}
	db := 20 * math.Log10(magnitude)
	if db <= minDB {
		return 0
	}
	if db >= maxDB {
		return 255
	}
	return (db - minDB) / (maxDB - minDB) * 255
}

// MonoSamples appends the mono mixdown of interleaved S16LE stereo PCM to
// dst. Trailing bytes that do not form a whole frame are ignored.
func MonoSamples(pcm []byte, dst []float64) []float64 {
	for i := 0; i+3 < len(pcm); i += 4 {
		left := int16(binary.LittleEndian.Uint16(pcm[i:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i+2:]))
		dst = append(dst, (float64(left)+float64(right))/2/32768)
	}
	return dst
}
