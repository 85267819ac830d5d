package gateway

import (
	"fmt"
	"math"
)

// VolumeDB converts a volume percentage to the amplifier's decibel scale.
// The scale has ten 3 dB steps: 100% is 0 dB (full output) and 0% is
// -30 dB (muted). Percentages round to the nearest step.
func VolumeDB(percent int) int {
	return (int(math.Round(float64(percent)/10)) - 10) * 3
}

// VolumeSetting formats a percentage as the gateway settings value,
// for example "-9dB".
func VolumeSetting(percent int) string {
	return fmt.Sprintf("%ddB", VolumeDB(percent))
}
