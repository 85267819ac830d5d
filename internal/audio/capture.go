// Package audio provides platform-specific audio capture and the spectral
// level meter used to drive activity detection.
package audio

import (
	"errors"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// ErrNoAudioDevice is returned when no capture device is available.
var ErrNoAudioDevice = errors.New("no audio capture device available")

// BuildCaptureCommand returns the platform-specific command that captures
// signed 16-bit little-endian stereo PCM from the given device and writes
// it to stdout.
func BuildCaptureCommand(deviceID, ffmpegPath string) (string, []string, error) {
	if deviceID == "" {
		return "", nil, ErrNoAudioDevice
	}
	return buildPlatformCommand(deviceID, ffmpegPath)
}

// CaptureAvailable reports whether the platform capture backend is
// installed: arecord on Linux, FFmpeg elsewhere.
func CaptureAvailable(ffmpegPath string) bool {
	return platformCaptureAvailable(ffmpegPath)
}

// ListDevices enumerates the capture devices present on this system. The
// result is never empty; if enumeration fails a platform default is
// returned so capture can still be attempted.
func ListDevices() []types.AudioDevice {
	devices := listPlatformDevices()
	if len(devices) == 0 {
		devices = fallbackDevices()
	}
	return devices
}

// HasDevice reports whether the given device ID is currently present.
func HasDevice(id string) bool {
	for _, d := range ListDevices() {
		if d.ID == id {
			return true
		}
	}
	return false
}
