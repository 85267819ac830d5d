//go:build darwin

package audio

import (
	"os/exec"
	"strconv"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// buildPlatformCommand captures from AVFoundation via FFmpeg, writing raw
// S16LE PCM to stdout. Device IDs are AVFoundation audio device indexes.
func buildPlatformCommand(deviceID, ffmpegPath string) (string, []string, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "avfoundation",
		"-i", ":" + deviceID,
		"-ar", strconv.Itoa(types.SampleRate),
		"-ac", strconv.Itoa(types.Channels),
		"-f", "s16le",
		"pipe:1",
	}
	return ffmpegBinary(ffmpegPath), args, nil
}

func platformCaptureAvailable(ffmpegPath string) bool {
	_, err := exec.LookPath(ffmpegBinary(ffmpegPath))
	return err == nil
}

func listPlatformDevices() []types.AudioDevice {
	// FFmpeg exits non-zero after -list_devices; the listing on stderr is
	// still usable.
	output, _ := exec.Command(ffmpegBinary(""),
		"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()
	return parseAVFoundationDevices(string(output))
}

func fallbackDevices() []types.AudioDevice {
	return []types.AudioDevice{{ID: "0", Name: "Default audio input"}}
}
