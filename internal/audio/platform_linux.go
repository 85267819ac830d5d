//go:build linux

package audio

import (
	"os/exec"
	"strconv"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// buildPlatformCommand captures from ALSA via arecord, writing raw S16LE
// PCM to stdout. FFmpeg is not needed on Linux.
func buildPlatformCommand(deviceID, _ string) (string, []string, error) {
	args := []string{
		"-q",
		"-D", deviceID,
		"-f", "S16_LE",
		"-r", strconv.Itoa(types.SampleRate),
		"-c", strconv.Itoa(types.Channels),
		"-t", "raw",
	}
	return "arecord", args, nil
}

func platformCaptureAvailable(_ string) bool {
	_, err := exec.LookPath("arecord")
	return err == nil
}

func listPlatformDevices() []types.AudioDevice {
	output, err := exec.Command("arecord", "-l").CombinedOutput()
	if err != nil {
		return nil
	}
	return parseALSADevices(string(output))
}

func fallbackDevices() []types.AudioDevice {
	return []types.AudioDevice{{ID: "default", Name: "Default ALSA capture device"}}
}
