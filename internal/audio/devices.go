package audio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

var (
	alsaCardPattern    = regexp.MustCompile(`^card (\d+): ([^\[]+) \[([^\]]+)\], device (\d+): ([^\[]+) \[([^\]]+)\]`)
	avfoundationDevice = regexp.MustCompile(`\[(\d+)\] (.+)$`)
	dshowDevicePattern = regexp.MustCompile(`"([^"]+)" \(audio\)`)
)

// parseALSADevices extracts capture devices from `arecord -l` output.
func parseALSADevices(output string) []types.AudioDevice {
	var devices []types.AudioDevice
	for line := range strings.Lines(output) {
		m := alsaCardPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		devices = append(devices, types.AudioDevice{
			ID:   fmt.Sprintf("plughw:%s,%s", m[1], m[4]),
			Name: fmt.Sprintf("%s - %s", strings.TrimSpace(m[3]), strings.TrimSpace(m[6])),
		})
	}
	return devices
}

// parseAVFoundationDevices extracts audio devices from FFmpeg's
// `-list_devices` output on macOS. Only the audio section is considered.
func parseAVFoundationDevices(output string) []types.AudioDevice {
	var devices []types.AudioDevice
	inAudioSection := false
	for line := range strings.Lines(output) {
		switch {
		case strings.Contains(line, "AVFoundation audio devices"):
			inAudioSection = true
		case strings.Contains(line, "AVFoundation video devices"):
			inAudioSection = false
		case inAudioSection:
			if m := avfoundationDevice.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				devices = append(devices, types.AudioDevice{ID: m[1], Name: strings.TrimSpace(m[2])})
			}
		}
	}
	return devices
}

// parseDirectShowDevices extracts audio devices from FFmpeg's
// `-list_devices` output on Windows. DirectShow device IDs are the quoted
// device names themselves.
func parseDirectShowDevices(output string) []types.AudioDevice {
	var devices []types.AudioDevice
	for line := range strings.Lines(output) {
		if m := dshowDevicePattern.FindStringSubmatch(line); m != nil {
			devices = append(devices, types.AudioDevice{ID: m[1], Name: m[1]})
		}
	}
	return devices
}
