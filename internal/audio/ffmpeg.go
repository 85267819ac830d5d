//go:build !windows

package audio

import "github.com/oszuidwest/zwfm-paging/internal/util"

// ffmpegBinary resolves the FFmpeg executable used for capture and device
// enumeration, falling back to the bare command name so PATH lookup still
// happens at exec time.
func ffmpegBinary(custom string) string {
	if path := util.ResolveFFmpegPath(custom); path != "" {
		return path
	}
	return "ffmpeg"
}
