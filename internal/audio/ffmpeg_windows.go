//go:build windows

package audio

import (
	"os"
	"path/filepath"

	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// ffmpegBinary resolves the FFmpeg executable, additionally probing the
// common Windows install locations before falling back to PATH lookup at
// exec time.
func ffmpegBinary(custom string) string {
	if path := util.ResolveFFmpegPath(custom); path != "" {
		return path
	}
	candidates := []string{
		`C:\ffmpeg\bin\ffmpeg.exe`,
		filepath.Join(os.Getenv("ProgramFiles"), "ffmpeg", "bin", "ffmpeg.exe"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "ffmpeg.exe"
}
