//go:build !windows

package util

import (
	"io"
	"os"
	"syscall"
)

// ShutdownSignals returns the signals to listen for graceful shutdown.
func ShutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// StopCapture asks a capture process to terminate gracefully. SIGINT is
// the portable stop for both arecord and FFmpeg; stdin is unused here.
func StopCapture(p *os.Process, _ io.WriteCloser) error {
	return p.Signal(syscall.SIGINT)
}
