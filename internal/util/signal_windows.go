//go:build windows

package util

import (
	"io"
	"os"
)

// ShutdownSignals returns the signals to listen for graceful shutdown.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// StopCapture asks a capture process to terminate gracefully. SIGINT is
// not supported on Windows, so FFmpeg is quit via the 'q' command on its
// stdin. Errors are swallowed; if the process does not exit, the caller's
// wait deadline kills it.
func StopCapture(_ *os.Process, stdin io.WriteCloser) error {
	if stdin == nil {
		return nil
	}
	_, _ = stdin.Write([]byte("q"))
	_ = stdin.Close()
	return nil
}
