package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/audio"
	"github.com/oszuidwest/zwfm-paging/internal/types"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// tickSamples is the number of mono samples per meter evaluation, one
// tick every ~16.7ms at 48kHz.
const tickSamples = types.SampleRate / types.MeterRate

// runSourceLoop keeps the capture process alive, restarting it with
// backoff after failures until retries are exhausted or monitoring stops.
func (c *Controller) runSourceLoop() {
	for {
		c.mu.Lock()
		if c.state == types.MonitorStopping || c.state == types.MonitorStopped {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		startTime := time.Now()
		stderrOutput, err := c.runSource()
		runDuration := time.Since(startTime)

		c.mu.Lock()
		if err != nil {
			errMsg := err.Error()
			if stderrOutput != "" {
				errMsg = stderrOutput
			}
			c.lastError = errMsg
			slog.Error("audio capture error", "error", errMsg)

			// A missing input device is not transient; no retry loop.
			if errors.Is(err, audio.ErrNoAudioDevice) {
				c.state = types.MonitorStopped
				c.mu.Unlock()
				c.releaseSpeakersAfterFailure()
				return
			}

			// Only count rapid failures against the retry budget. A
			// capture that ran for a while earns a fresh budget.
			if runDuration >= types.SuccessThreshold {
				c.retryCount = 0
				c.backoff.Reset()
			} else {
				c.retryCount++
			}

			if c.retryCount >= types.MaxCaptureRetries {
				slog.Error("audio capture failed, giving up", "attempts", types.MaxCaptureRetries)
				c.state = types.MonitorStopped
				c.lastError = fmt.Sprintf("Stopped after %d failed attempts: %s", types.MaxCaptureRetries, errMsg)
				c.mu.Unlock()
				c.releaseSpeakersAfterFailure()
				return
			}
		} else {
			c.retryCount = 0
			c.backoff.Reset()
		}

		if c.state == types.MonitorStopping || c.state == types.MonitorStopped {
			c.mu.Unlock()
			return
		}

		c.state = types.MonitorStarting
		retryDelay := c.backoff.Next()
		c.mu.Unlock()

		slog.Info("capture stopped, waiting before restart",
			"delay", retryDelay, "attempt", c.retryCount+1, "max_retries", types.MaxCaptureRetries)

		select {
		case <-c.stopChan:
			return
		case <-time.After(retryDelay):
		}
	}
}

// runSource starts one capture process and blocks until it exits. It
// returns the last error line from stderr, if any, and the exit error.
func (c *Controller) runSource() (string, error) {
	audioInput := c.config.AudioInput()
	cmdName, args, err := audio.BuildCaptureCommand(audioInput, c.ffmpegPath)
	if err != nil {
		return "", err
	}

	slog.Info("starting audio capture", "command", cmdName, "input", audioInput)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, cmdName, args...)

	// Keep stdin open so FFmpeg can be quit with 'q' on platforms without
	// SIGINT. arecord ignores it.
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return "", err
	}

	// Graceful shutdown: ask nicely first, wait, then kill.
	cmd.Cancel = func() error {
		return util.StopCapture(cmd.Process, stdinPipe)
	}
	cmd.WaitDelay = types.ShutdownTimeout

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return "", err
	}

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	c.mu.Lock()
	c.sourceCmd = cmd
	c.sourceCancel = cancel
	c.sourceStdout = stdoutPipe
	c.sourceStdin = stdinPipe
	c.state = types.MonitorRunning
	c.startTime = c.clock.Now()
	c.lastError = ""
	c.levels = types.LevelUpdate{}
	c.detector.Reset()
	c.mu.Unlock()

	if err := cmd.Start(); err != nil {
		c.mu.Lock()
		c.sourceCmd = nil
		c.sourceCancel = nil
		c.sourceStdout = nil
		c.sourceStdin = nil
		c.mu.Unlock()
		cancel()
		return "", err
	}

	go c.runMeter()

	err = cmd.Wait()

	c.mu.Lock()
	c.sourceCmd = nil
	c.sourceCancel = nil
	c.sourceStdout = nil
	c.sourceStdin = nil
	c.mu.Unlock()

	return util.ExtractLastError(stderrBuf.String()), err
}

// runMeter pumps PCM from the capture process, tees it to the clip
// recorder and turns every ~16.7ms of audio into one gate evaluation.
func (c *Controller) runMeter() {
	buf := make([]byte, tickSamples*types.Channels*2*6) // ~100ms of S16LE audio per read
	meter := audio.NewLevelMeter()

	var (
		window    []float64 // most recent mono samples, capped at one analysis window
		mono      []float64
		sinceTick int
	)

	for {
		c.mu.RLock()
		state := c.state
		reader := c.sourceStdout
		stopChan := c.stopChan
		c.mu.RUnlock()

		if state != types.MonitorRunning || reader == nil {
			return
		}

		select {
		case <-stopChan:
			return
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			c.recorder.WriteAudio(buf[:n])

			mono = audio.MonoSamples(buf[:n], mono[:0])
			remaining := mono
			for len(remaining) > 0 {
				take := tickSamples - sinceTick
				if take > len(remaining) {
					take = len(remaining)
				}
				window = append(window, remaining[:take]...)
				if len(window) > audio.FFTSize {
					window = window[len(window)-audio.FFTSize:]
				}
				remaining = remaining[take:]

				sinceTick += take
				if sinceTick >= tickSamples {
					sinceTick = 0
					c.HandleSample(meter.LevelPercent(window), c.clock.Now())
				}
			}
		}
		if err != nil {
			return
		}
	}
}
