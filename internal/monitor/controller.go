// Package monitor provides the audio activity engine that drives the
// paging speakers. It captures PCM from the configured input, meters it
// at a fixed cadence and switches the speaker groups through the device
// gateway when sustained audio is detected.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/gate"
	"github.com/oszuidwest/zwfm-paging/internal/journal"
	"github.com/oszuidwest/zwfm-paging/internal/notify"
	"github.com/oszuidwest/zwfm-paging/internal/ramp"
	"github.com/oszuidwest/zwfm-paging/internal/recorder"
	"github.com/oszuidwest/zwfm-paging/internal/types"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// Sentinel errors for controller operations.
var (
	ErrNoAudioInput   = errors.New("no audio input configured")
	ErrAlreadyRunning = errors.New("monitoring already running")
	ErrNotRunning     = errors.New("monitoring not running")
)

// Gateway switches speaker power and volume at the device gateway.
type Gateway interface {
	SetVolume(ctx context.Context, speakers []types.SpeakerEndpoint, percent int) error
	SetEnabled(ctx context.Context, speakers []types.SpeakerEndpoint, enable bool) error
}

// Controller manages audio capture, activity detection and the speaker
// switching that follows from it.
type Controller struct {
	config     *config.Config
	ffmpegPath string
	journal    *journal.Log
	gateway    Gateway
	ramp       *ramp.Engine
	recorder   *recorder.Recorder
	notifier   *notify.Notifier
	detector   *gate.Detector
	clock      clockwork.Clock

	sourceCmd    *exec.Cmd
	sourceCancel context.CancelFunc
	sourceStdout io.ReadCloser
	sourceStdin  io.WriteCloser
	state        types.MonitorState
	stopChan     chan struct{}
	mu           sync.RWMutex
	lastError    string
	startTime    time.Time
	retryCount   int
	backoff      *util.Backoff

	active          bool
	episodeStart    time.Time
	silenceNoted    bool
	levels          types.LevelUpdate
	lastKnownLevels types.LevelUpdate // Cache for TryRLock fallback

	// controlling guards speaker transitions: while a sequence is in
	// flight, new triggers are dropped rather than queued.
	controlling atomic.Bool
	transitions sync.WaitGroup
}

// New creates a Controller with the given configuration and collaborators.
func New(cfg *config.Config, ffmpegPath string, jl *journal.Log, gw Gateway, clock clockwork.Clock) *Controller {
	return &Controller{
		config:     cfg,
		ffmpegPath: ffmpegPath,
		journal:    jl,
		gateway:    gw,
		ramp:       ramp.NewEngine(gw, clock),
		recorder:   recorder.New(cfg),
		notifier:   notify.NewNotifier(cfg),
		detector:   &gate.Detector{},
		clock:      clock,
		state:      types.MonitorStopped,
		backoff:    util.NewBackoff(types.InitialRetryDelay, types.MaxRetryDelay),
	}
}

// State returns the current monitoring state.
func (c *Controller) State() types.MonitorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsRunning reports whether monitoring is in running state.
func (c *Controller) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == types.MonitorRunning
}

// Active reports whether the speakers are currently powered.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Levels returns the most recent meter reading.
func (c *Controller) Levels() types.LevelUpdate {
	if !c.mu.TryRLock() {
		return c.lastKnownLevels
	}
	defer c.mu.RUnlock()

	if c.state != types.MonitorRunning {
		return types.LevelUpdate{}
	}
	return c.levels
}

// Status returns the current controller status.
func (c *Controller) Status() types.MonitorStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	uptime := ""
	if c.state == types.MonitorRunning {
		uptime = c.clock.Since(c.startTime).Truncate(time.Second).String()
	}

	return types.MonitorStatus{
		State:             c.state,
		Active:            c.active,
		Controlling:       c.controlling.Load(),
		Level:             c.levels.Level,
		Uptime:            uptime,
		LastError:         c.lastError,
		CaptureRetryCount: c.retryCount,
		CaptureMaxRetries: types.MaxCaptureRetries,
	}
}

// Start begins audio capture and activity monitoring.
func (c *Controller) Start() error {
	if c.config.AudioInput() == "" {
		return ErrNoAudioInput
	}

	c.mu.Lock()
	if c.state == types.MonitorRunning || c.state == types.MonitorStarting {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}

	c.state = types.MonitorStarting
	c.stopChan = make(chan struct{})
	c.retryCount = 0
	c.lastError = ""
	c.backoff.Reset()
	c.detector.Reset()
	c.silenceNoted = false
	c.mu.Unlock()

	c.notifier.Reset()

	if err := c.config.SetWasMonitoring(true); err != nil {
		slog.Warn("failed to persist monitoring state", "error", err)
	}

	go c.runSourceLoop()

	return nil
}

// Stop halts monitoring deliberately. The resume flag is cleared so the
// next boot stays idle. If the speakers are on, the disable sequence
// runs before Stop returns so no speaker is left powered.
func (c *Controller) Stop() error {
	if err := c.config.SetWasMonitoring(false); err != nil {
		slog.Warn("failed to persist monitoring state", "error", err)
	}
	return c.halt()
}

// Shutdown halts monitoring without clearing the resume flag. A session
// interrupted by a process restart starts again on the next boot.
// Shutting down while idle is not an error.
func (c *Controller) Shutdown() error {
	if err := c.halt(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}

// halt stops the capture process and, when the speakers are on, powers
// them down synchronously.
func (c *Controller) halt() error {
	c.mu.Lock()
	if c.state == types.MonitorStopped || c.state == types.MonitorStopping {
		c.mu.Unlock()
		return ErrNotRunning
	}

	c.state = types.MonitorStopping
	if c.stopChan != nil {
		close(c.stopChan)
	}
	sourceProcess := c.sourceCmd
	sourceCancel := c.sourceCancel
	sourceStdin := c.sourceStdin
	c.mu.Unlock()

	var errs []error

	// Let any transition still in flight finish, then shut the speakers
	// down synchronously.
	c.transitions.Wait()
	if episodeStart, ok := c.takeEpisode(); ok {
		c.runDisableSequence(episodeStart)
	}

	// Ask the capture process to terminate gracefully.
	if sourceProcess != nil && sourceProcess.Process != nil {
		if err := util.StopCapture(sourceProcess.Process, sourceStdin); err != nil {
			slog.Warn("failed to stop capture process", "error", err)
			errs = append(errs, fmt.Errorf("stop capture: %w", err))
		}
	}

	stopped := c.pollUntil(func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.sourceCmd == nil
	})

	select {
	case <-stopped:
		slog.Info("audio capture stopped gracefully")
	case <-time.After(types.ShutdownTimeout):
		slog.Warn("audio capture did not stop in time, forcing kill")
		if sourceCancel != nil {
			sourceCancel()
		}
		errs = append(errs, fmt.Errorf("capture shutdown timeout"))
	}

	c.mu.Lock()
	c.state = types.MonitorStopped
	c.sourceCmd = nil
	c.sourceCancel = nil
	c.sourceStdin = nil
	c.detector.Reset()
	c.mu.Unlock()

	return errors.Join(errs...)
}

// Restart stops and starts monitoring.
func (c *Controller) Restart() error {
	if err := c.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	time.Sleep(1000 * time.Millisecond)
	return c.Start()
}

// Resume restarts monitoring after boot when the previous session was
// still monitoring at shutdown. The grace delay lets audio devices and
// permissions settle first.
func (c *Controller) Resume() {
	if !c.config.WasMonitoring() {
		return
	}

	slog.Info("resuming monitoring after restart", "delay", types.ResumeGraceDelay)
	c.clock.Sleep(types.ResumeGraceDelay)

	if err := c.Start(); err != nil {
		slog.Error("failed to resume monitoring", "error", err)
	}
}

// ApplySettings applies a partial settings update. When the target volume
// changes while the speakers are on, the running ramp is redirected
// toward the new target from the current volume.
func (c *Controller) ApplySettings(u types.MonitoringUpdate) (types.MonitoringSettings, error) {
	before := c.config.MonitoringSettings()
	settings, err := c.config.ApplyMonitoringUpdate(u)
	if err != nil {
		return settings, err
	}

	if c.Active() && settings.TargetVolumePercent != before.TargetVolumePercent {
		speakers := c.config.EnabledSpeakers()
		c.ramp.Start(speakers, settings.TargetVolumePercent, c.effectiveRampDuration(settings))
		slog.Info("volume target changed while active", "target", settings.TargetVolumePercent)

		if settings.LoggingEnabled {
			vol := settings.TargetVolumePercent
			c.journal.Append(journal.Entry{
				Timestamp: c.clock.Now(),
				Type:      journal.VolumeChange,
				Volume:    &vol,
				Message:   fmt.Sprintf("Volume target changed to %d%%", vol),
			})
		}
	}

	// Turning recording off mid-episode drops the clip in progress rather
	// than uploading a partial one at deactivation.
	if before.RecordingEnabled && !settings.RecordingEnabled && c.recorder.Active() {
		slog.Info("recording disabled, discarding clip in progress")
		c.recorder.Discard()
	}

	return settings, nil
}

// TriggerTestEmail sends a test email to verify configuration.
func (c *Controller) TriggerTestEmail() error {
	cfg := c.config.Snapshot()
	return notify.SendTestEmail(notify.BuildGraphConfig(cfg), cfg.StationName)
}

// TriggerTestWebhook sends a test webhook to verify configuration.
func (c *Controller) TriggerTestWebhook() error {
	cfg := c.config.Snapshot()
	return notify.SendTestWebhook(cfg.WebhookURL, cfg.StationName)
}

// InvalidateGraphClient drops the cached Graph client after an email
// configuration change.
func (c *Controller) InvalidateGraphClient() {
	c.notifier.InvalidateGraphClient()
}

// HandleSample feeds one meter reading through the activation gate and
// fires speaker transitions when the debounce conditions are met.
func (c *Controller) HandleSample(level int, now time.Time) {
	settings := c.config.MonitoringSettings()

	c.mu.Lock()
	obs := c.detector.Update(level, gate.Thresholds{
		ThresholdPercent: settings.AudioThresholdPercent,
		SustainMs:        int(settings.SustainDurationMs),
		ReleaseMs:        int(settings.DisableDelayMs),
	}, now)
	active := c.active
	if obs.Loud {
		c.silenceNoted = false
	}
	update := types.LevelUpdate{
		Level:      level,
		Threshold:  settings.AudioThresholdPercent,
		Active:     active,
		ActivityMs: obs.ActivityMs,
		SilenceMs:  obs.SilenceMs,
	}
	c.levels = update
	c.lastKnownLevels = update
	firstQuiet := !obs.Loud && active && !c.silenceNoted
	if firstQuiet {
		c.silenceNoted = true
	}
	c.mu.Unlock()

	// The quiet edge is journaled once per silence spell; the release
	// timer itself keeps running on every sample.
	if firstQuiet && settings.LoggingEnabled {
		lvl := level
		thr := settings.AudioThresholdPercent
		c.journal.Append(journal.Entry{
			Timestamp:  now,
			Type:       journal.AudioSilent,
			AudioLevel: &lvl,
			Threshold:  &thr,
			Message:    "Audio fell silent",
		})
	}

	if obs.Loud {
		if !active && obs.SustainMet {
			c.triggerActivation(level, settings, now)
		}
		return
	}

	if active && obs.ReleaseMet {
		c.triggerDeactivation()
	}
}

// triggerActivation switches the speakers on. The journal reflects the
// decision immediately; gateway calls and the ramp run asynchronously.
func (c *Controller) triggerActivation(level int, settings types.MonitoringSettings, now time.Time) {
	if !c.controlling.CompareAndSwap(false, true) {
		slog.Debug("activation trigger dropped, transition in flight")
		return
	}

	speakers := c.config.EnabledSpeakers()
	names := c.config.EnabledGroupNames()

	c.mu.Lock()
	if c.state != types.MonitorRunning || c.active {
		c.mu.Unlock()
		c.controlling.Store(false)
		return
	}
	c.active = true
	c.episodeStart = now
	c.silenceNoted = false
	c.transitions.Add(1)
	c.mu.Unlock()

	slog.Info("sustained audio detected, enabling speakers",
		"level", level, "threshold", settings.AudioThresholdPercent, "groups", len(names))

	if settings.LoggingEnabled {
		lvl := level
		thr := settings.AudioThresholdPercent
		vol := settings.TargetVolumePercent
		c.journal.Append(journal.Entry{
			Timestamp:  now,
			Type:       journal.AudioDetected,
			AudioLevel: &lvl,
			Threshold:  &thr,
			Message:    "Sustained audio above threshold",
		})
		c.journal.Append(journal.Entry{
			Timestamp: now,
			Type:      journal.SpeakersEnabled,
			Speakers:  names,
			Volume:    &vol,
			Message:   "Speakers enabled",
		})
	}

	c.notifier.EpisodeStarted(level, settings.AudioThresholdPercent, names)

	duration := c.effectiveRampDuration(settings)

	go func() {
		defer c.transitions.Done()
		defer c.controlling.Store(false)

		if settings.RecordingEnabled {
			c.recorder.Start(now)
		}

		ctx := context.Background()
		if err := c.gateway.SetVolume(ctx, speakers, 0); err != nil {
			slog.Warn("failed to zero speaker volume", "error", err)
		}
		if err := c.gateway.SetEnabled(ctx, speakers, true); err != nil {
			slog.Warn("failed to enable speakers", "error", err)
		}

		c.ramp.Start(speakers, settings.TargetVolumePercent, duration)
	}()
}

// triggerDeactivation switches the speakers off after sustained silence.
func (c *Controller) triggerDeactivation() {
	if !c.controlling.CompareAndSwap(false, true) {
		slog.Debug("disable trigger dropped, transition in flight")
		return
	}

	c.mu.Lock()
	if c.state != types.MonitorRunning || !c.active {
		c.mu.Unlock()
		c.controlling.Store(false)
		return
	}
	c.active = false
	c.silenceNoted = false
	episodeStart := c.episodeStart
	c.transitions.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.transitions.Done()
		defer c.controlling.Store(false)
		c.runDisableSequence(episodeStart)
	}()
}

// takeEpisode flips the episode off and returns its start time. The
// second return is false when no episode was active.
func (c *Controller) takeEpisode() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return time.Time{}, false
	}
	c.active = false
	c.silenceNoted = false
	return c.episodeStart, true
}

// runDisableSequence kills the ramp (forcing volume to 0), finalizes the
// evidence clip, powers the speakers off and journals the result with
// the clip reference. The journal entry deliberately waits for the
// upload so it can carry the reference.
func (c *Controller) runDisableSequence(episodeStart time.Time) {
	settings := c.config.MonitoringSettings()
	speakers := c.config.EnabledSpeakers()
	names := c.config.EnabledGroupNames()

	c.ramp.Stop(speakers)

	ref := c.recorder.Finish()

	if err := c.gateway.SetEnabled(context.Background(), speakers, false); err != nil {
		slog.Warn("failed to disable speakers", "error", err)
	}

	durationMs := c.clock.Since(episodeStart).Milliseconds()
	slog.Info("speakers disabled", "episode", util.FormatDuration(durationMs))

	if settings.LoggingEnabled {
		c.journal.Append(journal.Entry{
			Timestamp:    c.clock.Now(),
			Type:         journal.SpeakersDisabled,
			Speakers:     names,
			Message:      "Speakers disabled",
			RecordingRef: ref,
		})
	}

	c.notifier.EpisodeEnded(durationMs, ref)
}

// releaseSpeakersAfterFailure powers the speakers off when capture is
// gone for good, so a dead input cannot leave the room stuck live.
func (c *Controller) releaseSpeakersAfterFailure() {
	c.transitions.Wait()
	if !c.controlling.CompareAndSwap(false, true) {
		return
	}
	defer c.controlling.Store(false)

	if episodeStart, ok := c.takeEpisode(); ok {
		c.runDisableSequence(episodeStart)
	}
}

// effectiveRampDuration resolves the ramp duration for an activation
// happening now. Recomputed at every ramp start, never cached.
func (c *Controller) effectiveRampDuration(s types.MonitoringSettings) time.Duration {
	return ramp.EffectiveDuration(ramp.Schedule{
		RampEnabled:         s.RampEnabled,
		RampDurationMs:      int(s.RampDurationMs),
		DayNightModeEnabled: s.DayNightModeEnabled,
		DayStartHour:        s.DayStartHour,
		DayEndHour:          s.DayEndHour,
		NightRampDurationMs: int(s.NightRampDurationMs),
	}, c.clock.Now())
}

// pollUntil signals when the given condition becomes true.
func (c *Controller) pollUntil(condition func() bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for !condition() {
			time.Sleep(types.PollInterval)
		}
		close(done)
	}()
	return done
}
