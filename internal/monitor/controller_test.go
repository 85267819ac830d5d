package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/journal"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

// gatewayCall is one recorded speaker operation.
type gatewayCall struct {
	op       string // "volume" or "power"
	percent  int
	enable   bool
	speakers int
}

// fakeGateway records speaker operations. When block is set, volume calls
// stall on it, holding a transition in flight.
type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall
	ch    chan gatewayCall
	block chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{ch: make(chan gatewayCall, 64)}
}

func (g *fakeGateway) record(c gatewayCall) {
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	g.ch <- c
}

func (g *fakeGateway) SetVolume(_ context.Context, speakers []types.SpeakerEndpoint, percent int) error {
	if g.block != nil {
		<-g.block
	}
	g.record(gatewayCall{op: "volume", percent: percent, speakers: len(speakers)})
	return nil
}

func (g *fakeGateway) SetEnabled(_ context.Context, speakers []types.SpeakerEndpoint, enable bool) error {
	g.record(gatewayCall{op: "power", enable: enable, speakers: len(speakers)})
	return nil
}

func (g *fakeGateway) next(t *testing.T) gatewayCall {
	t.Helper()
	select {
	case c := <-g.ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for gateway call")
		return gatewayCall{}
	}
}

func (g *fakeGateway) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.ch:
		t.Fatalf("unexpected gateway call: %+v", c)
	default:
	}
}

func newTestController(t *testing.T) (*Controller, *fakeGateway, *clockwork.FakeClock, *journal.Log) {
	t.Helper()

	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.SetAudioInput("default"); err != nil {
		t.Fatalf("SetAudioInput() error = %v", err)
	}
	if err := cfg.AddGroup(&types.SpeakerGroup{
		Name:    "Kantine",
		Devices: []types.SpeakerEndpoint{{Address: "192.168.1.40", Credential: "secret", AuthMethod: "basic"}},
	}); err != nil {
		t.Fatalf("AddGroup() error = %v", err)
	}
	if _, err := cfg.ApplyMonitoringUpdate(types.MonitoringUpdate{
		SustainDurationMs:   int64Ptr(1000),
		DisableDelayMs:      int64Ptr(5000),
		TargetVolumePercent: intPtr(80),
		RampEnabled:         boolPtr(false),
		RecordingEnabled:    boolPtr(false),
	}); err != nil {
		t.Fatalf("ApplyMonitoringUpdate() error = %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gw := newFakeGateway()
	jl := journal.New()
	return New(cfg, "", jl, gw, clock), gw, clock, jl
}

// startRunning puts the controller in running state without spawning a
// capture process, so tests can feed samples directly.
func startRunning(c *Controller) {
	c.mu.Lock()
	c.state = types.MonitorRunning
	c.stopChan = make(chan struct{})
	c.startTime = c.clock.Now()
	c.mu.Unlock()
}

// activate drives sustained audio through the gate and drains the enable
// sequence: volume zeroed, power on, target applied.
func activate(t *testing.T, c *Controller, gw *fakeGateway, clock *clockwork.FakeClock) {
	t.Helper()

	c.HandleSample(42, clock.Now())
	clock.Advance(time.Second)
	c.HandleSample(42, clock.Now())

	if !c.Active() {
		t.Fatal("speakers not active after sustained audio")
	}
	if call := gw.next(t); call.op != "volume" || call.percent != 0 {
		t.Fatalf("first gateway call = %+v, want volume 0", call)
	}
	if call := gw.next(t); call.op != "power" || !call.enable {
		t.Fatalf("second gateway call = %+v, want power on", call)
	}
	if call := gw.next(t); call.op != "volume" || call.percent != 80 {
		t.Fatalf("third gateway call = %+v, want volume 80", call)
	}
	c.transitions.Wait()
}

func TestSustainedAudioEnablesSpeakers(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	startRunning(c)

	// A dip below the threshold resets the activity run.
	c.HandleSample(42, clock.Now())
	clock.Advance(500 * time.Millisecond)
	c.HandleSample(2, clock.Now())
	clock.Advance(500 * time.Millisecond)
	gw.expectNone(t)
	if c.Active() {
		t.Fatal("speakers active after interrupted activity run")
	}

	activate(t, c, gw, clock)

	entries := jl.Entries()
	if len(entries) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(entries))
	}
	if entries[0].Type != journal.AudioDetected {
		t.Errorf("first entry type = %q, want %q", entries[0].Type, journal.AudioDetected)
	}
	if entries[0].AudioLevel == nil || *entries[0].AudioLevel != 42 {
		t.Error("audio detected entry missing level")
	}
	if entries[0].Threshold == nil || *entries[0].Threshold != 5 {
		t.Error("audio detected entry missing threshold")
	}
	if entries[1].Type != journal.SpeakersEnabled {
		t.Errorf("second entry type = %q, want %q", entries[1].Type, journal.SpeakersEnabled)
	}
	if len(entries[1].Speakers) != 1 || entries[1].Speakers[0] != "Kantine" {
		t.Errorf("enabled entry speakers = %v, want [Kantine]", entries[1].Speakers)
	}
	if entries[1].Volume == nil || *entries[1].Volume != 80 {
		t.Error("enabled entry missing target volume")
	}
}

func TestJournalWrittenBeforeGatewayConfirms(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	gw.block = make(chan struct{})
	startRunning(c)

	c.HandleSample(30, clock.Now())
	clock.Advance(time.Second)
	c.HandleSample(30, clock.Now())

	// The transition goroutine is stalled inside the first volume call,
	// yet the journal entries and the active flag are already in place.
	if !c.Active() {
		t.Fatal("active flag not set at trigger time")
	}
	if got := jl.Len(); got != 2 {
		t.Fatalf("journal has %d entries while gateway is stalled, want 2", got)
	}
	if !c.Status().Controlling {
		t.Fatal("controlling flag not set during transition")
	}

	close(gw.block)
	c.transitions.Wait()
	if c.Status().Controlling {
		t.Fatal("controlling flag still set after transition finished")
	}
}

func TestSilenceReleaseDisablesSpeakers(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	startRunning(c)
	activate(t, c, gw, clock)

	// The first quiet sample journals the edge and starts the release run.
	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	entries := jl.Entries()
	if len(entries) != 3 || entries[2].Type != journal.AudioSilent {
		t.Fatalf("quiet edge not journaled, got %d entries", len(entries))
	}
	if !c.Active() {
		t.Fatal("speakers released before disable delay elapsed")
	}

	// More silence within the delay: no repeat entry, no switching.
	clock.Advance(2 * time.Second)
	c.HandleSample(1, clock.Now())
	if jl.Len() != 3 {
		t.Fatal("quiet edge journaled more than once in the same spell")
	}
	gw.expectNone(t)

	// The delay expires.
	clock.Advance(3 * time.Second)
	c.HandleSample(1, clock.Now())

	if call := gw.next(t); call.op != "volume" || call.percent != 0 {
		t.Fatalf("disable call = %+v, want volume forced to 0", call)
	}
	if call := gw.next(t); call.op != "power" || call.enable {
		t.Fatalf("disable call = %+v, want power off", call)
	}
	c.transitions.Wait()

	if c.Active() {
		t.Fatal("speakers still active after release")
	}
	entries = jl.Entries()
	last := entries[len(entries)-1]
	if last.Type != journal.SpeakersDisabled {
		t.Fatalf("last entry type = %q, want %q", last.Type, journal.SpeakersDisabled)
	}
	if len(last.Speakers) != 1 || last.Speakers[0] != "Kantine" {
		t.Errorf("disabled entry speakers = %v, want [Kantine]", last.Speakers)
	}
	if last.RecordingRef != "" {
		t.Errorf("recording ref = %q, want empty without storage", last.RecordingRef)
	}
}

func TestQuietEdgeResetByActivity(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	startRunning(c)
	activate(t, c, gw, clock)

	countSilent := func() int {
		n := 0
		for _, e := range jl.Entries() {
			if e.Type == journal.AudioSilent {
				n++
			}
		}
		return n
	}

	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	if got := countSilent(); got != 1 {
		t.Fatalf("silent entries = %d, want 1", got)
	}

	// Audio returns: the release run and the edge latch both reset.
	clock.Advance(time.Second)
	c.HandleSample(42, clock.Now())

	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	if got := countSilent(); got != 2 {
		t.Fatalf("silent entries after new spell = %d, want 2", got)
	}

	// The release run started over, so the speakers stay on.
	clock.Advance(4 * time.Second)
	c.HandleSample(1, clock.Now())
	gw.expectNone(t)
	if !c.Active() {
		t.Fatal("speakers released early after interrupted silence run")
	}
}

func TestTriggerDroppedWhileTransitionInFlight(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	gw.block = make(chan struct{})
	startRunning(c)

	// Activation fires and stalls inside the gateway.
	c.HandleSample(42, clock.Now())
	clock.Advance(time.Second)
	c.HandleSample(42, clock.Now())
	if !c.Status().Controlling {
		t.Fatal("controlling flag not set while transition is stalled")
	}

	// Silence far past the disable delay: the release trigger must be
	// dropped, not queued, while the enable sequence is in flight.
	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	clock.Advance(6 * time.Second)
	c.HandleSample(1, clock.Now())
	if !c.Active() {
		t.Fatal("dropped release trigger should leave the speakers active")
	}

	// The stalled enable sequence completes untouched.
	close(gw.block)
	if call := gw.next(t); call.op != "volume" || call.percent != 0 {
		t.Fatalf("gateway call = %+v, want volume 0", call)
	}
	if call := gw.next(t); call.op != "power" || !call.enable {
		t.Fatalf("gateway call = %+v, want power on", call)
	}
	if call := gw.next(t); call.op != "volume" || call.percent != 80 {
		t.Fatalf("gateway call = %+v, want volume 80", call)
	}
	c.transitions.Wait()

	// The next quiet sample re-fires the release trigger.
	clock.Advance(100 * time.Millisecond)
	c.HandleSample(1, clock.Now())
	if call := gw.next(t); call.op != "volume" || call.percent != 0 {
		t.Fatalf("gateway call = %+v, want volume forced to 0", call)
	}
	if call := gw.next(t); call.op != "power" || call.enable {
		t.Fatalf("gateway call = %+v, want power off", call)
	}
	c.transitions.Wait()

	if c.Active() {
		t.Fatal("speakers still active after re-fired release")
	}
	if got := jl.Len(); got != 4 {
		t.Fatalf("journal has %d entries, want 4", got)
	}
}

func TestStopDisablesSpeakersSynchronously(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	startRunning(c)
	activate(t, c, gw, clock)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if call := gw.next(t); call.op != "volume" || call.percent != 0 {
		t.Fatalf("gateway call = %+v, want volume forced to 0", call)
	}
	if call := gw.next(t); call.op != "power" || call.enable {
		t.Fatalf("gateway call = %+v, want power off", call)
	}
	if c.Active() {
		t.Fatal("speakers still active after Stop")
	}
	if got := c.State(); got != types.MonitorStopped {
		t.Fatalf("state after Stop = %q, want %q", got, types.MonitorStopped)
	}
	if c.config.WasMonitoring() {
		t.Fatal("was_monitoring still set after Stop")
	}
	entries := jl.Entries()
	if entries[len(entries)-1].Type != journal.SpeakersDisabled {
		t.Fatalf("last entry type = %q, want %q", entries[len(entries)-1].Type, journal.SpeakersDisabled)
	}
}

func TestShutdownPreservesResumeFlag(t *testing.T) {
	c, gw, clock, _ := newTestController(t)
	startRunning(c)
	if err := c.config.SetWasMonitoring(true); err != nil {
		t.Fatalf("SetWasMonitoring() error = %v", err)
	}
	activate(t, c, gw, clock)

	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if c.Active() {
		t.Fatal("speakers still active after Shutdown")
	}
	if got := c.State(); got != types.MonitorStopped {
		t.Fatalf("state after Shutdown = %q, want %q", got, types.MonitorStopped)
	}
	if !c.config.WasMonitoring() {
		t.Fatal("was_monitoring cleared by Shutdown")
	}
}

func TestStartGuards(t *testing.T) {
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	c := New(cfg, "", journal.New(), newFakeGateway(), clockwork.NewFakeClock())

	if err := c.Start(); !errors.Is(err, ErrNoAudioInput) {
		t.Fatalf("Start() without input = %v, want ErrNoAudioInput", err)
	}

	if err := cfg.SetAudioInput("default"); err != nil {
		t.Fatalf("SetAudioInput() error = %v", err)
	}
	startRunning(c)
	if err := c.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Start() while running = %v, want ErrAlreadyRunning", err)
	}
}

func TestVolumeTargetChangeWhileActive(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	startRunning(c)
	activate(t, c, gw, clock)

	settings, err := c.ApplySettings(types.MonitoringUpdate{TargetVolumePercent: intPtr(60)})
	if err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if settings.TargetVolumePercent != 60 {
		t.Fatalf("applied target = %d, want 60", settings.TargetVolumePercent)
	}

	if call := gw.next(t); call.op != "volume" || call.percent != 60 {
		t.Fatalf("gateway call = %+v, want volume 60", call)
	}

	entries := jl.Entries()
	last := entries[len(entries)-1]
	if last.Type != journal.VolumeChange {
		t.Fatalf("last entry type = %q, want %q", last.Type, journal.VolumeChange)
	}
	if last.Volume == nil || *last.Volume != 60 {
		t.Fatal("volume change entry missing new target")
	}
	if last.Message != "Volume target changed to 60%" {
		t.Fatalf("volume change message = %q", last.Message)
	}
}

func TestVolumeTargetChangeWhileIdleOnlyPersists(t *testing.T) {
	c, gw, _, jl := newTestController(t)
	startRunning(c)

	if _, err := c.ApplySettings(types.MonitoringUpdate{TargetVolumePercent: intPtr(55)}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	if got := c.config.MonitoringSettings().TargetVolumePercent; got != 55 {
		t.Fatalf("persisted target = %d, want 55", got)
	}
	gw.expectNone(t)
	if jl.Len() != 0 {
		t.Fatal("idle settings change should not journal")
	}
}

func TestDisableJournalCarriesClipReference(t *testing.T) {
	c, gw, clock, jl := newTestController(t)

	var uploadedMu sync.Mutex
	uploadedPath := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadedMu.Lock()
		uploadedPath = r.URL.Path
		uploadedMu.Unlock()
		w.Header().Set("ETag", `"1"`)
	}))
	defer srv.Close()

	if err := c.config.SetRecording("studio-1", srv.URL, "clips", "key", "secret"); err != nil {
		t.Fatalf("SetRecording() error = %v", err)
	}
	if _, err := c.config.ApplyMonitoringUpdate(types.MonitoringUpdate{RecordingEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("ApplyMonitoringUpdate() error = %v", err)
	}

	startRunning(c)
	activate(t, c, gw, clock)
	if !c.recorder.Active() {
		t.Fatal("clip recorder not started with the episode")
	}

	// Feed the recorder the PCM a live capture would tee into it.
	c.recorder.WriteAudio(make([]byte, types.SampleRate*types.Channels*2))

	clock.Advance(time.Second)
	c.HandleSample(1, clock.Now())
	clock.Advance(5 * time.Second)
	c.HandleSample(1, clock.Now())
	gw.next(t) // volume forced to 0
	gw.next(t) // power off
	c.transitions.Wait()

	entries := jl.Entries()
	last := entries[len(entries)-1]
	if last.Type != journal.SpeakersDisabled {
		t.Fatalf("last entry type = %q, want %q", last.Type, journal.SpeakersDisabled)
	}
	wantPrefix := "s3://clips/audio-recordings/studio-1/recording-"
	if !strings.HasPrefix(last.RecordingRef, wantPrefix) {
		t.Fatalf("recording ref = %q, want prefix %q", last.RecordingRef, wantPrefix)
	}
	uploadedMu.Lock()
	path := uploadedPath
	uploadedMu.Unlock()
	if !strings.HasPrefix(path, "/clips/audio-recordings/studio-1/recording-") {
		t.Fatalf("upload path = %q", path)
	}
}

func TestRecordingDisabledMidEpisodeDiscardsClip(t *testing.T) {
	c, gw, clock, _ := newTestController(t)
	if _, err := c.config.ApplyMonitoringUpdate(types.MonitoringUpdate{RecordingEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("ApplyMonitoringUpdate() error = %v", err)
	}
	startRunning(c)
	activate(t, c, gw, clock)
	if !c.recorder.Active() {
		t.Fatal("clip recorder not started with the episode")
	}

	if _, err := c.ApplySettings(types.MonitoringUpdate{RecordingEnabled: boolPtr(false)}); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if c.recorder.Active() {
		t.Fatal("clip still recording after recording was disabled")
	}
}

func TestLoggingDisabledStillSwitchesSpeakers(t *testing.T) {
	c, gw, clock, jl := newTestController(t)
	if _, err := c.config.ApplyMonitoringUpdate(types.MonitoringUpdate{LoggingEnabled: boolPtr(false)}); err != nil {
		t.Fatalf("ApplyMonitoringUpdate() error = %v", err)
	}
	startRunning(c)
	activate(t, c, gw, clock)

	if jl.Len() != 0 {
		t.Fatalf("journal has %d entries with logging disabled, want 0", jl.Len())
	}
}

func TestStatusReportsEngineState(t *testing.T) {
	c, _, clock, _ := newTestController(t)

	st := c.Status()
	if st.State != types.MonitorStopped || st.Active || st.Controlling {
		t.Fatalf("initial status = %+v", st)
	}
	if st.CaptureMaxRetries != types.MaxCaptureRetries {
		t.Fatalf("max retries = %d, want %d", st.CaptureMaxRetries, types.MaxCaptureRetries)
	}

	startRunning(c)
	c.HandleSample(37, clock.Now())
	clock.Advance(90 * time.Second)

	st = c.Status()
	if st.State != types.MonitorRunning {
		t.Fatalf("state = %q, want %q", st.State, types.MonitorRunning)
	}
	if st.Level != 37 {
		t.Fatalf("status level = %d, want 37", st.Level)
	}
	if st.Uptime != "1m30s" {
		t.Fatalf("uptime = %q, want 1m30s", st.Uptime)
	}
}

func TestLevelsTrackGateRuns(t *testing.T) {
	c, _, clock, _ := newTestController(t)

	if got := c.Levels(); got != (types.LevelUpdate{}) {
		t.Fatalf("levels while stopped = %+v, want zero value", got)
	}

	startRunning(c)
	c.HandleSample(37, clock.Now())
	clock.Advance(250 * time.Millisecond)
	c.HandleSample(37, clock.Now())

	got := c.Levels()
	if got.Level != 37 || got.Threshold != 5 {
		t.Fatalf("levels = %+v", got)
	}
	if got.ActivityMs != 250 {
		t.Fatalf("activity run = %dms, want 250", got.ActivityMs)
	}
	if got.Active {
		t.Fatal("active before sustain elapsed")
	}
}

func TestResumeSkipsWhenNotPreviouslyMonitoring(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.Resume()
	if got := c.State(); got != types.MonitorStopped {
		t.Fatalf("state after no-op resume = %q, want %q", got, types.MonitorStopped)
	}
}
