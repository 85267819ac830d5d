package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

func tempConfig(t *testing.T) (*Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := New(path)
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg, path
}

func writeConfig(t *testing.T, content string) (*Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := New(path)
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg, path
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	cfg, path := tempConfig(t)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	m := cfg.MonitoringSettings()
	if m.AudioThresholdPercent != DefaultThresholdPercent {
		t.Errorf("threshold = %d, want %d", m.AudioThresholdPercent, DefaultThresholdPercent)
	}
	if m.SustainDurationMs != DefaultSustainDurationMs {
		t.Errorf("sustain = %d, want %d", m.SustainDurationMs, DefaultSustainDurationMs)
	}
	if !m.RampEnabled || !m.LoggingEnabled || !m.RecordingEnabled {
		t.Error("ramp, logging and recording should default to enabled")
	}
	if cfg.WebPort() != DefaultWebPort {
		t.Errorf("port = %d, want %d", cfg.WebPort(), DefaultWebPort)
	}
	if cfg.StationName() != DefaultStationName {
		t.Errorf("station name = %q", cfg.StationName())
	}
}

func TestLoadKeepsInRangeValues(t *testing.T) {
	// Zero is a legal value for threshold and the duration knobs; it must
	// survive a reload rather than being mistaken for "unset".
	cfg, _ := writeConfig(t, `{
		"monitoring": {
			"audio_threshold_percent": 0,
			"sustain_duration_ms": 0,
			"disable_delay_ms": 120000,
			"target_volume_percent": 55
		}
	}`)

	m := cfg.MonitoringSettings()
	if m.AudioThresholdPercent != 0 {
		t.Errorf("threshold = %d, want 0", m.AudioThresholdPercent)
	}
	if m.SustainDurationMs != 0 {
		t.Errorf("sustain = %d, want 0", m.SustainDurationMs)
	}
	if m.DisableDelayMs != 120000 {
		t.Errorf("disable delay = %d, want 120000", m.DisableDelayMs)
	}
	if m.TargetVolumePercent != 55 {
		t.Errorf("target volume = %d, want 55", m.TargetVolumePercent)
	}
}

func TestLoadReplacesOutOfRangeValues(t *testing.T) {
	cfg, _ := writeConfig(t, `{
		"monitoring": {
			"audio_threshold_percent": 75,
			"sustain_duration_ms": -5,
			"day_start_hour": 99,
			"target_volume_percent": 40
		}
	}`)

	m := cfg.MonitoringSettings()
	if m.AudioThresholdPercent != DefaultThresholdPercent {
		t.Errorf("threshold = %d, want default %d", m.AudioThresholdPercent, DefaultThresholdPercent)
	}
	if m.SustainDurationMs != DefaultSustainDurationMs {
		t.Errorf("sustain = %d, want default %d", m.SustainDurationMs, DefaultSustainDurationMs)
	}
	if m.DayStartHour != DefaultDayStartHour {
		t.Errorf("day start = %d, want default %d", m.DayStartHour, DefaultDayStartHour)
	}
	// In-range siblings are untouched.
	if m.TargetVolumePercent != 40 {
		t.Errorf("target volume = %d, want 40", m.TargetVolumePercent)
	}
}

func TestLoadUnparseableFileUsesDefaults(t *testing.T) {
	cfg, path := writeConfig(t, `{not valid json`)

	if got := cfg.MonitoringSettings().AudioThresholdPercent; got != DefaultThresholdPercent {
		t.Errorf("threshold = %d, want default", got)
	}
	// The broken file is left in place for the operator to fix.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != `{not valid json` {
		t.Error("broken config file was overwritten")
	}
}

func TestAbsentFieldsKeepDefaults(t *testing.T) {
	cfg, _ := writeConfig(t, `{"monitoring": {"audio_threshold_percent": 12}}`)

	m := cfg.MonitoringSettings()
	if m.AudioThresholdPercent != 12 {
		t.Errorf("threshold = %d, want 12", m.AudioThresholdPercent)
	}
	if !m.RampEnabled {
		t.Error("absent ramp_enabled should keep its enabled default")
	}
	if m.DisableDelayMs != DefaultDisableDelayMs {
		t.Errorf("disable delay = %d, want default", m.DisableDelayMs)
	}
}

func TestExplicitFalseBooleansRespected(t *testing.T) {
	cfg, _ := writeConfig(t, `{"monitoring": {"ramp_enabled": false, "logging_enabled": false}}`)

	m := cfg.MonitoringSettings()
	if m.RampEnabled {
		t.Error("ramp_enabled=false was overridden")
	}
	if m.LoggingEnabled {
		t.Error("logging_enabled=false was overridden")
	}
}

func TestGroupCRUD(t *testing.T) {
	cfg, path := tempConfig(t)

	group := &types.SpeakerGroup{
		Name:    "Hall",
		Devices: []types.SpeakerEndpoint{{Address: "192.168.1.40", Credential: "pw", AuthMethod: "basic"}},
	}
	if err := cfg.AddGroup(group); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if !strings.HasPrefix(group.ID, "group-") || len(group.ID) != len("group-")+8 {
		t.Errorf("group ID = %q, want group-<8 hex chars>", group.ID)
	}
	if !group.Enabled {
		t.Error("new group should be enabled")
	}
	if group.CreatedAt == 0 {
		t.Error("created_at not set")
	}

	group.Name = "Main Hall"
	if err := cfg.UpdateGroup(group); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}

	// Groups survive a reload from disk.
	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Group(group.ID)
	if got == nil || got.Name != "Main Hall" {
		t.Fatalf("reloaded group = %+v, want Main Hall", got)
	}

	if err := cfg.RemoveGroup(group.ID); err != nil {
		t.Fatalf("RemoveGroup: %v", err)
	}
	if cfg.Group(group.ID) != nil {
		t.Error("group still present after removal")
	}
	if err := cfg.RemoveGroup("group-missing"); err == nil {
		t.Error("removing unknown group should fail")
	}
}

func TestEnabledSpeakers(t *testing.T) {
	cfg, _ := tempConfig(t)

	hall := &types.SpeakerGroup{Name: "Hall", Devices: []types.SpeakerEndpoint{
		{Address: "192.168.1.40"},
		{Address: "192.168.1.41"},
	}}
	canteen := &types.SpeakerGroup{Name: "Canteen", Devices: []types.SpeakerEndpoint{
		{Address: "192.168.1.41"}, // shared with Hall
		{Address: "192.168.1.42"},
	}}
	yard := &types.SpeakerGroup{Name: "Yard", Devices: []types.SpeakerEndpoint{
		{Address: "192.168.1.50"},
	}}
	for _, g := range []*types.SpeakerGroup{hall, canteen, yard} {
		if err := cfg.AddGroup(g); err != nil {
			t.Fatalf("AddGroup: %v", err)
		}
	}
	yard.Enabled = false
	if err := cfg.UpdateGroup(yard); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}

	speakers := cfg.EnabledSpeakers()
	if len(speakers) != 3 {
		t.Fatalf("got %d speakers, want 3 (deduplicated, disabled group excluded)", len(speakers))
	}
	want := []string{"192.168.1.40", "192.168.1.41", "192.168.1.42"}
	for i, sp := range speakers {
		if sp.Address != want[i] {
			t.Errorf("speaker %d = %s, want %s", i, sp.Address, want[i])
		}
	}

	names := cfg.EnabledGroupNames()
	if len(names) != 2 || names[0] != "Hall" || names[1] != "Canteen" {
		t.Errorf("enabled group names = %v", names)
	}
}

func TestApplyMonitoringUpdate(t *testing.T) {
	cfg, path := tempConfig(t)

	threshold := 20
	rampEnabled := false
	settings, err := cfg.ApplyMonitoringUpdate(types.MonitoringUpdate{
		AudioThresholdPercent: &threshold,
		RampEnabled:           &rampEnabled,
	})
	if err != nil {
		t.Fatalf("ApplyMonitoringUpdate: %v", err)
	}
	if settings.AudioThresholdPercent != 20 || settings.RampEnabled {
		t.Errorf("settings = %+v", settings)
	}
	// Untouched fields keep their values.
	if settings.SustainDurationMs != DefaultSustainDurationMs {
		t.Errorf("sustain = %d, want untouched default", settings.SustainDurationMs)
	}

	// Out-of-range values in an update fall back to the default.
	badThreshold := 90
	settings, err = cfg.ApplyMonitoringUpdate(types.MonitoringUpdate{AudioThresholdPercent: &badThreshold})
	if err != nil {
		t.Fatalf("ApplyMonitoringUpdate: %v", err)
	}
	if settings.AudioThresholdPercent != DefaultThresholdPercent {
		t.Errorf("threshold = %d, want default", settings.AudioThresholdPercent)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MonitoringSettings().RampEnabled {
		t.Error("ramp_enabled=false not persisted")
	}
}

func TestSetWasMonitoringPersists(t *testing.T) {
	cfg, path := tempConfig(t)

	if err := cfg.SetWasMonitoring(true); err != nil {
		t.Fatalf("SetWasMonitoring: %v", err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.WasMonitoring() {
		t.Error("was_monitoring not persisted")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}
	other, _ := GenerateAPIKey()
	if key == other {
		t.Error("two generated keys are identical")
	}
}
