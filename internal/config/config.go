// Package config provides application configuration management.
package config

import (
	"cmp"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/types"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// Configuration defaults are used when values are not specified or when a
// persisted value is out of range.
const (
	DefaultWebPort             = 8080
	DefaultStationName         = "ZuidWest FM"
	DefaultThresholdPercent    = 5
	DefaultSustainDurationMs   = 1000
	DefaultDisableDelayMs      = 30000 // 30 seconds of silence before disabling
	DefaultTargetVolumePercent = 70
	DefaultRampDurationMs      = 10000
	DefaultDayStartHour        = 8
	DefaultDayEndHour          = 20
	DefaultNightRampDurationMs = 30000
	DefaultGatewayTimeoutMs    = 10000
)

// Upper bounds for monitoring values. Persisted values outside the valid
// range fall back to the default rather than failing the load.
const (
	MaxThresholdPercent  = 50
	MaxSustainDurationMs = 60000
	MaxDisableDelayMs    = 600000
	MaxRampDurationMs    = 600000
)

// Station name: any printable characters except control chars (blocks CRLF injection in emails)
var stationNamePattern = regexp.MustCompile(`^[^\x00-\x1F\x7F]+$`)

// SystemConfig holds system-level settings that require restart.
type SystemConfig struct {
	FFmpegPath string `json:"ffmpeg_path"` // Path to FFmpeg binary (empty = use PATH)
	Port       int    `json:"port"`        // HTTP server port
	APIKey     string `json:"api_key"`     // Optional API key for REST endpoints
}

// StationConfig holds station identity settings.
type StationConfig struct {
	Name string `json:"name"` // Station display name, used in notifications
}

// AudioConfig holds audio input device settings.
type AudioConfig struct {
	Input string `json:"input"` // Audio input device identifier
}

// MonitoringConfig holds the activation state machine parameters.
type MonitoringConfig struct {
	AudioThresholdPercent int   `json:"audio_threshold_percent"` // Activity threshold (0-50)
	SustainDurationMs     int64 `json:"sustain_duration_ms"`     // Activity run required before enabling
	DisableDelayMs        int64 `json:"disable_delay_ms"`        // Silence run required before disabling
	TargetVolumePercent   int   `json:"target_volume_percent"`   // Ramp target volume (0-100)
	RampEnabled           bool  `json:"ramp_enabled"`            // Gradual volume increase enabled
	RampDurationMs        int64 `json:"ramp_duration_ms"`        // Manual ramp duration
	DayNightModeEnabled   bool  `json:"day_night_mode_enabled"`  // Schedule-dependent ramp duration
	DayStartHour          int   `json:"day_start_hour"`          // Daytime window start (0-23)
	DayEndHour            int   `json:"day_end_hour"`            // Daytime window end (0-23, exclusive)
	NightRampDurationMs   int64 `json:"night_ramp_duration_ms"`  // Ramp duration outside the daytime window
	LoggingEnabled        bool  `json:"logging_enabled"`         // Activity journal appends enabled
	RecordingEnabled      bool  `json:"recording_enabled"`       // Evidence clip capture enabled
	WasMonitoring         bool  `json:"was_monitoring"`          // Monitoring was running at last shutdown
}

// GatewayConfig holds device gateway connection settings.
type GatewayConfig struct {
	BaseURL   string `json:"base_url"`   // Device gateway base URL
	TimeoutMs int64  `json:"timeout_ms"` // Per-request timeout
}

// SpeakersConfig holds the configured speaker groups.
type SpeakersConfig struct {
	Groups []types.SpeakerGroup `json:"groups"` // Speaker groups switched on activation
}

// RecordingConfig holds evidence clip storage settings.
type RecordingConfig struct {
	OwnerID           string `json:"owner_id"`             // Storage path owner segment
	S3Endpoint        string `json:"s3_endpoint"`          // Custom S3 endpoint (empty for AWS)
	S3Bucket          string `json:"s3_bucket"`            // S3 bucket name
	S3AccessKeyID     string `json:"s3_access_key_id"`     // AWS access key ID
	S3SecretAccessKey string `json:"s3_secret_access_key"` // AWS secret access key
}

// WebhookConfig holds webhook notification settings.
type WebhookConfig struct {
	URL string `json:"url"` // Webhook URL for activation alerts
}

// EmailConfig holds Microsoft Graph email notification settings.
type EmailConfig struct {
	TenantID     string `json:"tenant_id"`     // Azure AD tenant ID
	ClientID     string `json:"client_id"`     // App registration client ID
	ClientSecret string `json:"client_secret"` // App registration client secret
	FromAddress  string `json:"from_address"`  // Shared mailbox sender address
	Recipients   string `json:"recipients"`    // Comma-separated recipient addresses
}

// NotificationsConfig holds all notification channel settings.
type NotificationsConfig struct {
	Webhook WebhookConfig `json:"webhook"` // Webhook settings
	Email   EmailConfig   `json:"email"`   // Email settings
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System        SystemConfig        `json:"system"`
	Station       StationConfig       `json:"station"`
	Audio         AudioConfig         `json:"audio"`
	Monitoring    MonitoringConfig    `json:"monitoring"`
	Gateway       GatewayConfig       `json:"gateway"`
	Speakers      SpeakersConfig      `json:"speakers"`
	Recording     RecordingConfig     `json:"recording"`
	Notifications NotificationsConfig `json:"notifications"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	c := &Config{filePath: filePath}
	c.setDefaults()
	return c
}

// setDefaults resets every section to its compiled-in default.
func (c *Config) setDefaults() {
	c.System = SystemConfig{Port: DefaultWebPort}
	c.Station = StationConfig{Name: DefaultStationName}
	c.Audio = AudioConfig{}
	c.Monitoring = MonitoringConfig{
		AudioThresholdPercent: DefaultThresholdPercent,
		SustainDurationMs:     DefaultSustainDurationMs,
		DisableDelayMs:        DefaultDisableDelayMs,
		TargetVolumePercent:   DefaultTargetVolumePercent,
		RampEnabled:           true,
		RampDurationMs:        DefaultRampDurationMs,
		DayStartHour:          DefaultDayStartHour,
		DayEndHour:            DefaultDayEndHour,
		NightRampDurationMs:   DefaultNightRampDurationMs,
		LoggingEnabled:        true,
		RecordingEnabled:      true,
	}
	c.Gateway = GatewayConfig{TimeoutMs: DefaultGatewayTimeoutMs}
	c.Speakers = SpeakersConfig{Groups: []types.SpeakerGroup{}}
	c.Recording = RecordingConfig{}
	c.Notifications = NotificationsConfig{}
}

// Load reads config from file, creating a default if none exists. A file
// that fails to parse is left on disk untouched and the compiled-in
// defaults are used instead, so a broken edit never prevents startup.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.saveLocked()
	}
	if err != nil {
		return util.WrapError("read config", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		slog.Warn("config file is not valid JSON, using defaults", "path", c.filePath, "error", err)
		c.setDefaults()
		return nil
	}

	c.sanitizeLocked()
	return nil
}

// sanitizeLocked replaces out-of-range values with their defaults. Caller
// must hold c.mu.
func (c *Config) sanitizeLocked() {
	m := &c.Monitoring
	sanitizeRange("monitoring.audio_threshold_percent", &m.AudioThresholdPercent, 0, MaxThresholdPercent, DefaultThresholdPercent)
	sanitizeRange("monitoring.sustain_duration_ms", &m.SustainDurationMs, 0, MaxSustainDurationMs, DefaultSustainDurationMs)
	sanitizeRange("monitoring.disable_delay_ms", &m.DisableDelayMs, 0, MaxDisableDelayMs, DefaultDisableDelayMs)
	sanitizeRange("monitoring.target_volume_percent", &m.TargetVolumePercent, 0, 100, DefaultTargetVolumePercent)
	sanitizeRange("monitoring.ramp_duration_ms", &m.RampDurationMs, 0, MaxRampDurationMs, DefaultRampDurationMs)
	sanitizeRange("monitoring.day_start_hour", &m.DayStartHour, 0, 23, DefaultDayStartHour)
	sanitizeRange("monitoring.day_end_hour", &m.DayEndHour, 0, 23, DefaultDayEndHour)
	sanitizeRange("monitoring.night_ramp_duration_ms", &m.NightRampDurationMs, 0, MaxRampDurationMs, DefaultNightRampDurationMs)
	sanitizeRange("system.port", &c.System.Port, 1, 65535, DefaultWebPort)
	sanitizeRange("gateway.timeout_ms", &c.Gateway.TimeoutMs, 1, 120000, DefaultGatewayTimeoutMs)

	name := c.Station.Name
	if name == "" || len(name) > 30 || !stationNamePattern.MatchString(name) {
		slog.Warn("invalid station name, using default", "name", name)
		c.Station.Name = DefaultStationName
	}

	if c.Speakers.Groups == nil {
		c.Speakers.Groups = []types.SpeakerGroup{}
	}
	for i := range c.Speakers.Groups {
		if c.Speakers.Groups[i].CreatedAt == 0 {
			c.Speakers.Groups[i].CreatedAt = time.Now().UnixMilli()
		}
		if c.Speakers.Groups[i].Devices == nil {
			c.Speakers.Groups[i].Devices = []types.SpeakerEndpoint{}
		}
	}
}

// sanitizeRange resets *v to def when it falls outside [min, max].
func sanitizeRange[T cmp.Ordered](key string, v *T, min, max, def T) {
	if *v < min || *v > max {
		slog.Warn("config value out of range, using default", "key", key, "value", *v, "default", def)
		*v = def
	}
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Speaker group management ---

// Groups returns a copy of all speaker groups.
func (c *Config) Groups() []types.SpeakerGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.Speakers.Groups)
}

// Group returns a copy of the group with the given ID, or nil if not found.
func (c *Config) Group(id string) *types.SpeakerGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, g := range c.Speakers.Groups {
		if g.ID == id {
			group := g
			return &group
		}
	}
	return nil
}

// findGroupIndex returns the index of the group with the given ID, or -1 if not found.
func (c *Config) findGroupIndex(id string) int {
	for i, g := range c.Speakers.Groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// AddGroup adds a new speaker group and saves the configuration.
func (c *Config) AddGroup(group *types.SpeakerGroup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	shortID, err := generateShortID()
	if err != nil {
		return fmt.Errorf("failed to generate ID: %w", err)
	}
	group.ID = fmt.Sprintf("group-%s", shortID)

	// New groups participate in activations by default
	group.Enabled = true
	group.CreatedAt = time.Now().UnixMilli()
	if group.Devices == nil {
		group.Devices = []types.SpeakerEndpoint{}
	}

	c.Speakers.Groups = append(c.Speakers.Groups, *group)
	return c.saveLocked()
}

// RemoveGroup removes a speaker group by ID and saves the configuration.
func (c *Config) RemoveGroup(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findGroupIndex(id)
	if i == -1 {
		return fmt.Errorf("group not found: %s", id)
	}

	c.Speakers.Groups = append(c.Speakers.Groups[:i], c.Speakers.Groups[i+1:]...)
	return c.saveLocked()
}

// UpdateGroup updates an existing speaker group and saves the configuration.
func (c *Config) UpdateGroup(group *types.SpeakerGroup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findGroupIndex(group.ID)
	if i == -1 {
		return fmt.Errorf("group not found: %s", group.ID)
	}

	c.Speakers.Groups[i] = *group
	return c.saveLocked()
}

// EnabledSpeakers returns the union of devices across all enabled groups,
// deduplicated by address in group order.
func (c *Config) EnabledSpeakers() []types.SpeakerEndpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var speakers []types.SpeakerEndpoint
	for _, g := range c.Speakers.Groups {
		if !g.Enabled {
			continue
		}
		for _, d := range g.Devices {
			if seen[d.Address] {
				continue
			}
			seen[d.Address] = true
			speakers = append(speakers, d)
		}
	}
	return speakers
}

// EnabledGroupNames returns the names of all enabled groups.
func (c *Config) EnabledGroupNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for _, g := range c.Speakers.Groups {
		if g.Enabled {
			names = append(names, g.Name)
		}
	}
	return names
}

// --- Getters for individual settings ---

// AudioInput returns the configured audio input device.
func (c *Config) AudioInput() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Audio.Input
}

// GetFFmpegPath returns the configured FFmpeg binary path.
func (c *Config) GetFFmpegPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.FFmpegPath
}

// WebPort returns the HTTP server port.
func (c *Config) WebPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.Port
}

// APIKey returns the API key protecting the REST endpoints, if set.
func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.APIKey
}

// StationName returns the configured station display name.
func (c *Config) StationName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Station.Name
}

// MonitoringSettings returns a copy of the current activation settings.
func (c *Config) MonitoringSettings() types.MonitoringSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.monitoringSettingsLocked()
}

func (c *Config) monitoringSettingsLocked() types.MonitoringSettings {
	m := c.Monitoring
	return types.MonitoringSettings{
		AudioThresholdPercent: m.AudioThresholdPercent,
		SustainDurationMs:     m.SustainDurationMs,
		DisableDelayMs:        m.DisableDelayMs,
		TargetVolumePercent:   m.TargetVolumePercent,
		RampEnabled:           m.RampEnabled,
		RampDurationMs:        m.RampDurationMs,
		DayNightModeEnabled:   m.DayNightModeEnabled,
		DayStartHour:          m.DayStartHour,
		DayEndHour:            m.DayEndHour,
		NightRampDurationMs:   m.NightRampDurationMs,
		LoggingEnabled:        m.LoggingEnabled,
		RecordingEnabled:      m.RecordingEnabled,
	}
}

// WasMonitoring reports whether monitoring was running at last shutdown.
func (c *Config) WasMonitoring() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Monitoring.WasMonitoring
}

// GatewayBaseURL returns the device gateway base URL.
func (c *Config) GatewayBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Gateway.BaseURL
}

// GatewayTimeout returns the per-request device gateway timeout.
func (c *Config) GatewayTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Gateway.TimeoutMs) * time.Millisecond
}

// GraphConfig returns a copy of the current Graph/Email configuration.
func (c *Config) GraphConfig() types.GraphConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.GraphConfig{
		TenantID:     c.Notifications.Email.TenantID,
		ClientID:     c.Notifications.Email.ClientID,
		ClientSecret: c.Notifications.Email.ClientSecret,
		FromAddress:  c.Notifications.Email.FromAddress,
		Recipients:   c.Notifications.Email.Recipients,
	}
}

// WebhookURL returns the configured webhook URL.
func (c *Config) WebhookURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Notifications.Webhook.URL
}

// RecordingOwnerID returns the owner segment used in clip storage paths.
func (c *Config) RecordingOwnerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Recording.OwnerID
}

// --- Setters for individual settings ---

// SetAudioInput updates the audio input device and saves the configuration.
func (c *Config) SetAudioInput(input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Audio.Input = input
	return c.saveLocked()
}

// SetStationName updates the station display name and saves the configuration.
func (c *Config) SetStationName(name string) error {
	if name == "" || len(name) > 30 || !stationNamePattern.MatchString(name) {
		return fmt.Errorf("invalid station name %q: must be 1-30 printable characters", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Station.Name = name
	return c.saveLocked()
}

// SetAPIKey updates the API key and saves the configuration.
func (c *Config) SetAPIKey(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.System.APIKey = key
	return c.saveLocked()
}

// SetGateway updates the device gateway settings and saves the configuration.
func (c *Config) SetGateway(baseURL string, timeoutMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gateway.BaseURL = baseURL
	if timeoutMs > 0 {
		c.Gateway.TimeoutMs = timeoutMs
	}
	return c.saveLocked()
}

// ApplyMonitoringUpdate applies the non-nil fields of a partial settings
// update, replaces out-of-range values with defaults, and saves. The
// resulting settings are returned.
func (c *Config) ApplyMonitoringUpdate(u types.MonitoringUpdate) (types.MonitoringSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &c.Monitoring
	if u.AudioThresholdPercent != nil {
		m.AudioThresholdPercent = *u.AudioThresholdPercent
	}
	if u.SustainDurationMs != nil {
		m.SustainDurationMs = *u.SustainDurationMs
	}
	if u.DisableDelayMs != nil {
		m.DisableDelayMs = *u.DisableDelayMs
	}
	if u.TargetVolumePercent != nil {
		m.TargetVolumePercent = *u.TargetVolumePercent
	}
	if u.RampEnabled != nil {
		m.RampEnabled = *u.RampEnabled
	}
	if u.RampDurationMs != nil {
		m.RampDurationMs = *u.RampDurationMs
	}
	if u.DayNightModeEnabled != nil {
		m.DayNightModeEnabled = *u.DayNightModeEnabled
	}
	if u.DayStartHour != nil {
		m.DayStartHour = *u.DayStartHour
	}
	if u.DayEndHour != nil {
		m.DayEndHour = *u.DayEndHour
	}
	if u.NightRampDurationMs != nil {
		m.NightRampDurationMs = *u.NightRampDurationMs
	}
	if u.LoggingEnabled != nil {
		m.LoggingEnabled = *u.LoggingEnabled
	}
	if u.RecordingEnabled != nil {
		m.RecordingEnabled = *u.RecordingEnabled
	}

	c.sanitizeLocked()
	if err := c.saveLocked(); err != nil {
		return types.MonitoringSettings{}, err
	}
	return c.monitoringSettingsLocked(), nil
}

// SetWasMonitoring records whether monitoring is running, so it can resume
// after a restart, and saves the configuration.
func (c *Config) SetWasMonitoring(active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Monitoring.WasMonitoring = active
	return c.saveLocked()
}

// SetWebhookURL updates the webhook URL and saves the configuration.
func (c *Config) SetWebhookURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Webhook.URL = url
	return c.saveLocked()
}

// SetGraphConfig updates all Microsoft Graph/Email configuration fields and saves.
func (c *Config) SetGraphConfig(tenantID, clientID, clientSecret, fromAddress, recipients string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Notifications.Email.TenantID = tenantID
	c.Notifications.Email.ClientID = clientID
	c.Notifications.Email.ClientSecret = clientSecret
	c.Notifications.Email.FromAddress = fromAddress
	c.Notifications.Email.Recipients = recipients
	return c.saveLocked()
}

// SetRecording updates the clip storage settings and saves the configuration.
func (c *Config) SetRecording(ownerID, endpoint, bucket, accessKeyID, secretAccessKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Recording.OwnerID = ownerID
	c.Recording.S3Endpoint = endpoint
	c.Recording.S3Bucket = bucket
	c.Recording.S3AccessKeyID = accessKeyID
	c.Recording.S3SecretAccessKey = secretAccessKey
	return c.saveLocked()
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values.
type Snapshot struct {
	// System
	WebPort    int
	APIKey     string
	FFmpegPath string

	// Station
	StationName string

	// Audio
	AudioInput string

	// Monitoring
	Monitoring    types.MonitoringSettings
	WasMonitoring bool

	// Gateway
	GatewayBaseURL   string
	GatewayTimeoutMs int64

	// Notifications
	WebhookURL        string
	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphFromAddress  string
	GraphRecipients   string

	// Recording
	RecordingOwnerID  string
	S3Endpoint        string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Entities
	Groups []types.SpeakerGroup
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		WebPort:    c.System.Port,
		APIKey:     c.System.APIKey,
		FFmpegPath: c.System.FFmpegPath,

		StationName: c.Station.Name,

		AudioInput: c.Audio.Input,

		Monitoring:    c.monitoringSettingsLocked(),
		WasMonitoring: c.Monitoring.WasMonitoring,

		GatewayBaseURL:   c.Gateway.BaseURL,
		GatewayTimeoutMs: c.Gateway.TimeoutMs,

		WebhookURL:        c.Notifications.Webhook.URL,
		GraphTenantID:     c.Notifications.Email.TenantID,
		GraphClientID:     c.Notifications.Email.ClientID,
		GraphClientSecret: c.Notifications.Email.ClientSecret,
		GraphFromAddress:  c.Notifications.Email.FromAddress,
		GraphRecipients:   c.Notifications.Email.Recipients,

		RecordingOwnerID:  c.Recording.OwnerID,
		S3Endpoint:        c.Recording.S3Endpoint,
		S3Bucket:          c.Recording.S3Bucket,
		S3AccessKeyID:     c.Recording.S3AccessKeyID,
		S3SecretAccessKey: c.Recording.S3SecretAccessKey,

		Groups: slices.Clone(c.Speakers.Groups),
	}
}

// HasWebhook reports whether a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasGraph reports whether Microsoft Graph email notifications are configured.
func (s *Snapshot) HasGraph() bool {
	return s.GraphTenantID != "" && s.GraphClientID != "" && s.GraphClientSecret != "" &&
		s.GraphFromAddress != "" && s.GraphRecipients != ""
}

// HasS3 reports whether clip storage credentials are configured.
func (s *Snapshot) HasS3() bool {
	return s.S3Bucket != "" && s.S3AccessKeyID != "" && s.S3SecretAccessKey != ""
}

// --- Utility functions ---

// GenerateAPIKey generates a new random 32-character alphanumeric API key.
func GenerateAPIKey() (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 32
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[n.Int64()]
	}
	return string(result), nil
}

// generateShortID generates a random 8-character hex ID for speaker groups.
func generateShortID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", b), nil
}
