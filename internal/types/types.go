// Package types provides shared type definitions used across the controller.
package types

import (
	"time"
)

// MonitorState represents the current state of the monitoring loop.
type MonitorState string

const (
	// MonitorStopped indicates monitoring is not running.
	MonitorStopped MonitorState = "stopped"
	// MonitorStarting indicates the capture pipeline is initializing.
	MonitorStarting MonitorState = "starting"
	// MonitorRunning indicates samples are being evaluated.
	MonitorRunning MonitorState = "running"
	// MonitorStopping indicates monitoring is shutting down.
	MonitorStopping MonitorState = "stopping"
)

const (
	// InitialRetryDelay is the starting delay between capture retry attempts.
	InitialRetryDelay = 3000 * time.Millisecond
	// MaxRetryDelay is the maximum delay between capture retry attempts.
	MaxRetryDelay = 60000 * time.Millisecond
	// MaxCaptureRetries is the maximum number of retry attempts for the capture process.
	MaxCaptureRetries = 10
	// SuccessThreshold is the duration after which the retry count resets.
	SuccessThreshold = 30000 * time.Millisecond
)

const (
	// ShutdownTimeout is the duration to wait for graceful process shutdown.
	ShutdownTimeout = 3000 * time.Millisecond
	// PollInterval is the interval for polling process state.
	PollInterval = 50 * time.Millisecond
	// ResumeGraceDelay is how long after startup a previously running
	// monitoring session waits before resuming.
	ResumeGraceDelay = 2500 * time.Millisecond
)

// Audio format constants for PCM capture.
const (
	// SampleRate is the audio sample rate in Hz.
	SampleRate = 48000
	// Channels is the number of audio channels (stereo).
	Channels = 2
	// MeterRate is the level meter cadence in ticks per second.
	MeterRate = 60
)

// SpeakerEndpoint is a single addressable amplifier behind the device gateway.
type SpeakerEndpoint struct {
	Address    string `json:"address"`     // Device address as known to the gateway
	Credential string `json:"credential"`  // Device credential
	AuthMethod string `json:"auth_method"` // Authentication scheme (e.g. basic)
}

// SpeakerGroup is a named set of speaker endpoints switched as one unit.
type SpeakerGroup struct {
	ID        string            `json:"id"`         // Unique identifier
	Name      string            `json:"name"`       // Display name
	Enabled   bool              `json:"enabled"`    // Whether the group participates in activations
	Devices   []SpeakerEndpoint `json:"devices"`    // Amplifier endpoints in this group
	CreatedAt int64             `json:"created_at"` // Unix timestamp of creation
}

// IsEnabled reports whether the group is enabled.
func (g *SpeakerGroup) IsEnabled() bool {
	return g.Enabled
}

// MonitorStatus contains a summary of the controller's current operational state.
type MonitorStatus struct {
	State             MonitorState `json:"state"`                       // Current monitoring state
	Active            bool         `json:"active"`                      // Speakers are powered
	Controlling       bool         `json:"controlling"`                 // A speaker transition is in flight
	Level             int          `json:"level"`                       // Most recent audio level percent
	Uptime            string       `json:"uptime,omitzero"`             // Time since monitoring started
	LastError         string       `json:"last_error,omitzero"`         // Most recent error
	CaptureRetryCount int          `json:"capture_retry_count,omitzero"` // Capture retry attempts
	CaptureMaxRetries int          `json:"capture_max_retries"`         // Max capture retries
}

// LevelUpdate is a single meter reading with gate context for live feeds.
type LevelUpdate struct {
	Level      int   `json:"level"`                 // Audio level percent 0-100
	Threshold  int   `json:"threshold"`             // Configured activity threshold
	Active     bool  `json:"active"`                // Speakers are powered
	ActivityMs int64 `json:"activity_ms,omitzero"`  // Continuous activity run in milliseconds
	SilenceMs  int64 `json:"silence_ms,omitzero"`   // Continuous silence run in milliseconds
}

// MonitoringSettings is the full activation knob set, persisted and
// echoed back in status responses.
type MonitoringSettings struct {
	AudioThresholdPercent int   `json:"audio_threshold_percent"` // Activity threshold 0-50
	SustainDurationMs     int64 `json:"sustain_duration_ms"`     // Required activity run before enabling
	DisableDelayMs        int64 `json:"disable_delay_ms"`        // Required silence run before disabling
	TargetVolumePercent   int   `json:"target_volume_percent"`   // Ramp target volume 0-100
	RampEnabled           bool  `json:"ramp_enabled"`            // Whether ramping is used at all
	RampDurationMs        int64 `json:"ramp_duration_ms"`        // Default ramp duration
	DayNightModeEnabled   bool  `json:"day_night_mode_enabled"`  // Schedule-dependent ramp duration
	DayStartHour          int   `json:"day_start_hour"`          // Daytime window start (0-23)
	DayEndHour            int   `json:"day_end_hour"`            // Daytime window end (0-23, exclusive)
	NightRampDurationMs   int64 `json:"night_ramp_duration_ms"`  // Ramp duration outside the daytime window
	LoggingEnabled        bool  `json:"logging_enabled"`         // Activity journal appends enabled
	RecordingEnabled      bool  `json:"recording_enabled"`       // Evidence clip capture enabled
}

// MonitoringUpdate is a partial settings change. Nil fields are left
// untouched so clients can update a single knob.
type MonitoringUpdate struct {
	AudioThresholdPercent *int   `json:"audio_threshold_percent,omitempty"`
	SustainDurationMs     *int64 `json:"sustain_duration_ms,omitempty"`
	DisableDelayMs        *int64 `json:"disable_delay_ms,omitempty"`
	TargetVolumePercent   *int   `json:"target_volume_percent,omitempty"`
	RampEnabled           *bool  `json:"ramp_enabled,omitempty"`
	RampDurationMs        *int64 `json:"ramp_duration_ms,omitempty"`
	DayNightModeEnabled   *bool  `json:"day_night_mode_enabled,omitempty"`
	DayStartHour          *int   `json:"day_start_hour,omitempty"`
	DayEndHour            *int   `json:"day_end_hour,omitempty"`
	NightRampDurationMs   *int64 `json:"night_ramp_duration_ms,omitempty"`
	LoggingEnabled        *bool  `json:"logging_enabled,omitempty"`
	RecordingEnabled      *bool  `json:"recording_enabled,omitempty"`
}

// AudioDevice represents an available audio input device.
type AudioDevice struct {
	ID   string `json:"id"`   // Device identifier
	Name string `json:"name"` // Device display name
}

// WSStatusResponse is sent to clients with full controller and settings state.
type WSStatusResponse struct {
	Type              string             `json:"type"`                // Message type identifier
	CaptureAvailable  bool               `json:"capture_available"`   // A capture backend is available
	Monitor           MonitorStatus      `json:"monitor"`             // Controller runtime status
	Monitoring        MonitoringSettings `json:"monitoring"`          // Activation settings
	Groups            []SpeakerGroup     `json:"groups"`              // Configured speaker groups
	Devices           []AudioDevice      `json:"devices"`             // Available audio devices
	GatewayBaseURL    string             `json:"gateway_base_url"`    // Device gateway base URL
	GatewayTimeoutMs  int64              `json:"gateway_timeout_ms"`  // Device gateway request timeout
	WebhookURL        string             `json:"webhook_url"`         // Webhook URL for alerts
	GraphTenantID     string             `json:"graph_tenant_id"`     // Azure AD tenant ID
	GraphClientID     string             `json:"graph_client_id"`     // App registration client ID
	GraphFromAddress  string             `json:"graph_from_address"`  // Shared mailbox address
	GraphRecipients   string             `json:"graph_recipients"`    // Comma-separated recipients
	GraphSecretExpiry SecretExpiryInfo   `json:"graph_secret_expiry"` // Client secret expiration info
	RecordingOwnerID  string             `json:"recording_owner_id"`  // Clip storage owner identifier
	S3Configured      bool               `json:"s3_configured"`       // Blob store credentials present
	LogCount          int                `json:"log_count"`           // Entries currently in the activity journal
	Settings          WSSettings         `json:"settings"`            // Current system settings
	Version           VersionInfo        `json:"version"`             // Version information
}

// WSSettings contains the settings sub-object in status responses.
type WSSettings struct {
	AudioInput string `json:"audio_input"` // Selected audio input device
	Platform   string `json:"platform"`    // Operating system platform
}

// WSLevelsResponse is sent to clients with audio level updates.
type WSLevelsResponse struct {
	Type   string      `json:"type"`   // Message type identifier
	Levels LevelUpdate `json:"levels"` // Current level reading
}

// WSTestResult is sent to clients after a test operation completes.
type WSTestResult struct {
	Type     string `json:"type"`            // Message type identifier
	TestType string `json:"test_type"`       // Type of test performed
	Success  bool   `json:"success"`         // Test succeeded
	Error    string `json:"error,omitempty"` // Error message if failed
}

// GraphConfig contains Microsoft Graph API settings for email notifications.
type GraphConfig struct {
	TenantID     string `json:"tenant_id,omitempty"`     // Azure AD tenant ID
	ClientID     string `json:"client_id,omitempty"`     // App registration client ID
	ClientSecret string `json:"client_secret,omitempty"` // App registration client secret
	FromAddress  string `json:"from_address,omitempty"`  // Shared mailbox address (sender)
	Recipients   string `json:"recipients,omitempty"`    // Comma-separated recipients
}

// SecretExpiryInfo contains client secret expiration data.
type SecretExpiryInfo struct {
	ExpiresAt   string `json:"expires_at,omitempty"`   // RFC3339 expiration timestamp
	ExpiresSoon bool   `json:"expires_soon,omitempty"` // True if expires within 30 days
	DaysLeft    int    `json:"days_left,omitempty"`    // Days until expiration
	Error       string `json:"error,omitempty"`        // Error message if check failed
}

// VersionInfo contains version comparison data.
type VersionInfo struct {
	Current     string `json:"current"`              // Current version
	Latest      string `json:"latest,omitempty"`     // Latest available version
	UpdateAvail bool   `json:"update_available"`     // Update is available
	Commit      string `json:"commit,omitempty"`     // Git commit hash
	BuildTime   string `json:"build_time,omitempty"` // Build timestamp
}
