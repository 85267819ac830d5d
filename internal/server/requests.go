package server

// Request types for WebSocket commands with validation tags.
// These types define the expected input for each command and use
// go-playground/validator struct tags for automatic validation.

// --- Audio settings ---

// AudioUpdateRequest is the request body for audio/update.
type AudioUpdateRequest struct {
	Input string `json:"input" validate:"omitempty,max=256"`
}

// --- Activation settings ---

// MonitoringUpdateRequest is the request body for monitoring/update. All
// fields are optional so a client can change one knob at a time.
type MonitoringUpdateRequest struct {
	AudioThresholdPercent *int   `json:"audio_threshold_percent" validate:"omitempty,gte=0,lte=50"`
	SustainDurationMs     *int64 `json:"sustain_duration_ms" validate:"omitempty,gte=0,lte=60000"`
	DisableDelayMs        *int64 `json:"disable_delay_ms" validate:"omitempty,gte=0,lte=600000"`
	TargetVolumePercent   *int   `json:"target_volume_percent" validate:"omitempty,gte=0,lte=100"`
	RampEnabled           *bool  `json:"ramp_enabled"`
	RampDurationMs        *int64 `json:"ramp_duration_ms" validate:"omitempty,gte=0,lte=600000"`
	DayNightModeEnabled   *bool  `json:"day_night_mode_enabled"`
	DayStartHour          *int   `json:"day_start_hour" validate:"omitempty,gte=0,lte=23"`
	DayEndHour            *int   `json:"day_end_hour" validate:"omitempty,gte=0,lte=23"`
	NightRampDurationMs   *int64 `json:"night_ramp_duration_ms" validate:"omitempty,gte=0,lte=600000"`
	LoggingEnabled        *bool  `json:"logging_enabled"`
	RecordingEnabled      *bool  `json:"recording_enabled"`
}

// --- Station settings ---

// StationUpdateRequest is the request body for station/update.
type StationUpdateRequest struct {
	Name string `json:"name" validate:"required,max=30"`
}

// --- Device gateway ---

// GatewayUpdateRequest is the request body for gateway/update.
type GatewayUpdateRequest struct {
	BaseURL   string `json:"base_url" validate:"omitempty,url,max=2048"`
	TimeoutMs int64  `json:"timeout_ms" validate:"omitempty,gte=1,lte=120000"`
}

// SpeakerTestRequest is the request body for gateway/test. It addresses a
// single speaker endpoint, saved or not.
type SpeakerTestRequest struct {
	Address    string `json:"address" validate:"required,max=253"`
	Credential string `json:"credential" validate:"omitempty,max=500"`
	AuthMethod string `json:"auth_method" validate:"omitempty,oneof=basic digest none"`
}

// --- Speaker groups ---

// SpeakerDeviceRequest is one amplifier endpoint inside a group request.
type SpeakerDeviceRequest struct {
	Address    string `json:"address" validate:"required,max=253"`
	Credential string `json:"credential" validate:"omitempty,max=500"`
	AuthMethod string `json:"auth_method" validate:"omitempty,oneof=basic digest none"`
}

// GroupRequest is the request body for groups/add and groups/update.
type GroupRequest struct {
	Name    string                 `json:"name" validate:"required,max=100"`
	Enabled bool                   `json:"enabled"`
	Devices []SpeakerDeviceRequest `json:"devices" validate:"omitempty,dive"`
}

// --- Notification settings ---

// WebhookUpdateRequest is the request body for notifications/webhook/update.
type WebhookUpdateRequest struct {
	URL string `json:"url" validate:"omitempty,max=2048"`
}

// EmailUpdateRequest is the request body for notifications/email/update.
type EmailUpdateRequest struct {
	TenantID     string `json:"tenant_id" validate:"omitempty,max=100"`
	ClientID     string `json:"client_id" validate:"omitempty,max=100"`
	ClientSecret string `json:"client_secret" validate:"omitempty,max=500"`
	FromAddress  string `json:"from_address" validate:"omitempty,max=254"`
	Recipients   string `json:"recipients" validate:"omitempty,max=1000"`
}

// --- Clip storage ---

// RecordingUpdateRequest is the request body for recording/update.
type RecordingUpdateRequest struct {
	OwnerID           string `json:"owner_id" validate:"omitempty,max=100"`
	S3Endpoint        string `json:"s3_endpoint" validate:"omitempty,max=2048"`
	S3Bucket          string `json:"s3_bucket" validate:"omitempty,max=63"`
	S3AccessKeyID     string `json:"s3_access_key_id" validate:"omitempty,max=128"`
	S3SecretAccessKey string `json:"s3_secret_access_key" validate:"omitempty,max=256"`
}

// S3TestRequest is the request body for recording/test-s3.
type S3TestRequest struct {
	Endpoint  string `json:"s3_endpoint" validate:"omitempty,max=2048"`
	Bucket    string `json:"s3_bucket" validate:"required,max=63"`
	AccessKey string `json:"s3_access_key_id" validate:"required,max=128"`
	SecretKey string `json:"s3_secret_access_key" validate:"required,max=256"`
}
