package types

// WSConfigResponse is sent in response to config/get.
// Contains the full configuration without runtime state.
type WSConfigResponse struct {
	Type   string `json:"type"` // "config"
	Config any    `json:"config"`
}

// WSCommandResult is the standard response for command execution.
// Used by slash-style commands (monitoring/update, groups/add, etc.)
type WSCommandResult struct {
	Type    string           `json:"type"`            // "<command>_result"
	Success bool             `json:"success"`         // true if command succeeded
	Error   *ValidationError `json:"error,omitempty"` // Validation errors if failed
	Data    any              `json:"data,omitempty"`  // Optional response data
}

// APIConfigResponse is the configuration payload served on GET /api/config
// and the WebSocket config/get command. Secret values are reduced to
// presence flags and never leave the server.
type APIConfigResponse struct {
	// Audio
	AudioInput string        `json:"audio_input"`
	Devices    []AudioDevice `json:"devices"`
	Platform   string        `json:"platform"`

	// Station
	StationName string `json:"station_name"`

	// Activation
	Monitoring MonitoringSettings `json:"monitoring"`

	// Device gateway
	GatewayBaseURL   string `json:"gateway_base_url"`
	GatewayTimeoutMs int64  `json:"gateway_timeout_ms"`

	// Notifications
	WebhookURL       string `json:"webhook_url"`
	GraphTenantID    string `json:"graph_tenant_id"`
	GraphClientID    string `json:"graph_client_id"`
	GraphFromAddress string `json:"graph_from_address"`
	GraphRecipients  string `json:"graph_recipients"`
	GraphHasSecret   bool   `json:"graph_has_secret"`

	// Clip storage
	RecordingOwnerID string `json:"recording_owner_id"`
	S3Endpoint       string `json:"s3_endpoint"`
	S3Bucket         string `json:"s3_bucket"`
	S3Configured     bool   `json:"s3_configured"`

	// Entities
	Groups []SpeakerGroup `json:"groups"`
}
