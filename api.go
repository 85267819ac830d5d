package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/audio"
	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/notify"
	"github.com/oszuidwest/zwfm-paging/internal/recorder"
	"github.com/oszuidwest/zwfm-paging/internal/server"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// API response helpers

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// parseJSON reads and parses JSON from request body.
// Returns parsed value and true on success, zero value and false on failure.
func parseJSON[T any](s *Server, w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := s.readJSON(r, &v); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return v, false
	}
	return v, true
}

// coalesce returns the first non-zero value from the provided values.
func coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// handleAPIConfig returns the full configuration for the frontend.
// GET /api/config
func (s *Server) handleAPIConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, server.BuildConfigResponse(s.config))
}

// handleAPIDevices returns available audio devices.
// GET /api/devices
func (s *Server) handleAPIDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"devices": audio.ListDevices(),
	})
}

// handleAPIStatus returns the live controller status.
// GET /api/status
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, s.buildWSStatus())
}

// SettingsUpdateRequest is the request body for POST /api/settings.
type SettingsUpdateRequest struct {
	// Audio
	AudioInput *string `json:"audio_input"`

	// Station
	StationName *string `json:"station_name"`

	// Activation
	AudioThresholdPercent *int   `json:"audio_threshold_percent"`
	SustainDurationMs     *int64 `json:"sustain_duration_ms"`
	DisableDelayMs        *int64 `json:"disable_delay_ms"`
	TargetVolumePercent   *int   `json:"target_volume_percent"`
	RampEnabled           *bool  `json:"ramp_enabled"`
	RampDurationMs        *int64 `json:"ramp_duration_ms"`
	DayNightModeEnabled   *bool  `json:"day_night_mode_enabled"`
	DayStartHour          *int   `json:"day_start_hour"`
	DayEndHour            *int   `json:"day_end_hour"`
	NightRampDurationMs   *int64 `json:"night_ramp_duration_ms"`
	LoggingEnabled        *bool  `json:"logging_enabled"`
	RecordingEnabled      *bool  `json:"recording_enabled"`

	// Device gateway
	GatewayBaseURL   *string `json:"gateway_base_url"`
	GatewayTimeoutMs *int64  `json:"gateway_timeout_ms"`

	// Webhook
	WebhookURL *string `json:"webhook_url"`

	// Email (Graph)
	GraphTenantID     *string `json:"graph_tenant_id"`
	GraphClientID     *string `json:"graph_client_id"`
	GraphClientSecret *string `json:"graph_client_secret"`
	GraphFromAddress  *string `json:"graph_from_address"`
	GraphRecipients   *string `json:"graph_recipients"`

	// Clip storage
	RecordingOwnerID  *string `json:"recording_owner_id"`
	S3Endpoint        *string `json:"s3_endpoint"`
	S3Bucket          *string `json:"s3_bucket"`
	S3AccessKeyID     *string `json:"s3_access_key_id"`
	S3SecretAccessKey *string `json:"s3_secret_access_key"`
}

// handleAPISettings updates all settings atomically.
// POST /api/settings
func (s *Server) handleAPISettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, ok := parseJSON[SettingsUpdateRequest](s, w, r)
	if !ok {
		return
	}

	// Track if audio input changed (requires a capture restart)
	cfg := s.config.Snapshot()
	audioInputChanged := req.AudioInput != nil && *req.AudioInput != cfg.AudioInput

	// Apply all settings in groups
	if err := s.applyAudioSettings(&req); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.applyStationSettings(&req); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.applyMonitoringSettings(&req); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.applyGatewaySettings(&req, &cfg); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.applyNotificationSettings(&req, &cfg); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.applyRecordingSettings(&req, &cfg); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Restart capture if audio input changed
	if audioInputChanged && s.captureAvailable {
		go func() {
			if s.controller.State() == types.MonitorRunning {
				if err := s.controller.Restart(); err != nil {
					slog.Error("failed to restart monitor after audio input change", "error", err)
				}
			}
		}()
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// applyAudioSettings applies audio-related settings from the request.
func (s *Server) applyAudioSettings(req *SettingsUpdateRequest) error {
	if req.AudioInput != nil {
		if err := s.config.SetAudioInput(*req.AudioInput); err != nil {
			return err
		}
	}
	return nil
}

// applyStationSettings applies the station name from the request.
func (s *Server) applyStationSettings(req *SettingsUpdateRequest) error {
	if req.StationName != nil {
		if err := s.config.SetStationName(*req.StationName); err != nil {
			return err
		}
	}
	return nil
}

// applyMonitoringSettings applies activation settings from the request.
// These route through the controller so a running ramp stays consistent
// with a changed target volume.
func (s *Server) applyMonitoringSettings(req *SettingsUpdateRequest) error {
	update := types.MonitoringUpdate{
		AudioThresholdPercent: req.AudioThresholdPercent,
		SustainDurationMs:     req.SustainDurationMs,
		DisableDelayMs:        req.DisableDelayMs,
		TargetVolumePercent:   req.TargetVolumePercent,
		RampEnabled:           req.RampEnabled,
		RampDurationMs:        req.RampDurationMs,
		DayNightModeEnabled:   req.DayNightModeEnabled,
		DayStartHour:          req.DayStartHour,
		DayEndHour:            req.DayEndHour,
		NightRampDurationMs:   req.NightRampDurationMs,
		LoggingEnabled:        req.LoggingEnabled,
		RecordingEnabled:      req.RecordingEnabled,
	}
	if update == (types.MonitoringUpdate{}) {
		return nil
	}

	_, err := s.controller.ApplySettings(update)
	return err
}

// applyGatewaySettings applies device gateway settings from the request.
func (s *Server) applyGatewaySettings(req *SettingsUpdateRequest, cfg *config.Snapshot) error {
	if req.GatewayBaseURL == nil && req.GatewayTimeoutMs == nil {
		return nil
	}

	baseURL := cfg.GatewayBaseURL
	timeoutMs := cfg.GatewayTimeoutMs
	if req.GatewayBaseURL != nil {
		baseURL = *req.GatewayBaseURL
	}
	if req.GatewayTimeoutMs != nil {
		timeoutMs = *req.GatewayTimeoutMs
	}
	return s.config.SetGateway(baseURL, timeoutMs)
}

// applyNotificationSettings applies notification settings from the request.
func (s *Server) applyNotificationSettings(req *SettingsUpdateRequest, cfg *config.Snapshot) error {
	if req.WebhookURL != nil {
		if err := s.config.SetWebhookURL(*req.WebhookURL); err != nil {
			return err
		}
	}

	return s.applyGraphSettings(req, cfg)
}

// applyGraphSettings applies Microsoft Graph email settings.
func (s *Server) applyGraphSettings(req *SettingsUpdateRequest, cfg *config.Snapshot) error {
	if req.GraphTenantID == nil && req.GraphClientID == nil && req.GraphClientSecret == nil &&
		req.GraphFromAddress == nil && req.GraphRecipients == nil {
		return nil
	}

	tenantID := cfg.GraphTenantID
	clientID := cfg.GraphClientID
	clientSecret := cfg.GraphClientSecret
	fromAddr := cfg.GraphFromAddress
	recipients := cfg.GraphRecipients
	if req.GraphTenantID != nil {
		tenantID = *req.GraphTenantID
	}
	if req.GraphClientID != nil {
		clientID = *req.GraphClientID
	}
	if req.GraphClientSecret != nil {
		clientSecret = *req.GraphClientSecret
	}
	if req.GraphFromAddress != nil {
		fromAddr = *req.GraphFromAddress
	}
	if req.GraphRecipients != nil {
		recipients = *req.GraphRecipients
	}
	if err := s.config.SetGraphConfig(tenantID, clientID, clientSecret, fromAddr, recipients); err != nil {
		return err
	}

	s.controller.InvalidateGraphClient()
	return nil
}

// applyRecordingSettings applies clip storage settings from the request.
func (s *Server) applyRecordingSettings(req *SettingsUpdateRequest, cfg *config.Snapshot) error {
	if req.RecordingOwnerID == nil && req.S3Endpoint == nil && req.S3Bucket == nil &&
		req.S3AccessKeyID == nil && req.S3SecretAccessKey == nil {
		return nil
	}

	ownerID := cfg.RecordingOwnerID
	endpoint := cfg.S3Endpoint
	bucket := cfg.S3Bucket
	accessKey := cfg.S3AccessKeyID
	secretKey := cfg.S3SecretAccessKey
	if req.RecordingOwnerID != nil {
		ownerID = *req.RecordingOwnerID
	}
	if req.S3Endpoint != nil {
		endpoint = *req.S3Endpoint
	}
	if req.S3Bucket != nil {
		bucket = *req.S3Bucket
	}
	if req.S3AccessKeyID != nil {
		accessKey = *req.S3AccessKeyID
	}
	if req.S3SecretAccessKey != nil {
		secretKey = *req.S3SecretAccessKey
	}
	return s.config.SetRecording(ownerID, endpoint, bucket, accessKey, secretKey)
}

// handleListGroups returns all speaker groups.
// GET /api/groups
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	cfg := s.config.Snapshot()
	s.writeJSON(w, http.StatusOK, cfg.Groups)
}

// handleCreateGroup creates a new speaker group.
// POST /api/groups
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	s.createGroup(w, r)
}

// handleGetGroup returns a single speaker group by ID.
// GET /api/groups/{id}
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.getGroup(w, id)
}

// handleUpdateGroup updates a speaker group by ID.
// PUT /api/groups/{id}
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.updateGroup(w, r, id)
}

// handleDeleteGroup deletes a speaker group by ID.
// DELETE /api/groups/{id}
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.deleteGroup(w, id)
}

// GroupRequest is the request body for creating/updating speaker groups.
type GroupRequest struct {
	Name    string               `json:"name"`
	Enabled bool                 `json:"enabled"`
	Devices []GroupDeviceRequest `json:"devices"`
}

// GroupDeviceRequest is a single amplifier endpoint within a group request.
type GroupDeviceRequest struct {
	Address    string `json:"address"`
	Credential string `json:"credential"`
	AuthMethod string `json:"auth_method"`
}

// groupEndpoints converts request devices to speaker endpoints.
func groupEndpoints(devices []GroupDeviceRequest) []types.SpeakerEndpoint {
	endpoints := make([]types.SpeakerEndpoint, 0, len(devices))
	for _, d := range devices {
		authMethod := d.AuthMethod
		if authMethod == "" {
			authMethod = "basic"
		}
		endpoints = append(endpoints, types.SpeakerEndpoint{
			Address:    d.Address,
			Credential: d.Credential,
			AuthMethod: authMethod,
		})
	}
	return endpoints
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	req, ok := parseJSON[GroupRequest](s, w, r)
	if !ok {
		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(s.config.Groups()) >= server.MaxGroups {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum of %d groups reached", server.MaxGroups))
		return
	}
	if len(req.Devices) > server.MaxDevicesPerGroup {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum of %d devices per group", server.MaxDevicesPerGroup))
		return
	}

	group := types.SpeakerGroup{
		Name:    req.Name,
		Devices: groupEndpoints(req.Devices),
	}

	if err := s.config.AddGroup(&group); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, group)
}

func (s *Server) getGroup(w http.ResponseWriter, id string) {
	group := s.config.Group(id)
	if group == nil {
		s.writeError(w, http.StatusNotFound, "Group not found")
		return
	}
	s.writeJSON(w, http.StatusOK, group)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request, id string) {
	existing := s.config.Group(id)
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "Group not found")
		return
	}

	req, ok := parseJSON[GroupRequest](s, w, r)
	if !ok {
		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Devices) > server.MaxDevicesPerGroup {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum of %d devices per group", server.MaxDevicesPerGroup))
		return
	}

	updated := types.SpeakerGroup{
		ID:        existing.ID,
		CreatedAt: existing.CreatedAt,
		Name:      req.Name,
		Enabled:   req.Enabled,
		Devices:   groupEndpoints(req.Devices),
	}

	// Preserve credentials the client omitted; the UI never echoes them back
	for i := range updated.Devices {
		if updated.Devices[i].Credential != "" {
			continue
		}
		for _, d := range existing.Devices {
			if d.Address == updated.Devices[i].Address {
				updated.Devices[i].Credential = d.Credential
				break
			}
		}
	}

	if err := s.config.UpdateGroup(&updated); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteGroup(w http.ResponseWriter, id string) {
	if s.config.Group(id) == nil {
		s.writeError(w, http.StatusNotFound, "Group not found")
		return
	}

	if err := s.config.RemoveGroup(id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAPIMonitorStart starts the activity monitor.
// POST /api/monitor/start
func (s *Server) handleAPIMonitorStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !s.captureAvailable {
		s.writeError(w, http.StatusServiceUnavailable, "Audio capture is not available")
		return
	}

	if err := s.controller.Start(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAPIMonitorStop stops the activity monitor. The response is sent
// after connected speakers have been disabled.
// POST /api/monitor/stop
func (s *Server) handleAPIMonitorStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.controller.Stop(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAPILog returns the activity journal entries.
// GET /api/log
func (s *Server) handleAPILog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	entries := s.journal.Entries()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleAPILogClear clears the activity journal.
// POST /api/log/clear
func (s *Server) handleAPILogClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.journal.Clear()
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAPILogExport downloads the activity journal as a CSV attachment.
// GET /api/log/export
func (s *Server) handleAPILogExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filename := fmt.Sprintf("activity-log-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.WriteString(w, s.journal.ExportCSV()); err != nil {
		slog.Error("failed to write CSV export", "error", err)
	}
}

// Notification test endpoints

// NotificationTestRequest is the request body for testing notifications.
type NotificationTestRequest struct {
	// Webhook
	WebhookURL string `json:"webhook_url,omitempty"`

	// Email
	GraphTenantID     string `json:"graph_tenant_id,omitempty"`
	GraphClientID     string `json:"graph_client_id,omitempty"`
	GraphClientSecret string `json:"graph_client_secret,omitempty"`
	GraphFromAddress  string `json:"graph_from_address,omitempty"`
	GraphRecipients   string `json:"graph_recipients,omitempty"`
}

func (s *Server) handleAPITestWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, ok := parseJSON[NotificationTestRequest](s, w, r)
	if !ok {
		return
	}

	cfg := s.config.Snapshot()
	url := coalesce(req.WebhookURL, cfg.WebhookURL)

	if url == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "No webhook URL configured"})
		return
	}

	if err := notify.SendTestWebhook(url, cfg.StationName); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAPITestEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, ok := parseJSON[NotificationTestRequest](s, w, r)
	if !ok {
		return
	}

	// Use request values or fall back to saved config
	cfg := s.config.Snapshot()
	tenantID := coalesce(req.GraphTenantID, cfg.GraphTenantID)
	clientID := coalesce(req.GraphClientID, cfg.GraphClientID)
	clientSecret := coalesce(req.GraphClientSecret, cfg.GraphClientSecret)
	fromAddress := coalesce(req.GraphFromAddress, cfg.GraphFromAddress)
	recipients := coalesce(req.GraphRecipients, cfg.GraphRecipients)

	if tenantID == "" || clientID == "" || clientSecret == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Email not fully configured"})
		return
	}

	graphCfg := &notify.GraphConfig{
		TenantID:     tenantID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		FromAddress:  fromAddress,
		Recipients:   recipients,
	}

	if err := notify.SendTestEmail(graphCfg, cfg.StationName); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// S3TestRequest is the request body for testing S3 connectivity.
type S3TestRequest struct {
	Endpoint  string `json:"s3_endpoint"`
	Bucket    string `json:"s3_bucket"`
	AccessKey string `json:"s3_access_key_id"`
	SecretKey string `json:"s3_secret_access_key"`
}

func (s *Server) handleAPITestS3(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, ok := parseJSON[S3TestRequest](s, w, r)
	if !ok {
		return
	}

	if req.Bucket == "" {
		s.writeError(w, http.StatusBadRequest, "s3_bucket is required")
		return
	}
	if req.AccessKey == "" {
		s.writeError(w, http.StatusBadRequest, "s3_access_key_id is required")
		return
	}
	if req.SecretKey == "" {
		s.writeError(w, http.StatusBadRequest, "s3_secret_access_key is required")
		return
	}

	cfg := &recorder.S3Config{
		Endpoint:        req.Endpoint,
		Bucket:          req.Bucket,
		AccessKeyID:     req.AccessKey,
		SecretAccessKey: req.SecretKey,
	}

	if err := recorder.TestS3Connection(cfg); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GatewayTestRequest is the request body for testing a speaker endpoint.
type GatewayTestRequest struct {
	Address    string `json:"address"`
	Credential string `json:"credential,omitempty"`
	AuthMethod string `json:"auth_method,omitempty"`
}

// handleAPITestGateway checks that a speaker endpoint is reachable through
// the device gateway. The probe writes a muted volume setting, so it is
// safe against live speakers.
func (s *Server) handleAPITestGateway(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, ok := parseJSON[GatewayTestRequest](s, w, r)
	if !ok {
		return
	}

	if req.Address == "" {
		s.writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	sp := types.SpeakerEndpoint{
		Address:    req.Address,
		Credential: req.Credential,
		AuthMethod: coalesce(req.AuthMethod, "basic"),
	}

	if err := s.gateway.TestSpeaker(r.Context(), sp); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleAPIRegenerateKey generates a new API key.
// POST /api/regenerate-key
func (s *Server) handleAPIRegenerateKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	newKey, err := config.GenerateAPIKey()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.config.SetAPIKey(newKey); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("API key regenerated")

	s.writeJSON(w, http.StatusOK, map[string]string{
		"api_key": newKey,
	})
}
