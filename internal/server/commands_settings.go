package server

import (
	"errors"
	"log/slog"
	"runtime"

	"github.com/oszuidwest/zwfm-paging/internal/audio"
	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// --- Monitor lifecycle handlers ---

// handleMonitorStart processes a monitor/start command.
func (h *CommandHandler) handleMonitorStart(cmd WSCommand, send chan<- any) {
	if !h.captureAvailable {
		SendError(send, cmd.Type, errors.New("audio capture is not available"))
		return
	}
	HandleActionAsync(cmd, send, func() (any, error) {
		return nil, h.controller.Start()
	})
}

// handleMonitorStop processes a monitor/stop command. The stop runs async
// because it waits for in-flight speaker transitions and the capture
// process to wind down.
func (h *CommandHandler) handleMonitorStop(cmd WSCommand, send chan<- any) {
	HandleActionAsync(cmd, send, func() (any, error) {
		return nil, h.controller.Stop()
	})
}

// handleMonitorRestart processes a monitor/restart command.
func (h *CommandHandler) handleMonitorRestart(cmd WSCommand, send chan<- any) {
	if !h.captureAvailable {
		SendError(send, cmd.Type, errors.New("audio capture is not available"))
		return
	}
	HandleActionAsync(cmd, send, func() (any, error) {
		return nil, h.controller.Restart()
	})
}

// --- Audio handlers ---

// handleAudioUpdate processes an audio/update command.
func (h *CommandHandler) handleAudioUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *AudioUpdateRequest) error {
		if req.Input == "" {
			return nil // No change requested
		}

		slog.Info("audio/update: changing audio input", "input", req.Input)
		if err := h.cfg.SetAudioInput(req.Input); err != nil {
			return err
		}

		// Restart capture on the new input if FFmpeg is available
		if h.captureAvailable {
			go func() {
				var err error
				switch h.controller.State() {
				case types.MonitorRunning:
					err = h.controller.Restart()
				case types.MonitorStopped:
					err = h.controller.Start()
				}
				if err != nil {
					slog.Error("audio/update: monitor state change failed", "error", err)
				}
			}()
		}

		return nil
	})
}

// handleAudioGet sends the current audio input and the devices FFmpeg can see.
func (h *CommandHandler) handleAudioGet(send chan<- any) {
	SendData(send, map[string]any{
		"type":    "audio_config",
		"input":   h.cfg.AudioInput(),
		"devices": audio.ListDevices(),
	})
}

// --- Activation settings handlers ---

// handleMonitoringUpdate processes a monitoring/update command. Only the
// fields present in the request change; the controller decides whether a
// live volume adjustment is needed.
func (h *CommandHandler) handleMonitoringUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *MonitoringUpdateRequest) error {
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

		settings, err := h.controller.ApplySettings(update)
		if err != nil {
			return err
		}

		slog.Info("monitoring/update: settings applied",
			"threshold", settings.AudioThresholdPercent,
			"target_volume", settings.TargetVolumePercent)
		return nil
	})
}

// handleMonitoringGet sends the current activation settings.
func (h *CommandHandler) handleMonitoringGet(send chan<- any) {
	SendData(send, map[string]any{
		"type":     "monitoring_config",
		"settings": h.cfg.MonitoringSettings(),
	})
}

// --- Station handlers ---

// handleStationUpdate processes a station/update command.
func (h *CommandHandler) handleStationUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *StationUpdateRequest) error {
		return h.cfg.SetStationName(req.Name)
	})
}

// --- Device gateway handlers ---

// handleGatewayUpdate processes a gateway/update command. The gateway
// client reads these settings at call time, so no restart is needed.
func (h *CommandHandler) handleGatewayUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *GatewayUpdateRequest) error {
		return h.cfg.SetGateway(req.BaseURL, req.TimeoutMs)
	})
}

// --- Config handlers ---

// handleConfigGet sends the full configuration without secrets.
func (h *CommandHandler) handleConfigGet(send chan<- any) {
	SendData(send, types.WSConfigResponse{
		Type:   "config",
		Config: BuildConfigResponse(h.cfg),
	})
}

// BuildConfigResponse assembles the sanitized configuration payload shared
// by the REST config endpoint and the WebSocket config command.
func BuildConfigResponse(cfg *config.Config) types.APIConfigResponse {
	snap := cfg.Snapshot()

	return types.APIConfigResponse{
		// Audio
		AudioInput: snap.AudioInput,
		Devices:    audio.ListDevices(),
		Platform:   runtime.GOOS,

		// Station
		StationName: snap.StationName,

		// Activation
		Monitoring: snap.Monitoring,

		// Device gateway
		GatewayBaseURL:   snap.GatewayBaseURL,
		GatewayTimeoutMs: snap.GatewayTimeoutMs,

		// Notifications
		WebhookURL:       snap.WebhookURL,
		GraphTenantID:    snap.GraphTenantID,
		GraphClientID:    snap.GraphClientID,
		GraphFromAddress: snap.GraphFromAddress,
		GraphRecipients:  snap.GraphRecipients,
		GraphHasSecret:   snap.GraphClientSecret != "",

		// Clip storage
		RecordingOwnerID: snap.RecordingOwnerID,
		S3Endpoint:       snap.S3Endpoint,
		S3Bucket:         snap.S3Bucket,
		S3Configured:     snap.HasS3(),

		// Entities
		Groups: snap.Groups,
	}
}

// handleRegenerateAPIKey processes a config/regenerate-key command.
func (h *CommandHandler) handleRegenerateAPIKey(send chan<- any) {
	HandleActionAsync(WSCommand{Type: "config/regenerate-key"}, send, func() (any, error) {
		newKey, err := config.GenerateAPIKey()
		if err != nil {
			return nil, err
		}

		if err := h.cfg.SetAPIKey(newKey); err != nil {
			return nil, err
		}

		slog.Info("API key regenerated")

		return map[string]string{"api_key": newKey}, nil
	})
}
