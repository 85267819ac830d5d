package server

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/gateway"
	"github.com/oszuidwest/zwfm-paging/internal/journal"
	"github.com/oszuidwest/zwfm-paging/internal/monitor"
)

// Validation limits for speaker group configuration.
const (
	MaxGroups          = 25 // Maximum speaker groups
	MaxDevicesPerGroup = 50 // Maximum amplifier endpoints per group
)

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CommandHandler processes WebSocket commands.
type CommandHandler struct {
	cfg              *config.Config
	controller       *monitor.Controller
	journal          *journal.Log
	gateway          *gateway.Client
	captureAvailable bool
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(cfg *config.Config, ctrl *monitor.Controller, jl *journal.Log, gw *gateway.Client, captureAvailable bool) *CommandHandler {
	return &CommandHandler{
		cfg:              cfg,
		controller:       ctrl,
		journal:          jl,
		gateway:          gw,
		captureAvailable: captureAvailable,
	}
}

// Handle processes a WebSocket command and performs the requested action.
// Commands use slash-style format: namespace/action (e.g., "groups/add",
// "notifications/email/update").
func (h *CommandHandler) Handle(cmd WSCommand, send chan<- any, triggerStatusUpdate func()) {
	parts := strings.SplitN(cmd.Type, "/", 3)
	namespace := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	subaction := ""
	if len(parts) > 2 {
		subaction = parts[2]
	}

	switch namespace {
	case "monitor":
		h.handleMonitor(action, cmd, send)
	case "audio":
		h.handleAudio(action, cmd, send)
	case "monitoring":
		h.handleMonitoring(action, cmd, send)
	case "station":
		h.handleStation(action, cmd, send)
	case "groups":
		h.handleGroups(action, cmd, send)
	case "gateway":
		h.handleGateway(action, cmd, send)
	case "notifications":
		h.handleNotifications(action, subaction, cmd, send)
	case "recording":
		h.handleRecording(action, cmd, send)
	case "config":
		h.handleConfig(action, send)
	case "log":
		h.handleLog(action, send)
	case "status":
		h.handleStatus(action, send)
	default:
		slog.Warn("unknown WebSocket command", "type", cmd.Type)
	}

	triggerStatusUpdate()
}

// --- Namespace handlers ---

// handleMonitor routes monitor/* commands
func (h *CommandHandler) handleMonitor(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "start":
		h.handleMonitorStart(cmd, send)
	case "stop":
		h.handleMonitorStop(cmd, send)
	case "restart":
		h.handleMonitorRestart(cmd, send)
	default:
		slog.Warn("unknown monitor action", "action", action)
	}
}

// handleAudio routes audio/* commands
func (h *CommandHandler) handleAudio(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleAudioUpdate(cmd, send)
	case "get":
		h.handleAudioGet(send)
	default:
		slog.Warn("unknown audio action", "action", action)
	}
}

// handleMonitoring routes monitoring/* commands
func (h *CommandHandler) handleMonitoring(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleMonitoringUpdate(cmd, send)
	case "get":
		h.handleMonitoringGet(send)
	default:
		slog.Warn("unknown monitoring action", "action", action)
	}
}

// handleStation routes station/* commands
func (h *CommandHandler) handleStation(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleStationUpdate(cmd, send)
	default:
		slog.Warn("unknown station action", "action", action)
	}
}

// handleGroups routes groups/* commands
func (h *CommandHandler) handleGroups(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "add":
		h.handleAddGroup(cmd, send)
	case "update":
		h.handleUpdateGroup(cmd, send)
	case "delete":
		h.handleDeleteGroup(cmd, send)
	default:
		slog.Warn("unknown groups action", "action", action)
	}
}

// handleGateway routes gateway/* commands
func (h *CommandHandler) handleGateway(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleGatewayUpdate(cmd, send)
	case "test":
		h.handleSpeakerTest(cmd, send)
	default:
		slog.Warn("unknown gateway action", "action", action)
	}
}

// handleNotifications routes notifications/*/* commands
func (h *CommandHandler) handleNotifications(action, subaction string, cmd WSCommand, send chan<- any) {
	switch action {
	case "webhook":
		switch subaction {
		case "update":
			h.handleWebhookUpdate(cmd, send)
		case "test":
			h.handleTest(send, "test_webhook")
		case "get":
			h.handleWebhookGet(send)
		default:
			slog.Warn("unknown webhook action", "subaction", subaction)
		}
	case "email":
		switch subaction {
		case "update":
			h.handleEmailUpdate(cmd, send)
		case "test":
			h.handleTest(send, "test_email")
		case "get":
			h.handleEmailGet(send)
		default:
			slog.Warn("unknown email action", "subaction", subaction)
		}
	default:
		slog.Warn("unknown notifications action", "action", action)
	}
}

// handleRecording routes recording/* commands
func (h *CommandHandler) handleRecording(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleRecordingUpdate(cmd, send)
	case "test-s3":
		h.handleTestS3(cmd, send)
	default:
		slog.Warn("unknown recording action", "action", action)
	}
}

// handleConfig routes config/* commands
func (h *CommandHandler) handleConfig(action string, send chan<- any) {
	switch action {
	case "get":
		h.handleConfigGet(send)
	case "regenerate-key":
		h.handleRegenerateAPIKey(send)
	default:
		slog.Warn("unknown config action", "action", action)
	}
}

// handleLog routes log/* commands
func (h *CommandHandler) handleLog(action string, send chan<- any) {
	switch action {
	case "get":
		h.handleLogGet(send)
	case "clear":
		h.handleLogClear(send)
	default:
		slog.Warn("unknown log action", "action", action)
	}
}

// handleStatus routes status/* commands
func (h *CommandHandler) handleStatus(action string, send chan<- any) {
	switch action {
	case "get":
		// Status is sent automatically, but explicit get triggers immediate update
		slog.Debug("status/get received, status update will be triggered")
	default:
		slog.Warn("unknown status action", "action", action)
	}
}
