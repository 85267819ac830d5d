package server

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// runTest dispatches to the appropriate test method on the controller.
func (h *CommandHandler) runTest(testType string) error {
	switch testType {
	case "webhook":
		return h.controller.TriggerTestWebhook()
	case "email":
		return h.controller.TriggerTestEmail()
	default:
		return fmt.Errorf("unknown test type: %s", testType)
	}
}

// handleTest executes a notification test and sends the result to the client.
// testCmd should be in format "test_<type>" (e.g., "test_email", "test_webhook").
func (h *CommandHandler) handleTest(send chan<- any, testCmd string) {
	testType := strings.TrimPrefix(testCmd, "test_")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in test handler", "command", testCmd, "panic", r)
			}
		}()

		result := types.WSTestResult{
			Type:     "test_result",
			TestType: testType,
			Success:  true,
		}

		if err := h.runTest(testType); err != nil {
			slog.Error("test failed", "command", testCmd, "error", err)
			result.Success = false
			result.Error = err.Error()
		} else {
			slog.Info("test succeeded", "command", testCmd)
		}

		// Send via channel (non-blocking to prevent goroutine leak if channel is closed)
		select {
		case send <- result:
		default:
			slog.Warn("failed to send test response: channel full or closed", "command", testCmd)
		}
	}()
}

// handleWebhookUpdate processes a notifications/webhook/update command.
func (h *CommandHandler) handleWebhookUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *WebhookUpdateRequest) error {
		return h.cfg.SetWebhookURL(req.URL)
	})
}

// handleWebhookGet sends the webhook configuration.
func (h *CommandHandler) handleWebhookGet(send chan<- any) {
	SendData(send, map[string]any{
		"type": "webhook_config",
		"url":  h.cfg.WebhookURL(),
	})
}

// handleEmailUpdate processes a notifications/email/update command.
func (h *CommandHandler) handleEmailUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *EmailUpdateRequest) error {
		if err := h.cfg.SetGraphConfig(
			req.TenantID,
			req.ClientID,
			req.ClientSecret,
			req.FromAddress,
			req.Recipients,
		); err != nil {
			return err
		}
		h.controller.InvalidateGraphClient()
		return nil
	})
}

// handleEmailGet sends the email configuration. The client secret never
// leaves the server; only its presence is reported.
func (h *CommandHandler) handleEmailGet(send chan<- any) {
	gc := h.cfg.GraphConfig()
	SendData(send, map[string]any{
		"type":         "email_config",
		"tenant_id":    gc.TenantID,
		"client_id":    gc.ClientID,
		"from_address": gc.FromAddress,
		"recipients":   gc.Recipients,
		"configured":   gc.ClientSecret != "",
	})
}
