package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event             string   `json:"event"`
	AudioLevel        int      `json:"audio_level,omitempty"`
	Threshold         int      `json:"threshold,omitempty"`
	Speakers          []string `json:"speakers,omitempty"`
	EpisodeDurationMs int64    `json:"episode_duration_ms,omitempty"`
	RecordingRef      string   `json:"recording_ref,omitempty"`
	Message           string   `json:"message,omitempty"`
	Timestamp         string   `json:"timestamp"`
}

// SendActivationWebhook notifies the configured webhook that sustained
// audio switched the speakers on.
func SendActivationWebhook(webhookURL string, level, threshold int, speakers []string) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:      "speakers_enabled",
		AudioLevel: level,
		Threshold:  threshold,
		Speakers:   speakers,
		Timestamp:  timestampUTC(),
	})
}

// SendClearWebhook notifies the configured webhook that the audio cleared
// and the speakers switched off.
func SendClearWebhook(webhookURL string, durationMs int64, clipRef string) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:             "speakers_disabled",
		EpisodeDurationMs: durationMs,
		RecordingRef:      clipRef,
		Timestamp:         timestampUTC(),
	})
}

// SendTestWebhook sends a test webhook notification.
func SendTestWebhook(webhookURL, stationName string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "test",
		Message:   "This is a test notification from " + stationName,
		Timestamp: timestampUTC(),
	})
}

// sendWebhook delivers a notification to the configured webhook endpoint.
func sendWebhook(webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil // Silently skip if not configured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: 10000 * time.Millisecond}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
