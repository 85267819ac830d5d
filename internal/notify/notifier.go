// Package notify delivers paging episode alerts over webhooks and
// Microsoft Graph email.
package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// Notifier sends alerts when a paging episode starts and ends.
type Notifier struct {
	cfg *config.Config

	// mu protects the notification state fields below
	mu sync.Mutex

	// Track which notifications have been sent for the current episode
	webhookSent bool
	emailSent   bool

	// Cached Graph client for email notifications
	graphClient *GraphClient
}

// NewNotifier returns a Notifier configured with the given config.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{cfg: cfg}
}

// InvalidateGraphClient clears the cached Graph client.
// Call this when email configuration changes.
func (n *Notifier) InvalidateGraphClient() {
	n.mu.Lock()
	n.graphClient = nil
	n.mu.Unlock()
}

// getOrCreateGraphClient returns the cached Graph client, creating it if needed.
func (n *Notifier) getOrCreateGraphClient(cfg *GraphConfig) (*GraphClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.graphClient != nil {
		return n.graphClient, nil
	}

	client, err := NewGraphClient(cfg)
	if err != nil {
		return nil, err
	}
	n.graphClient = client
	return client, nil
}

// EpisodeStarted announces that sustained audio switched the speakers on.
// Each channel fires at most once per episode.
func (n *Notifier) EpisodeStarted(level, threshold int, speakers []string) {
	cfg := n.cfg.Snapshot()

	n.trySend(&n.webhookSent, cfg.HasWebhook(), func() { n.sendActivationWebhook(cfg, level, threshold, speakers) })
	n.trySend(&n.emailSent, cfg.HasGraph(), func() { n.sendActivationEmail(cfg, level, threshold, speakers) })
}

// trySend sends a notification if the condition is met and not already sent.
func (n *Notifier) trySend(sent *bool, condition bool, sender func()) {
	n.mu.Lock()
	shouldSend := !*sent && condition
	if shouldSend {
		*sent = true
	}
	n.mu.Unlock()
	if shouldSend {
		go sender()
	}
}

// EpisodeEnded announces that the audio cleared and the speakers switched
// off. clipRef points at the stored audio clip and may be empty. Clear
// notifications only go to channels that saw the activation.
func (n *Notifier) EpisodeEnded(durationMs int64, clipRef string) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	sendWebhookClear := n.webhookSent
	sendEmailClear := n.emailSent
	// Reset notification state for the next episode
	n.webhookSent = false
	n.emailSent = false
	n.mu.Unlock()

	if sendWebhookClear {
		go n.sendClearWebhook(cfg, durationMs, clipRef)
	}

	if sendEmailClear {
		go n.sendClearEmail(cfg, durationMs, clipRef)
	}
}

// Reset clears the notification state.
func (n *Notifier) Reset() {
	n.mu.Lock()
	n.webhookSent = false
	n.emailSent = false
	n.mu.Unlock()
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *Notifier) sendActivationWebhook(cfg config.Snapshot, level, threshold int, speakers []string) {
	logNotifyResult(
		func() error { return SendActivationWebhook(cfg.WebhookURL, level, threshold, speakers) },
		"Activation webhook",
	)
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *Notifier) sendClearWebhook(cfg config.Snapshot, durationMs int64, clipRef string) {
	logNotifyResult(
		func() error { return SendClearWebhook(cfg.WebhookURL, durationMs, clipRef) },
		"Clear webhook",
	)
}

// BuildGraphConfig creates a GraphConfig from the config snapshot.
//
//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func BuildGraphConfig(cfg config.Snapshot) *GraphConfig {
	return &GraphConfig{
		TenantID:     cfg.GraphTenantID,
		ClientID:     cfg.GraphClientID,
		ClientSecret: cfg.GraphClientSecret,
		FromAddress:  cfg.GraphFromAddress,
		Recipients:   cfg.GraphRecipients,
	}
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *Notifier) sendActivationEmail(cfg config.Snapshot, level, threshold int, speakers []string) {
	graphCfg := BuildGraphConfig(cfg)
	logNotifyResult(
		func() error {
			return n.sendActivationEmailWithClient(graphCfg, cfg.StationName, level, threshold, speakers)
		},
		"Activation email",
	)
}

//nolint:gocritic // hugeParam: copy is acceptable for infrequent notification events
func (n *Notifier) sendClearEmail(cfg config.Snapshot, durationMs int64, clipRef string) {
	graphCfg := BuildGraphConfig(cfg)
	logNotifyResult(
		func() error {
			return n.sendClearEmailWithClient(graphCfg, cfg.StationName, durationMs, clipRef)
		},
		"Clear email",
	)
}

// sendEmail handles the common email sending infrastructure.
func (n *Notifier) sendEmail(cfg *GraphConfig, subject, body string) error {
	if !IsConfigured(cfg) {
		return nil
	}

	client, err := n.getOrCreateGraphClient(cfg)
	if err != nil {
		return util.WrapError("create Graph client", err)
	}

	recipients := ParseRecipients(cfg.Recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid recipients")
	}

	if err := client.SendMail(recipients, subject, body); err != nil {
		return util.WrapError("send email via Graph", err)
	}

	return nil
}

// sendActivationEmailWithClient sends an activation alert email using the cached Graph client.
func (n *Notifier) sendActivationEmailWithClient(cfg *GraphConfig, stationName string, level, threshold int, speakers []string) error {
	subject := "[ALERT] Audio Activity - " + stationName
	body := fmt.Sprintf(
		"Sustained audio switched the paging speakers on.\n\n"+
			"Level:     %d%%\n"+
			"Threshold: %d%%\n"+
			"Speakers:  %s\n"+
			"Time:      %s\n\n"+
			"The speakers stay on until the audio clears.",
		level, threshold, strings.Join(speakers, ", "), util.HumanTime(),
	)
	return n.sendEmail(cfg, subject, body)
}

// sendClearEmailWithClient sends an all-clear email using the cached Graph client.
func (n *Notifier) sendClearEmailWithClient(cfg *GraphConfig, stationName string, durationMs int64, clipRef string) error {
	subject := "[OK] Audio Cleared - " + stationName
	body := fmt.Sprintf(
		"The paging audio cleared and the speakers switched off.\n\n"+
			"Episode lasted: %s\n"+
			"Time:           %s",
		util.FormatDuration(durationMs), util.HumanTime(),
	)
	if clipRef != "" {
		body += "\nRecording:      " + clipRef
	}
	return n.sendEmail(cfg, subject, body)
}
