package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	if err := cfg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

// webhookSink records webhook payloads and signals each delivery.
type webhookSink struct {
	received chan WebhookPayload
}

func newWebhookSink() *webhookSink {
	return &webhookSink{received: make(chan WebhookPayload, 16)}
}

func (s *webhookSink) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload WebhookPayload
		_ = json.Unmarshal(body, &payload)
		s.received <- payload
	})
}

func (s *webhookSink) next(t *testing.T) WebhookPayload {
	t.Helper()
	select {
	case p := <-s.received:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
		return WebhookPayload{}
	}
}

func TestActivationWebhookFiresOncePerEpisode(t *testing.T) {
	sink := newWebhookSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	cfg := newTestConfig(t)
	if err := cfg.SetWebhookURL(server.URL); err != nil {
		t.Fatalf("SetWebhookURL: %v", err)
	}

	n := NewNotifier(cfg)
	n.EpisodeStarted(42, 5, []string{"Studio"})
	n.EpisodeStarted(55, 5, []string{"Studio"})

	first := sink.next(t)
	if first.Event != "speakers_enabled" {
		t.Errorf("event = %q, want speakers_enabled", first.Event)
	}
	if first.AudioLevel != 42 || first.Threshold != 5 {
		t.Errorf("level/threshold = %d/%d, want 42/5", first.AudioLevel, first.Threshold)
	}

	n.EpisodeEnded(30000, "s3://clips/key.mp3")
	cleared := sink.next(t)
	if cleared.Event != "speakers_disabled" {
		t.Errorf("event = %q, want speakers_disabled", cleared.Event)
	}
	if cleared.EpisodeDurationMs != 30000 {
		t.Errorf("duration = %d, want 30000", cleared.EpisodeDurationMs)
	}
	if cleared.RecordingRef != "s3://clips/key.mp3" {
		t.Errorf("recording ref = %q", cleared.RecordingRef)
	}

	// A fresh episode fires the activation channel again.
	n.EpisodeStarted(61, 5, []string{"Studio"})
	if next := sink.next(t); next.Event != "speakers_enabled" {
		t.Errorf("event = %q, want speakers_enabled for new episode", next.Event)
	}
}

func TestClearSkippedWithoutActivation(t *testing.T) {
	sink := newWebhookSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	cfg := newTestConfig(t)
	if err := cfg.SetWebhookURL(server.URL); err != nil {
		t.Fatalf("SetWebhookURL: %v", err)
	}

	n := NewNotifier(cfg)
	n.EpisodeEnded(1000, "")
	n.EpisodeStarted(20, 5, nil)

	// The clear before any activation must not have produced a delivery,
	// so the first payload seen is the activation.
	if p := sink.next(t); p.Event != "speakers_enabled" {
		t.Errorf("first delivery = %q, want speakers_enabled", p.Event)
	}
}

func TestSendActivationWebhookPayload(t *testing.T) {
	sink := newWebhookSink()
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	if err := SendActivationWebhook(server.URL, 35, 10, []string{"Hal", "Studio"}); err != nil {
		t.Fatalf("SendActivationWebhook: %v", err)
	}

	p := sink.next(t)
	if p.Event != "speakers_enabled" {
		t.Errorf("event = %q", p.Event)
	}
	if !reflect.DeepEqual(p.Speakers, []string{"Hal", "Studio"}) {
		t.Errorf("speakers = %v", p.Speakers)
	}
	if p.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestSendWebhookSkipsWhenUnconfigured(t *testing.T) {
	if err := SendActivationWebhook("", 10, 5, nil); err != nil {
		t.Errorf("expected silent skip, got %v", err)
	}
}

func TestSendTestWebhookRequiresURL(t *testing.T) {
	if err := SendTestWebhook("", "ZuidWest FM"); err == nil {
		t.Error("expected error for missing webhook URL")
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := SendActivationWebhook(server.URL, 10, 5, nil); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a@example.com", []string{"a@example.com"}},
		{"a@example.com, b@example.com", []string{"a@example.com", "b@example.com"}},
		{" a@example.com ,, ", []string{"a@example.com"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseRecipients(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseRecipients(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidateConfigChecksGUIDs(t *testing.T) {
	valid := &types.GraphConfig{
		TenantID:     "12345678-1234-1234-1234-123456789abc",
		ClientID:     "87654321-4321-4321-4321-cba987654321",
		ClientSecret: "secret",
		FromAddress:  "alerts@example.com",
		Recipients:   "ops@example.com",
	}
	if err := ValidateConfig(valid); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	invalid := *valid
	invalid.TenantID = "not-a-guid"
	if err := ValidateConfig(&invalid); err == nil {
		t.Error("expected error for malformed tenant ID")
	}

	missing := *valid
	missing.Recipients = ""
	if err := ValidateConfig(&missing); err == nil {
		t.Error("expected error for missing recipients")
	}
}

func TestIsConfigured(t *testing.T) {
	cfg := &types.GraphConfig{
		TenantID:     "t",
		ClientID:     "c",
		ClientSecret: "s",
		FromAddress:  "f@example.com",
		Recipients:   "r@example.com",
	}
	if !IsConfigured(cfg) {
		t.Error("complete config reported unconfigured")
	}
	cfg.ClientSecret = ""
	if IsConfigured(cfg) {
		t.Error("incomplete config reported configured")
	}
}
