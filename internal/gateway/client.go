// Package gateway talks to the device gateway that fronts the remote
// speaker amplifiers. All speaker operations go through it: power on and
// off via speaker groups and per-device volume settings.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/types"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// volumeKey is the settings key the amplifiers expose for output volume.
const volumeKey = "volume"

// Client issues device gateway calls. Each speaker is addressed with its
// own call so one unreachable device never blocks the others.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

// NewClient returns a client that reads the gateway address and timeout
// from cfg at call time, so configuration changes apply immediately.
func NewClient(cfg *config.Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{}}
}

// speakerDescriptor is the gateway's wire shape for one speaker. The
// gateway API uses camelCase field names.
type speakerDescriptor struct {
	Address    string `json:"address"`
	Credential string `json:"credential"`
	AuthMethod string `json:"authMethod"`
}

type settingsRequest struct {
	Address    string            `json:"address"`
	Credential string            `json:"credential"`
	AuthMethod string            `json:"authMethod"`
	Settings   map[string]string `json:"settings"`
}

type groupRequest struct {
	Speakers []speakerDescriptor `json:"speakers"`
	Enable   bool                `json:"enable"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func descriptor(sp types.SpeakerEndpoint) speakerDescriptor {
	return speakerDescriptor{Address: sp.Address, Credential: sp.Credential, AuthMethod: sp.AuthMethod}
}

// SetVolume applies a volume percentage to every given speaker. Failures
// are logged per device and collected; the remaining devices are still
// attempted.
func (c *Client) SetVolume(ctx context.Context, speakers []types.SpeakerEndpoint, percent int) error {
	value := VolumeSetting(percent)
	var errs []error
	for _, sp := range speakers {
		body := settingsRequest{
			Address:    sp.Address,
			Credential: sp.Credential,
			AuthMethod: sp.AuthMethod,
			Settings:   map[string]string{volumeKey: value},
		}
		if err := c.post(ctx, "/settings", body); err != nil {
			slog.Warn("failed to set speaker volume",
				"address", sp.Address, "volume", value, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sp.Address, err))
		}
	}
	return errors.Join(errs...)
}

// SetEnabled powers the given speakers on or off. Failures are logged per
// device and collected; the remaining devices are still attempted.
func (c *Client) SetEnabled(ctx context.Context, speakers []types.SpeakerEndpoint, enable bool) error {
	var errs []error
	for _, sp := range speakers {
		body := groupRequest{Speakers: []speakerDescriptor{descriptor(sp)}, Enable: enable}
		if err := c.post(ctx, "/speakers/group", body); err != nil {
			slog.Warn("failed to switch speaker power",
				"address", sp.Address, "enable", enable, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sp.Address, err))
		}
	}
	return errors.Join(errs...)
}

// TestSpeaker verifies a speaker is reachable by writing a muted volume
// setting to it.
func (c *Client) TestSpeaker(ctx context.Context, sp types.SpeakerEndpoint) error {
	body := settingsRequest{
		Address:    sp.Address,
		Credential: sp.Credential,
		AuthMethod: sp.AuthMethod,
		Settings:   map[string]string{volumeKey: VolumeSetting(0)},
	}
	return c.post(ctx, "/settings", body)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return util.WrapError("encode gateway request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout())
	defer cancel()

	url := strings.TrimRight(c.cfg.GatewayBaseURL(), "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return util.WrapError("create gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return util.WrapError("call gateway", err)
	}
	defer resp.Body.Close()

	var result gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		return util.WrapError("decode gateway response", err)
	}
	if result.Error != "" {
		return fmt.Errorf("gateway error: %s", result.Error)
	}
	if !result.Success {
		return errors.New("gateway reported failure")
	}
	return nil
}
