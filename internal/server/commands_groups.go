package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// groupDevices converts request devices to speaker endpoints, defaulting
// the auth method to basic when omitted.
func groupDevices(devices []SpeakerDeviceRequest) []types.SpeakerEndpoint {
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

// handleAddGroup processes a groups/add command.
func (h *CommandHandler) handleAddGroup(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *GroupRequest) error {
		// Limit group count to prevent resource exhaustion
		if len(h.cfg.Groups()) >= MaxGroups {
			SendEntityResult(send, "group", "add", "", false,
				fmt.Sprintf("maximum of %d groups reached", MaxGroups))
			return nil
		}
		if len(req.Devices) > MaxDevicesPerGroup {
			SendEntityResult(send, "group", "add", "", false,
				fmt.Sprintf("maximum of %d devices per group", MaxDevicesPerGroup))
			return nil
		}

		group := types.SpeakerGroup{
			Name:    req.Name,
			Devices: groupDevices(req.Devices),
		}

		if err := h.cfg.AddGroup(&group); err != nil {
			slog.Error("groups/add: failed to add", "error", err)
			SendEntityResult(send, "group", "add", "", false, err.Error())
			return nil
		}

		slog.Info("groups/add: added group", "id", group.ID, "name", group.Name, "devices", len(group.Devices))
		SendEntityResult(send, "group", "add", group.ID, true, "")
		return nil
	})
}

// handleUpdateGroup processes a groups/update command.
func (h *CommandHandler) handleUpdateGroup(cmd WSCommand, send chan<- any) {
	if cmd.ID == "" {
		slog.Warn("groups/update: no ID provided")
		SendEntityResult(send, "group", "update", "", false, "no ID provided")
		return
	}

	existing := h.cfg.Group(cmd.ID)
	if existing == nil {
		slog.Warn("groups/update: group not found", "id", cmd.ID)
		SendEntityResult(send, "group", "update", cmd.ID, false, "group not found")
		return
	}

	HandleCommand(h, cmd, send, func(req *GroupRequest) error {
		if len(req.Devices) > MaxDevicesPerGroup {
			SendEntityResult(send, "group", "update", cmd.ID, false,
				fmt.Sprintf("maximum of %d devices per group", MaxDevicesPerGroup))
			return nil
		}

		updated := types.SpeakerGroup{
			ID:        existing.ID,
			CreatedAt: existing.CreatedAt,
			Name:      req.Name,
			Enabled:   req.Enabled,
			Devices:   groupDevices(req.Devices),
		}

		// Preserve credentials the client omitted; the UI never echoes
		// them back
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

		if err := h.cfg.UpdateGroup(&updated); err != nil {
			slog.Error("groups/update: failed to update", "error", err)
			SendEntityResult(send, "group", "update", cmd.ID, false, err.Error())
			return nil
		}

		slog.Info("groups/update: updated group", "id", updated.ID, "name", updated.Name, "enabled", updated.Enabled)
		SendEntityResult(send, "group", "update", updated.ID, true, "")
		return nil
	})
}

// handleDeleteGroup processes a groups/delete command.
func (h *CommandHandler) handleDeleteGroup(cmd WSCommand, send chan<- any) {
	if cmd.ID == "" {
		slog.Warn("groups/delete: no ID provided")
		SendEntityResult(send, "group", "delete", "", false, "no ID provided")
		return
	}

	if err := h.cfg.RemoveGroup(cmd.ID); err != nil {
		slog.Error("groups/delete: failed to remove", "error", err)
		SendEntityResult(send, "group", "delete", cmd.ID, false, err.Error())
		return
	}

	slog.Info("groups/delete: removed group", "id", cmd.ID)
	SendEntityResult(send, "group", "delete", cmd.ID, true, "")
}

// handleSpeakerTest processes a gateway/test command. The test writes a
// muted volume setting to the speaker, so it is safe against live devices.
func (h *CommandHandler) handleSpeakerTest(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *SpeakerTestRequest) error {
		authMethod := req.AuthMethod
		if authMethod == "" {
			authMethod = "basic"
		}
		sp := types.SpeakerEndpoint{
			Address:    req.Address,
			Credential: req.Credential,
			AuthMethod: authMethod,
		}

		// Run speaker test async; the gateway applies its own timeout
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in gateway/test handler", "panic", r)
				}
			}()

			result := struct {
				Type    string `json:"type"`
				Address string `json:"address"`
				Success bool   `json:"success"`
				Error   string `json:"error,omitempty"`
			}{
				Type:    "speaker_test_result",
				Address: sp.Address,
				Success: true,
			}

			if err := h.gateway.TestSpeaker(context.Background(), sp); err != nil {
				slog.Error("gateway/test: speaker unreachable", "address", sp.Address, "error", err)
				result.Success = false
				result.Error = err.Error()
			} else {
				slog.Info("gateway/test: speaker reachable", "address", sp.Address)
			}

			SendData(send, result)
		}()

		return nil
	})
}
