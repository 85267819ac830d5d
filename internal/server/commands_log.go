package server

import "log/slog"

// handleLogGet sends the activity journal, newest entry last.
func (h *CommandHandler) handleLogGet(send chan<- any) {
	entries := h.journal.Entries()
	SendData(send, map[string]any{
		"type":    "log_entries",
		"entries": entries,
		"count":   len(entries),
	})
}

// handleLogClear processes a log/clear command.
func (h *CommandHandler) handleLogClear(send chan<- any) {
	h.journal.Clear()
	slog.Info("log/clear: activity journal cleared")
	SendSuccess(send, "log/clear", nil)
}
