package server

import (
	"log/slog"

	"github.com/oszuidwest/zwfm-paging/internal/recorder"
)

// handleRecordingUpdate processes a recording/update command.
func (h *CommandHandler) handleRecordingUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *RecordingUpdateRequest) error {
		// Preserve secret if not provided
		secret := req.S3SecretAccessKey
		if secret == "" {
			secret = h.cfg.Snapshot().S3SecretAccessKey
		}

		return h.cfg.SetRecording(
			req.OwnerID,
			req.S3Endpoint,
			req.S3Bucket,
			req.S3AccessKeyID,
			secret,
		)
	})
}

// handleTestS3 processes a recording/test-s3 command.
func (h *CommandHandler) handleTestS3(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *S3TestRequest) error {
		cfg := &recorder.S3Config{
			Endpoint:        req.Endpoint,
			Bucket:          req.Bucket,
			AccessKeyID:     req.AccessKey,
			SecretAccessKey: req.SecretKey,
		}

		// Run S3 test async
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in recording/test-s3 handler", "panic", r)
				}
			}()

			result := struct {
				Type    string `json:"type"`
				Success bool   `json:"success"`
				Error   string `json:"error,omitempty"`
			}{
				Type:    "recording_s3_test_result",
				Success: true,
			}

			if err := recorder.TestS3Connection(cfg); err != nil {
				slog.Error("recording/test-s3: connection test failed", "error", err)
				result.Success = false
				result.Error = err.Error()
			} else {
				slog.Info("recording/test-s3: connection test succeeded")
			}

			SendData(send, result)
		}()

		return nil
	})
}
