// Package recorder captures the audio that triggered a paging episode and
// stores it as an MP3 clip in S3-compatible object storage.
package recorder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/types"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// MaxClipDuration bounds how much audio a single clip retains. Episodes
// that run longer keep only the first MaxClipDuration of audio.
const MaxClipDuration = 10 * time.Minute

// maxClipBytes is MaxClipDuration of S16LE PCM at the capture format.
const maxClipBytes = int(MaxClipDuration/time.Second) * types.SampleRate * types.Channels * 2

// Recorder buffers PCM for the clip in progress. It is fed from the
// capture pipeline via WriteAudio and retains audio only between Start
// and Finish, so the same capture process serves both metering and
// evidence clips.
type Recorder struct {
	cfg *config.Config

	mu        sync.Mutex
	active    bool
	truncated bool
	startedAt time.Time
	pcm       []byte
}

// New creates a Recorder that reads storage settings from cfg.
func New(cfg *config.Config) *Recorder {
	return &Recorder{cfg: cfg}
}

// Start begins a new clip at the given time. Audio still buffered from an
// unfinished clip is discarded.
func (r *Recorder) Start(startedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	r.truncated = false
	r.startedAt = startedAt
	r.pcm = r.pcm[:0]
}

// Active reports whether a clip is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// WriteAudio appends PCM from the capture pipeline to the clip in
// progress. Audio outside an episode is dropped.
func (r *Recorder) WriteAudio(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	room := maxClipBytes - len(r.pcm)
	if room <= 0 {
		if !r.truncated {
			r.truncated = true
			slog.Warn("clip reached maximum length, dropping further audio", "max", MaxClipDuration)
		}
		return
	}
	if len(pcm) > room {
		pcm = pcm[:room]
	}
	r.pcm = append(r.pcm, pcm...)
}

// Discard drops the clip in progress without storing it.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.pcm = nil
}

// Finish closes the clip, encodes it and uploads it. It returns a
// reference to the stored object, or an empty string when nothing was
// captured or storage is unavailable. Failures are logged and never
// propagate, so the speaker shutdown sequence is not held up by storage
// trouble.
func (r *Recorder) Finish() string {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return ""
	}
	r.active = false
	pcm := r.pcm
	startedAt := r.startedAt
	r.pcm = nil
	r.mu.Unlock()

	if len(pcm) == 0 {
		return ""
	}

	snap := r.cfg.Snapshot()
	s3cfg := S3Config{
		Endpoint:        snap.S3Endpoint,
		Bucket:          snap.S3Bucket,
		AccessKeyID:     snap.S3AccessKeyID,
		SecretAccessKey: snap.S3SecretAccessKey,
	}
	if !s3cfg.IsConfigured() || snap.RecordingOwnerID == "" {
		slog.Debug("clip storage not configured, discarding clip", "bytes", len(pcm))
		return ""
	}

	data := encodeMP3(pcm, types.SampleRate, types.Channels)
	if len(data) == 0 {
		slog.Error("clip encoding produced no data", "pcm_bytes", len(pcm))
		return ""
	}

	key := clipKey(snap.RecordingOwnerID, startedAt)
	if err := uploadClip(&s3cfg, key, data); err != nil {
		slog.Error("clip upload failed", "key", key, "error", err)
		return ""
	}

	slog.Info("clip uploaded", "key", key, "bytes", len(data))
	return fmt.Sprintf("s3://%s/%s", s3cfg.Bucket, key)
}

// clipKey builds the object key for a clip started at the given time.
func clipKey(ownerID string, startedAt time.Time) string {
	return fmt.Sprintf("audio-recordings/%s/recording-%s.mp3", ownerID, util.ISOTimestamp(startedAt))
}
