// Package journal keeps the bounded in-memory activity log: one entry per
// monitoring event, oldest entries evicted first, exportable as CSV.
package journal

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// Capacity is the maximum number of retained entries. Appending beyond it
// evicts the oldest entry.
const Capacity = 500

// EntryType identifies the monitoring event an entry records.
type EntryType string

const (
	AudioDetected    EntryType = "audio_detected"
	SpeakersEnabled  EntryType = "speakers_enabled"
	AudioSilent      EntryType = "audio_silent"
	SpeakersDisabled EntryType = "speakers_disabled"
	VolumeChange     EntryType = "volume_change"
)

// Entry is one logged monitoring event. Numeric fields are pointers so
// absent values stay distinguishable from zero.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EntryType `json:"type"`
	AudioLevel   *int      `json:"audio_level,omitempty"`
	Threshold    *int      `json:"threshold,omitempty"`
	Speakers     []string  `json:"speakers,omitempty"`
	Volume       *int      `json:"volume,omitempty"`
	Message      string    `json:"message,omitempty"`
	RecordingRef string    `json:"recording_ref,omitempty"`
}

// Log is a fixed-capacity event log. Entries are kept in insertion order.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{entries: make([]Entry, 0, Capacity)}
}

// Append adds an entry, evicting the oldest one once the log is full. A
// zero timestamp is filled with the current time.
func (l *Log) Append(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= Capacity {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = e
		return
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

var csvHeader = []string{"Timestamp", "Type", "Audio Level", "Threshold", "Speakers", "Volume", "Message"}

// ExportCSV renders the log as CSV in insertion order: one header row,
// one row per entry, every field quoted.
func (l *Log) ExportCSV() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	writeRow(&b, csvHeader)
	for _, e := range l.entries {
		writeRow(&b, []string{
			util.ISOTimestamp(e.Timestamp),
			string(e.Type),
			intField(e.AudioLevel),
			intField(e.Threshold),
			strings.Join(e.Speakers, ", "),
			intField(e.Volume),
			e.Message,
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
