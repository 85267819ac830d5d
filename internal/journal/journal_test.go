package journal

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestEvictionKeepsCapacityAndOrder(t *testing.T) {
	l := New()
	for i := range Capacity + 1 {
		l.Append(Entry{
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, i, time.UTC),
			Type:      AudioDetected,
			Message:   fmt.Sprintf("entry %d", i),
		})
	}

	if got := l.Len(); got != Capacity {
		t.Fatalf("Len() = %d, want %d", got, Capacity)
	}
	entries := l.Entries()
	if entries[0].Message != "entry 1" {
		t.Errorf("oldest entry = %q, want \"entry 1\" (entry 0 evicted)", entries[0].Message)
	}
	if last := entries[len(entries)-1].Message; last != fmt.Sprintf("entry %d", Capacity) {
		t.Errorf("newest entry = %q", last)
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i].Timestamp.After(entries[i-1].Timestamp) {
			t.Fatalf("entries out of order at index %d", i)
		}
	}
}

func TestAppendStampsMissingTimestamp(t *testing.T) {
	l := New()
	l.Append(Entry{Type: AudioSilent})
	if l.Entries()[0].Timestamp.IsZero() {
		t.Error("zero timestamp not filled in")
	}
}

func TestClear(t *testing.T) {
	l := New()
	l.Append(Entry{Type: AudioDetected})
	l.Append(Entry{Type: SpeakersEnabled})
	l.Clear()
	if got := l.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}

func TestExportCSV(t *testing.T) {
	l := New()
	l.Append(Entry{
		Timestamp:  time.Date(2025, 6, 1, 12, 30, 5, 123e6, time.UTC),
		Type:       AudioDetected,
		AudioLevel: intPtr(42),
		Threshold:  intPtr(5),
		Speakers:   []string{"Hall", "Canteen"},
		Volume:     intPtr(70),
		Message:    `level "spiked" above threshold`,
	})
	l.Append(Entry{
		Timestamp: time.Date(2025, 6, 1, 12, 31, 0, 0, time.UTC),
		Type:      AudioSilent,
	})

	lines := strings.Split(strings.TrimSuffix(l.ExportCSV(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}

	wantHeader := `"Timestamp","Type","Audio Level","Threshold","Speakers","Volume","Message"`
	if lines[0] != wantHeader {
		t.Errorf("header = %s\nwant     %s", lines[0], wantHeader)
	}

	wantRow := `"2025-06-01T12:30:05.123Z","audio_detected","42","5","Hall, Canteen","70","level ""spiked"" above threshold"`
	if lines[1] != wantRow {
		t.Errorf("row = %s\nwant  %s", lines[1], wantRow)
	}

	// Absent numeric fields export as empty quoted values.
	wantSilent := `"2025-06-01T12:31:00.000Z","audio_silent","","","","",""`
	if lines[2] != wantSilent {
		t.Errorf("row = %s\nwant  %s", lines[2], wantSilent)
	}
}

func TestExportCSVOrderMatchesInsertion(t *testing.T) {
	l := New()
	for i := range 5 {
		l.Append(Entry{
			Timestamp: time.Date(2025, 6, 1, 0, 0, i, 0, time.UTC),
			Type:      VolumeChange,
			Volume:    intPtr(i * 10),
		})
	}
	lines := strings.Split(strings.TrimSuffix(l.ExportCSV(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	for i, line := range lines[1:] {
		if !strings.Contains(line, fmt.Sprintf(`"%d"`, i*10)) {
			t.Errorf("row %d = %s, want volume %d", i, line, i*10)
		}
	}
}
