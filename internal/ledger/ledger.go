// Package ledger keeps the bounded, append-only activity record consumed by
// the presentation layer.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/glimpse/internal/kv"
)

const storageKey = "activity_log"

// Category classifies one pipeline invocation.
type Category string

const (
	CategoryCapture            Category = "capture"
	CategoryRecording          Category = "recording"
	CategoryTextExtraction     Category = "text-extraction"
	CategoryFileUpload         Category = "file-upload"
	CategoryCustomPrompt       Category = "custom-prompt"
	CategoryAudioTranscription Category = "audio-transcription"
	CategorySystemAudio        Category = "system-audio"
)

// Record is one immutable audit entry.
type Record struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	DurationSec float64         `json:"duration_sec,omitempty"`
	Succeeded   bool            `json:"succeeded"`
}

// Filter selects a subset of records on List.
type Filter struct {
	ErrorsOnly bool
	Category   Category // empty means all categories
}

// Snapshot is the export payload: timestamp, count, and the full sequence.
type Snapshot struct {
	ExportedAt time.Time `json:"exported_at"`
	Total      int       `json:"total"`
	Records    []Record  `json:"records"`
}

// Ledger is the bounded most-recent-first record collection. Every mutation
// is flushed to the key-value surface before returning.
type Ledger struct {
	mu      sync.Mutex
	store   *kv.Store
	max     int
	records []Record
}

// New loads persisted records and applies the retention cap.
func New(store *kv.Store, maxRecords int) (*Ledger, error) {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	l := &Ledger{store: store, max: maxRecords}

	raw, err := store.Get(storageKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load activity ledger: %w", err)
	}
	if err := json.Unmarshal(raw, &l.records); err != nil {
		return nil, fmt.Errorf("decode activity ledger: %w", err)
	}
	if len(l.records) > l.max {
		l.records = l.records[:l.max]
	}
	return l, nil
}

// Record prepends a new entry and evicts the oldest past the retention cap.
func (l *Ledger) Record(category Category, description string, payload json.RawMessage, duration time.Duration, succeeded bool) Record {
	record := Record{
		ID:          fmt.Sprintf("activity_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		Timestamp:   time.Now(),
		Category:    category,
		Description: description,
		Payload:     payload,
		DurationSec: duration.Seconds(),
		Succeeded:   succeeded,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append([]Record{record}, l.records...)
	if len(l.records) > l.max {
		l.records = l.records[:l.max]
	}
	l.flushLocked()
	return record
}

// List returns matching records, most recent first. Stored state is never
// mutated by filtering.
func (l *Ledger) List(filter Filter) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(l.records))
	for _, record := range l.records {
		if filter.ErrorsOnly && record.Succeeded {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		out = append(out, record)
	}
	return out
}

// Clear drops every record.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.flushLocked()
}

// Export produces a serializable snapshot of the current sequence.
func (l *Ledger) Export() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]Record, len(l.records))
	copy(records, l.records)
	return Snapshot{
		ExportedAt: time.Now().UTC(),
		Total:      len(records),
		Records:    records,
	}
}

// flushLocked persists best-effort; ledger writes are fire-and-forget for
// callers, so persistence failures must not break the pipeline.
func (l *Ledger) flushLocked() {
	raw, err := json.Marshal(l.records)
	if err != nil {
		return
	}
	_ = l.store.Set(storageKey, raw)
}
