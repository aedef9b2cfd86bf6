package supervisor

import (
	"sync"
	"time"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Entry summarizes one completed run.
type Entry struct {
	ID         string                  `json:"id"`
	RequestID  string                  `json:"request_id"`
	Mode       contractx.ExecutionMode `json:"mode"`
	Compliant  bool                    `json:"compliant"`
	ErrorCount int                     `json:"error_count"`
	StartedAt  time.Time               `json:"started_at"`
	Duration   time.Duration           `json:"duration"`
}

// history is a bounded append-only ring: when full, the oldest entry is
// evicted. A single mutex keeps the writer discipline across concurrent
// top-level runs.
type history struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

func newHistory(max int) *history {
	return &history{max: max}
}

func (h *history) append(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) >= h.max {
		h.entries = h.entries[len(h.entries)-h.max+1:]
	}
	h.entries = append(h.entries, e)
}

func (h *history) snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}
