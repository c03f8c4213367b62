package state

import (
	"github.com/jinzhu/copier"

	"github.com/rook-computer/certmaker/internal/document"
)

const DefaultHistoryLimit = 20

// History is a bounded buffer of configuration snapshots taken on in-place
// element updates. Once full, the oldest entry is dropped. The store only
// writes to it.
type History struct {
	limit   int
	entries []document.Config
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push stores a deep copy of cfg.
func (h *History) Push(cfg document.Config) {
	var entry document.Config
	if err := copier.CopyWithOption(&entry, &cfg, copier.Option{DeepCopy: true}); err != nil {
		entry = cfg.Clone()
	}
	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
}

func (h *History) Len() int { return len(h.entries) }

// Entries returns the snapshots oldest first.
func (h *History) Entries() []document.Config {
	out := make([]document.Config, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Clone()
	}
	return out
}

func (h *History) Clear() { h.entries = nil }
