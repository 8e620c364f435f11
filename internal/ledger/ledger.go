// Package ledger keeps the run history: an append-only list of frozen
// (config, analysis) pairs with a bounded comparison selection on top. A
// ledger belongs to exactly one session and is not safe for concurrent use.
package ledger

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"trainpilot/internal/logging"
	"trainpilot/internal/types"
)

// MaxSelected caps the comparison selection. Selecting beyond the cap evicts
// the oldest selection first.
const MaxSelected = 3

// Store is an optional write-through persistence backend.
type Store interface {
	Append(entry types.HistoryEntry) error
	SetSelected(id string, selected bool) error
}

// Ledger is the in-memory run history. Entries are never mutated after
// Append except for their Selected flag.
type Ledger struct {
	entries  []types.HistoryEntry
	selected []string // entry ids in selection order, oldest first
	store    Store
}

// New returns an empty ledger. store may be nil for purely in-memory use.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append freezes a (config, analysis) pair into the history and returns the
// new entry. The config is deep-copied so later edits in the session cannot
// reach back into history. Store failures are logged, not returned: the
// in-memory ledger is the source of truth for the running session.
func (l *Ledger) Append(cfg types.TrainingConfig, analysis types.Analysis) types.HistoryEntry {
	entry := types.HistoryEntry{
		ID:        ulid.Make().String(),
		Config:    cfg.Clone(),
		Analysis:  analysis,
		Status:    DeriveStatus(analysis.Report.Verdict),
		Timestamp: time.Now(),
	}
	l.entries = append(l.entries, entry)
	if l.store != nil {
		if err := l.store.Append(entry); err != nil {
			logging.Ledger("persist append failed for %s: %v", entry.ID, err)
		}
	}
	return entry
}

// Toggle flips an entry's selection. Selecting while MaxSelected entries are
// already selected evicts the oldest selection. Returns false for an unknown
// id.
func (l *Ledger) Toggle(id string) bool {
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	if l.entries[idx].Selected {
		l.setSelected(idx, false)
		return true
	}
	if len(l.selected) >= MaxSelected {
		oldest := l.selected[0]
		if oi := l.indexOf(oldest); oi >= 0 {
			l.setSelected(oi, false)
		}
	}
	l.setSelected(idx, true)
	return true
}

func (l *Ledger) setSelected(idx int, selected bool) {
	id := l.entries[idx].ID
	l.entries[idx].Selected = selected
	if selected {
		l.selected = append(l.selected, id)
	} else {
		for i, sid := range l.selected {
			if sid == id {
				l.selected = append(l.selected[:i], l.selected[i+1:]...)
				break
			}
		}
	}
	if l.store != nil {
		if err := l.store.SetSelected(id, selected); err != nil {
			logging.Ledger("persist selection failed for %s: %v", id, err)
		}
	}
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Selected returns the selected entries in selection order, oldest first.
func (l *Ledger) Selected() []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0, len(l.selected))
	for _, id := range l.selected {
		if idx := l.indexOf(id); idx >= 0 {
			out = append(out, l.entries[idx])
		}
	}
	return out
}

// Entries returns the full history, oldest first.
func (l *Ledger) Entries() []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of saved runs.
func (l *Ledger) Len() int { return len(l.entries) }

// DeriveStatus classifies a verdict line for the comparison views. The match
// is case-insensitive: CRITICAL or OOM beats WARNING or RISKY beats safe.
func DeriveStatus(verdict string) types.RunStatus {
	v := strings.ToUpper(verdict)
	switch {
	case strings.Contains(v, "CRITICAL") || strings.Contains(v, "OOM"):
		return types.StatusCritical
	case strings.Contains(v, "WARNING") || strings.Contains(v, "RISKY"):
		return types.StatusRisky
	default:
		return types.StatusSafe
	}
}
