// Package session owns the per-user working state: the config being edited,
// the latest analysis, the conversation transcript, and the run ledger. A
// session is single-user, single-goroutine state.
package session

import (
	"github.com/google/uuid"

	"trainpilot/internal/ledger"
	"trainpilot/internal/logging"
	"trainpilot/internal/types"
)

// Session is the mutable working state of one advisory sitting.
type Session struct {
	ID         string
	Config     types.TrainingConfig
	Analysis   *types.Analysis
	Ledger     *ledger.Ledger
	transcript []types.ConversationTurn

	// modified is set when the config changes after an analysis, so the
	// presentation layer can flag the verdict as stale.
	modified bool
}

// New creates an empty session backed by the given ledger store (nil for
// in-memory only).
func New(store ledger.Store) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Ledger: ledger.New(store),
	}
	logging.SessionDebug("session %s started", s.ID)
	return s
}

// SetConfig replaces the working config. An existing analysis is kept but
// marked stale.
func (s *Session) SetConfig(cfg types.TrainingConfig) {
	s.Config = cfg
	if s.Analysis != nil {
		s.modified = true
	}
}

// SetAnalysis installs a fresh analysis result and clears staleness.
func (s *Session) SetAnalysis(a *types.Analysis) {
	s.Analysis = a
	s.modified = false
}

// Stale reports whether the config changed after the current analysis ran.
func (s *Session) Stale() bool { return s.modified }

// SaveToHistory freezes the current (config, analysis) pair into the ledger.
// Returns false when there is nothing to save.
func (s *Session) SaveToHistory() (types.HistoryEntry, bool) {
	if s.Analysis == nil {
		return types.HistoryEntry{}, false
	}
	entry := s.Ledger.Append(s.Config, *s.Analysis)
	logging.SessionDebug("session %s saved run %s (%s)", s.ID, entry.ID, entry.Status)
	return entry, true
}

// AppendTurn adds one turn to the transcript. The transcript is append-only.
func (s *Session) AppendTurn(turn types.ConversationTurn) {
	s.transcript = append(s.transcript, turn)
}

// RecentTurns returns up to n of the latest transcript turns, oldest first.
func (s *Session) RecentTurns(n int) []types.ConversationTurn {
	if n <= 0 || len(s.transcript) == 0 {
		return nil
	}
	start := len(s.transcript) - n
	if start < 0 {
		start = 0
	}
	out := make([]types.ConversationTurn, len(s.transcript)-start)
	copy(out, s.transcript[start:])
	return out
}

// Transcript returns the full transcript, oldest first.
func (s *Session) Transcript() []types.ConversationTurn {
	out := make([]types.ConversationTurn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Digest builds the context digest for the current config and analysis.
func (s *Session) Digest() string {
	return BuildDigest(s.Config, s.Analysis)
}

// PriorRunSummaries renders one line per saved run, for the normalization
// stage's history context.
func (s *Session) PriorRunSummaries() []string {
	entries := s.Ledger.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarizeRun(e))
	}
	return out
}

func summarizeRun(e types.HistoryEntry) string {
	return "[" + string(e.Status) + "] " + BuildDigestLine(e.Config) + " -> " + e.Analysis.Report.Verdict
}

// Reset clears the transcript and analysis but keeps the ledger.
func (s *Session) Reset() {
	s.transcript = nil
	s.Analysis = nil
	s.Config = types.TrainingConfig{}
	s.modified = false
	logging.SessionDebug("session %s reset", s.ID)
}
