package council

import (
	"context"
	"time"

	"trainpilot/internal/types"
)

// Phase is one visible stage of the deliberation, in pipeline order.
type Phase string

const (
	PhaseNormalize Phase = "normalize"
	PhaseCouncil   Phase = "council"
	PhaseReferee   Phase = "referee"
	PhaseSynthesis Phase = "synthesis"
	PhaseDone      Phase = "done"
)

// PhaseEvent announces a stage transition during playback. Round is non-nil
// only for referee events carrying a debate utterance.
type PhaseEvent struct {
	Phase Phase
	Round *types.DebateRound
}

// playbackGap paces pre-resolved traces so shortcut results still read as a
// live deliberation in the UI.
var playbackGap = 650 * time.Millisecond

// Playback streams the stages of a finished analysis as timed events. The
// channel closes after PhaseDone or when ctx is canceled. Intended for
// shortcut hits, where no real pipeline ran.
func Playback(ctx context.Context, analysis *types.Analysis) <-chan PhaseEvent {
	ch := make(chan PhaseEvent)
	go func() {
		defer close(ch)

		emit := func(ev PhaseEvent) bool {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return false
			}
			select {
			case <-time.After(playbackGap):
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(PhaseEvent{Phase: PhaseNormalize}) {
			return
		}
		if !emit(PhaseEvent{Phase: PhaseCouncil}) {
			return
		}
		if bd := analysis.Breakdown; bd != nil && bd.Debate != nil {
			for i := range bd.Debate.Rounds {
				if !emit(PhaseEvent{Phase: PhaseReferee, Round: &bd.Debate.Rounds[i]}) {
					return
				}
			}
		} else if !emit(PhaseEvent{Phase: PhaseReferee}) {
			return
		}
		if !emit(PhaseEvent{Phase: PhaseSynthesis}) {
			return
		}
		select {
		case ch <- PhaseEvent{Phase: PhaseDone}:
		case <-ctx.Done():
		}
	}()
	return ch
}
