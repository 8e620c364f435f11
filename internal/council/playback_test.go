package council

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/refdata"
	"trainpilot/internal/types"
)

func TestPlaybackEmitsAllPhases(t *testing.T) {
	prev := playbackGap
	playbackGap = time.Millisecond
	defer func() { playbackGap = prev }()

	trace := refdata.NewShortcutTable().Lookup(types.TrainingConfig{
		ModelFamily:  "Mistral",
		ModelParamsB: types.Float(7),
		Precision:    types.PrecisionFP16,
	})
	require.NotNil(t, trace)

	var phases []Phase
	var rounds int
	for ev := range Playback(context.Background(), trace) {
		phases = append(phases, ev.Phase)
		if ev.Round != nil {
			rounds++
		}
	}

	assert.Equal(t, PhaseNormalize, phases[0])
	assert.Equal(t, PhaseDone, phases[len(phases)-1])
	assert.Equal(t, len(trace.Breakdown.Debate.Rounds), rounds)
}

func TestPlaybackCancel(t *testing.T) {
	prev := playbackGap
	playbackGap = 50 * time.Millisecond
	defer func() { playbackGap = prev }()

	ctx, cancel := context.WithCancel(context.Background())
	ch := Playback(ctx, &types.Analysis{})

	<-ch
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("playback channel did not close after cancel")
		}
	}
}
