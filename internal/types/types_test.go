package types

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTrainingConfigClone(t *testing.T) {
	orig := TrainingConfig{
		GPU:          "rtx4090",
		ModelFamily:  "Llama-3",
		ModelParamsB: Float(8),
		Precision:    PrecisionFP32,
		BatchSize:    Int(32),
		LearningRate: Float(5e-5),
	}

	clone := orig.Clone()
	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	*clone.BatchSize = 4
	*clone.ModelParamsB = 70
	assert.Equal(t, 32, *orig.BatchSize, "clone must not alias the original's pointers")
	assert.Equal(t, 8.0, *orig.ModelParamsB)

	empty := TrainingConfig{}
	if diff := cmp.Diff(empty, empty.Clone()); diff != "" {
		t.Fatalf("empty clone differs:\n%s", diff)
	}
}

func TestIntentValid(t *testing.T) {
	for _, i := range []Intent{IntentExplain, IntentAdvise, IntentReview,
		IntentBrainstorm, IntentDebug, IntentCasual, IntentSuggestConfig} {
		assert.True(t, i.Valid(), "%s", i)
	}
	assert.False(t, Intent("poetry").Valid())
	assert.False(t, Intent("").Valid())
}

func TestIsTransient(t *testing.T) {
	transient := &GatewayError{Transient: true, Err: errors.New("503")}
	assert.True(t, IsTransient(transient))
	assert.True(t, IsTransient(&AnalysisError{Stage: StageSynthesis, Err: transient}))

	assert.False(t, IsTransient(&GatewayError{Transient: false, Err: errors.New("bad request")}))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestAnalysisErrorStage(t *testing.T) {
	inner := errors.New("boom")
	err := &AnalysisError{Stage: StageHardware, Err: inner}
	assert.Contains(t, err.Error(), "hardware")
	assert.ErrorIs(t, err, inner)
}
