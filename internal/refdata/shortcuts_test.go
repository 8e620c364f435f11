package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/types"
)

func llamaConfig() types.TrainingConfig {
	return types.TrainingConfig{
		ModelFamily:  "Llama-3",
		ModelParamsB: types.Float(8),
		Precision:    types.PrecisionFP32,
		BatchSize:    types.Int(32),
	}
}

func mistralConfig() types.TrainingConfig {
	return types.TrainingConfig{
		ModelFamily:  "Mistral",
		ModelParamsB: types.Float(7),
		Precision:    types.PrecisionFP16,
		BatchSize:    types.Int(4),
	}
}

func TestShortcutLookupLlama(t *testing.T) {
	table := NewShortcutTable()

	got := table.Lookup(llamaConfig())
	require.NotNil(t, got)
	assert.Equal(t, "CRITICAL FAILURE (OOM)", got.Report.Verdict)
	assert.Equal(t, 95, got.Report.ConfidenceScore)
	require.NotNil(t, got.Breakdown)
	assert.Len(t, got.Breakdown.Debate.Rounds, 3)
}

func TestShortcutLookupMistral(t *testing.T) {
	table := NewShortcutTable()

	got := table.Lookup(mistralConfig())
	require.NotNil(t, got)
	assert.Equal(t, "RISKY (High Probability of Crash)", got.Report.Verdict)
	assert.Equal(t, 85, got.Report.ConfidenceScore)
	assert.Equal(t, 0.65, got.Breakdown.Council.Hardware.OOMProbability)
}

func TestShortcutMatchingIsNumeric(t *testing.T) {
	table := NewShortcutTable()

	within := llamaConfig()
	within.ModelParamsB = types.Float(8.3)
	assert.NotNil(t, table.Lookup(within), "8.3B falls inside the 8B bucket")

	outside := llamaConfig()
	outside.ModelParamsB = types.Float(8.6)
	assert.Nil(t, table.Lookup(outside), "8.6B falls outside the 8B bucket")

	caseFold := llamaConfig()
	caseFold.ModelFamily = "  llama-3 "
	assert.NotNil(t, table.Lookup(caseFold), "family match is case and space insensitive")
}

func TestShortcutSignatureMisses(t *testing.T) {
	table := NewShortcutTable()

	smallBatch := llamaConfig()
	smallBatch.BatchSize = types.Int(16)
	assert.Nil(t, table.Lookup(smallBatch))

	noBatch := llamaConfig()
	noBatch.BatchSize = nil
	assert.Nil(t, table.Lookup(noBatch))

	fp32Mistral := mistralConfig()
	fp32Mistral.Precision = types.PrecisionFP32
	assert.Nil(t, table.Lookup(fp32Mistral))

	assert.Nil(t, table.Lookup(types.TrainingConfig{ModelFamily: "GPT-2"}))
}

func TestShortcutLookupReturnsCopy(t *testing.T) {
	table := NewShortcutTable()

	first := table.Lookup(llamaConfig())
	require.NotNil(t, first)
	first.Report.Verdict = "mutated"

	second := table.Lookup(llamaConfig())
	assert.Equal(t, "CRITICAL FAILURE (OOM)", second.Report.Verdict)
}
