package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/types"
)

func TestBuildDigestNoAnalysis(t *testing.T) {
	cfg := types.TrainingConfig{
		ModelFamily: "Mistral",
		GPUName:     "NVIDIA RTX 4090",
		VRAMGB:      types.Float(24),
		BatchSize:   types.Int(4),
		Precision:   types.PrecisionFP16,
	}

	got := BuildDigest(cfg, nil)
	assert.Contains(t, got, "Model=Mistral")
	assert.Contains(t, got, "(24GB VRAM)")
	assert.Contains(t, got, "Batch=4")
	assert.Contains(t, got, "LR=not specified")
	assert.NotContains(t, got, "ANALYSIS RESULTS")
}

func TestBuildDigestAbsentFields(t *testing.T) {
	got := BuildDigest(types.TrainingConfig{}, nil)
	assert.Contains(t, got, "Model=not specified")
	assert.Contains(t, got, "(not specified VRAM)")
	assert.Contains(t, got, "Precision=not specified")
}

func TestBuildDigestBounds(t *testing.T) {
	analysis := &types.Analysis{
		Report: types.Verdict{
			Verdict: "RISKY (High Probability of Crash)",
			Recommendations: []types.Recommendation{
				{Category: "Precision", Advice: strings.Repeat("a", 5000)},
				{Category: "Batch", Advice: "lower it"},
				{Category: "System", Advice: "close apps"},
				{Category: "Extra", Advice: "never rendered"},
			},
		},
		Breakdown: &types.Breakdown{
			Council: types.CouncilReports{
				Hardware: &types.HardwareReport{
					OOMProbability: 0.65,
					Memory:         types.MemoryAnalysis{PeakUsageGB: 22.8, ModelMemGB: 14},
					Reasoning:      strings.Repeat("x", 10000),
				},
			},
		},
	}
	cfg := types.TrainingConfig{Notes: strings.Repeat("n", 9000)}

	got := BuildDigest(cfg, analysis)

	assert.Contains(t, got, "OOM Risk: 65%")
	assert.Contains(t, got, "Estimated Peak VRAM: 22.8GB")
	assert.NotContains(t, got, "Extra", "only the first three recommendations appear")

	// Bounded fields stay bounded no matter the input size.
	for _, line := range strings.Split(got, "\n") {
		switch {
		case strings.HasPrefix(line, "Hardware Analysis: "):
			assert.LessOrEqual(t, len(line), len("Hardware Analysis: ")+reasoningCap)
		case strings.HasPrefix(line, "Notes: "):
			assert.LessOrEqual(t, len(line), len("Notes: ")+notesCap)
		case strings.HasPrefix(line, "- Precision: "):
			assert.LessOrEqual(t, len(line), len("- Precision: ")+adviceCap)
		}
	}
	require.Less(t, len(got), 2000, "digest must stay small regardless of inputs")
}

func TestBuildDigestLine(t *testing.T) {
	cfg := types.TrainingConfig{
		ModelFamily:  "Llama-3",
		ModelParamsB: types.Float(8),
		GPUName:      "NVIDIA RTX 4090",
		BatchSize:    types.Int(32),
		Precision:    types.PrecisionFP32,
	}
	got := BuildDigestLine(cfg)
	assert.Equal(t, "Llama-3 8B on NVIDIA RTX 4090, batch=32, fp32", got)
}
