package council

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/perception"
	"trainpilot/internal/types"
)

// stageClient answers GenerateJSON by matching the system prompt to a
// pipeline stage and counts calls per stage.
type stageClient struct {
	mu        sync.Mutex
	calls     map[string]int
	responses map[string]string
	failures  map[string]error
}

func newStageClient() *stageClient {
	return &stageClient{
		calls: map[string]int{},
		responses: map[string]string{
			"normalize": `{"explicit":{"batch":64},"inferred":{"optimizer":"AdamW"},"confidence_map":{"gpu_specs":0.9},"assumptions":["Single GPU"],"unknowns":[]}`,
			"hardware":  `{"agent_role":"pessimist","memory_analysis":{"model_mem_gb":14,"peak_usage_gb":22.8,"total_vram_usage":22.8},"max_safe_batch":4,"oom_probability":0.65,"risk_assessment":{"level":"med","killer_factor":"fragmentation"},"reasoning":"tight"}`,
			"dynamics":  `{"agent_role":"optimist","training_dynamics":{"training_time_hours":12,"recommended_batch":16,"convergence_risk":"low"},"optimization_strategy":{"use_gradient_checkpointing":true},"reasoning":"fine","recommendation":"proceed"}`,
			"referee":   `{"agreement_score":4,"conflicts":[{"type":"BATCH_CONFLICT","severity":"high","description":"4 vs 16"}],"concerns":["batch"],"synthesis_direction":"Trust Hardware on limits"}`,
			"synthesis": `{"verdict":"RISKY","debate_summary":"Pessimist argued OOM.","recommendations":[{"category":"Batch Size","advice":"Reduce to 4."}],"open_questions":[],"confidence_score":80}`,
		},
		failures: map[string]error{},
	}
}

func stageFor(system string) string {
	switch {
	case strings.Contains(system, "structural analyst"):
		return "normalize"
	case strings.Contains(system, "HARDWARE PESSIMIST"):
		return "hardware"
	case strings.Contains(system, "TRAINING OPTIMIST"):
		return "dynamics"
	case strings.Contains(system, "DEBATE REFEREE"):
		return "referee"
	case strings.Contains(system, "CHIEF SYNTHESIST"):
		return "synthesis"
	}
	return "unknown"
}

func (c *stageClient) GenerateJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stage := stageFor(system)
	c.calls[stage]++
	if err := c.failures[stage]; err != nil {
		return nil, err
	}
	return json.RawMessage(c.responses[stage]), nil
}

func (c *stageClient) GenerateText(ctx context.Context, req perception.TextRequest) (*perception.TextResult, error) {
	return nil, errors.New("not used by the council")
}

func (c *stageClient) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func riskyConfig() types.TrainingConfig {
	return types.TrainingConfig{
		ModelFamily:  "Qwen",
		ModelParamsB: types.Float(7),
		BatchSize:    types.Int(64),
		Precision:    types.PrecisionFP16,
	}
}

func TestAnalyzeShortcutSkipsGateway(t *testing.T) {
	client := newStageClient()
	o := New(client)

	cfg := types.TrainingConfig{
		ModelFamily:  "Llama-3",
		ModelParamsB: types.Float(8),
		BatchSize:    types.Int(32),
		Precision:    types.PrecisionFP32,
	}
	analysis, err := o.Analyze(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "CRITICAL FAILURE (OOM)", analysis.Report.Verdict)
	assert.Equal(t, 0, client.total(), "shortcut hits make no gateway calls")
}

func TestAnalyzeFullPipeline(t *testing.T) {
	client := newStageClient()
	o := New(client)

	analysis, err := o.Analyze(context.Background(), riskyConfig(), []string{"[safe] Mistral 7B -> SAFE"})
	require.NoError(t, err)

	assert.Equal(t, "RISKY", analysis.Report.Verdict)
	assert.Equal(t, 80, analysis.Report.ConfidenceScore)
	require.NotNil(t, analysis.Breakdown)
	require.NotNil(t, analysis.Breakdown.Normalized)
	assert.Equal(t, []string{"Single GPU"}, analysis.Breakdown.Normalized.Assumptions)
	require.NotNil(t, analysis.Breakdown.Council.Hardware)
	assert.Equal(t, 0.65, analysis.Breakdown.Council.Hardware.OOMProbability)
	require.NotNil(t, analysis.Breakdown.Council.Dynamics)
	require.NotNil(t, analysis.Breakdown.Referee)

	require.NotNil(t, analysis.Breakdown.Debate)
	rounds := analysis.Breakdown.Debate.Rounds
	require.Len(t, rounds, 2)
	assert.Contains(t, rounds[0].Text, "Major Conflict: BATCH_CONFLICT")
	assert.Equal(t, "resolution", rounds[1].Type)

	for _, stage := range []string{"normalize", "hardware", "dynamics", "referee", "synthesis"} {
		assert.Equal(t, 1, client.calls[stage], "stage %s", stage)
	}
}

func TestAnalyzeCachesResults(t *testing.T) {
	client := newStageClient()
	o := New(client)

	_, err := o.Analyze(context.Background(), riskyConfig(), nil)
	require.NoError(t, err)
	first := client.total()

	_, err = o.Analyze(context.Background(), riskyConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, first, client.total(), "repeat of an identical config is served from cache")
}

func TestAnalyzeCriticFailureIsFatal(t *testing.T) {
	client := newStageClient()
	client.failures["hardware"] = errors.New("boom")
	o := New(client)

	_, err := o.Analyze(context.Background(), riskyConfig(), nil)
	require.Error(t, err)

	var stageErr *types.AnalysisError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageHardware, stageErr.Stage)
	assert.Equal(t, 0, client.calls["referee"], "pipeline stops before arbitration")
	assert.Equal(t, 0, client.calls["synthesis"])
}

func TestAnalyzeRefereeFailureIsAdvisory(t *testing.T) {
	client := newStageClient()
	client.failures["referee"] = errors.New("referee down")
	o := New(client)

	analysis, err := o.Analyze(context.Background(), riskyConfig(), nil)
	require.NoError(t, err, "arbitration failure must not fail the analysis")
	assert.Nil(t, analysis.Breakdown.Referee)
	assert.Equal(t, 1, client.calls["synthesis"])

	rounds := analysis.Breakdown.Debate.Rounds
	require.Len(t, rounds, 1)
	assert.Equal(t, "agreement", rounds[0].Type)
}

func TestAnalyzeSynthesisParseFailureIsFatal(t *testing.T) {
	client := newStageClient()
	client.responses["synthesis"] = "I could not produce a report, sorry."
	o := New(client)

	_, err := o.Analyze(context.Background(), riskyConfig(), nil)
	require.Error(t, err)

	var stageErr *types.AnalysisError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageSynthesis, stageErr.Stage)
}

func TestFailureVerdict(t *testing.T) {
	v := FailureVerdict(errors.New("quota exceeded"))
	assert.Equal(t, "ANALYSIS FAILED", v.Report.Verdict)
	assert.Equal(t, 0, v.Report.ConfidenceScore)
	assert.Len(t, v.Report.Recommendations, 3)
	assert.Contains(t, v.Report.DebateSummary, "quota exceeded")
	assert.NotNil(t, v.Report.OpenQuestions)
}
