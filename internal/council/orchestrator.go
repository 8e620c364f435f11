// Package council runs the multi-agent deliberation pipeline over a training
// config: normalize, critique in parallel from opposed perspectives, referee
// the disagreement, then synthesize a single verdict.
package council

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"trainpilot/internal/articulation"
	"trainpilot/internal/logging"
	"trainpilot/internal/perception"
	"trainpilot/internal/refdata"
	"trainpilot/internal/types"
)

// Orchestrator drives one analysis end to end. Safe for sequential reuse;
// the result cache carries across calls.
type Orchestrator struct {
	client    perception.Client
	shortcuts *refdata.ShortcutTable
	cache     *resultCache
}

// New builds an orchestrator over the given gateway client.
func New(client perception.Client) *Orchestrator {
	return &Orchestrator{
		client:    client,
		shortcuts: refdata.NewShortcutTable(),
		cache:     newResultCache(),
	}
}

// Analyze runs the full pipeline. priorRuns are one-line summaries of saved
// runs, injected into the normalization stage as background. A non-nil error
// always wraps a *types.AnalysisError naming the failed stage.
func (o *Orchestrator) Analyze(ctx context.Context, cfg types.TrainingConfig, priorRuns []string) (*types.Analysis, error) {
	if hit := o.shortcuts.Lookup(cfg); hit != nil {
		logging.Council("shortcut hit, skipping deliberation")
		return hit, nil
	}
	if cached, ok := o.cache.get(cfg); ok {
		logging.Council("cache hit for config signature")
		return cached, nil
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, &types.AnalysisError{Stage: types.StageNormalize, Err: err}
	}

	// Stage 1: normalize.
	normalized, normRecord, err := o.normalize(ctx, configJSON, priorRuns)
	if err != nil {
		return nil, err
	}

	// Stage 2: parallel critique. Both reports are required; the first
	// failure cancels the sibling.
	hardwareRaw, dynamicsRaw, council, err := o.critique(ctx, normalized)
	if err != nil {
		return nil, err
	}

	// Stage 3: arbitration is advisory. On failure synthesis proceeds with
	// a nil referee input.
	refereeRaw, referee := o.arbitrate(ctx, hardwareRaw, dynamicsRaw)

	// Stage 4: synthesis.
	verdict, err := o.synthesize(ctx, configJSON, hardwareRaw, dynamicsRaw, refereeRaw)
	if err != nil {
		return nil, err
	}

	analysis := types.Analysis{
		Report: *verdict,
		Breakdown: &types.Breakdown{
			Normalized: normRecord,
			Council:    council,
			Referee:    referee,
			Debate:     debateFromReferee(referee),
		},
	}
	o.cache.put(cfg, analysis)
	logging.Council("analysis complete: %s (confidence %d)", verdict.Verdict, verdict.ConfidenceScore)
	return &analysis, nil
}

func (o *Orchestrator) normalize(ctx context.Context, configJSON []byte, priorRuns []string) (json.RawMessage, *types.NormalizedConfig, error) {
	var user strings.Builder
	user.WriteString("Raw config:\n")
	user.Write(configJSON)
	if len(priorRuns) > 0 {
		user.WriteString("\n\nPrevious runs by this user:\n")
		for _, line := range priorRuns {
			user.WriteString("- " + line + "\n")
		}
	}

	raw, err := o.client.GenerateJSON(ctx, articulation.NormalizePrompt(), user.String())
	if err != nil {
		return nil, nil, &types.AnalysisError{Stage: types.StageNormalize, Err: err}
	}

	// The normalized record is decoration; a shape mismatch does not stop
	// the pipeline since the critics consume the raw JSON.
	var record types.NormalizedConfig
	var recordPtr *types.NormalizedConfig
	if err := json.Unmarshal(raw, &record); err == nil {
		recordPtr = &record
	} else {
		logging.CouncilDebug("normalized record not decodable: %v", err)
	}
	return raw, recordPtr, nil
}

func (o *Orchestrator) critique(ctx context.Context, normalized json.RawMessage) (json.RawMessage, json.RawMessage, types.CouncilReports, error) {
	var (
		hardwareRaw, dynamicsRaw json.RawMessage
		reports                  types.CouncilReports
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := o.client.GenerateJSON(gctx, articulation.HardwarePrompt(normalized), "Produce your hardware report.")
		if err != nil {
			return &types.AnalysisError{Stage: types.StageHardware, Err: err}
		}
		hardwareRaw = raw
		var rep types.HardwareReport
		if err := json.Unmarshal(raw, &rep); err == nil {
			reports.Hardware = &rep
		}
		return nil
	})
	g.Go(func() error {
		raw, err := o.client.GenerateJSON(gctx, articulation.DynamicsPrompt(normalized), "Produce your dynamics report.")
		if err != nil {
			return &types.AnalysisError{Stage: types.StageDynamics, Err: err}
		}
		dynamicsRaw = raw
		var rep types.DynamicsReport
		if err := json.Unmarshal(raw, &rep); err == nil {
			reports.Dynamics = &rep
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, types.CouncilReports{}, err
	}
	return hardwareRaw, dynamicsRaw, reports, nil
}

func (o *Orchestrator) arbitrate(ctx context.Context, hardwareRaw, dynamicsRaw json.RawMessage) (json.RawMessage, *types.ArbitrationResult) {
	raw, err := o.client.GenerateJSON(ctx, articulation.RefereePrompt(hardwareRaw, dynamicsRaw), "Arbitrate the two reports.")
	if err != nil {
		logging.Council("referee failed, synthesis proceeds without arbitration: %v", err)
		return nil, nil
	}
	var result types.ArbitrationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		logging.CouncilDebug("referee output not decodable: %v", err)
		return raw, nil
	}
	return raw, &result
}

func (o *Orchestrator) synthesize(ctx context.Context, configJSON, hardwareRaw, dynamicsRaw, refereeRaw json.RawMessage) (*types.Verdict, error) {
	raw, err := o.client.GenerateJSON(ctx, articulation.SynthesisPrompt(configJSON, hardwareRaw, dynamicsRaw, refereeRaw), "Write the final report.")
	if err != nil {
		return nil, &types.AnalysisError{Stage: types.StageSynthesis, Err: err}
	}
	verdict, err := articulation.ParseVerdict(string(raw))
	if err != nil {
		return nil, &types.AnalysisError{Stage: types.StageSynthesis, Err: err}
	}
	return verdict, nil
}

// debateFromReferee materializes a short debate transcript from the
// arbitration result. With no referee, the council is presented as agreeing.
func debateFromReferee(referee *types.ArbitrationResult) *types.Debate {
	if referee == nil || len(referee.Conflicts) == 0 {
		return &types.Debate{Rounds: []types.DebateRound{
			{Speaker: "Referee", Text: "No major conflicts. Both agents agree on the approach.", Type: "agreement"},
		}}
	}
	rounds := make([]types.DebateRound, 0, len(referee.Conflicts)+1)
	for _, c := range referee.Conflicts {
		rounds = append(rounds, types.DebateRound{
			Speaker: "Referee",
			Text:    fmt.Sprintf("Major Conflict: %s. %s", c.Type, c.Description),
			Type:    "conflict",
		})
	}
	if referee.SynthesisDirection != "" {
		rounds = append(rounds, types.DebateRound{
			Speaker: "Referee",
			Text:    referee.SynthesisDirection,
			Type:    "resolution",
		})
	}
	return &types.Debate{Rounds: rounds}
}

// FailureVerdict wraps a pipeline error into a renderable analysis so the
// presentation layer never shows a bare error page.
func FailureVerdict(err error) *types.Analysis {
	return &types.Analysis{
		Report: types.Verdict{
			Verdict:       "ANALYSIS FAILED",
			DebateSummary: fmt.Sprintf("The council could not complete its deliberation: %v", err),
			Recommendations: []types.Recommendation{
				{Category: "API Key", Advice: "Verify your API key is valid and has quota remaining."},
				{Category: "Retry", Advice: "Transient errors usually clear; try the analysis again."},
				{Category: "Check Quota", Advice: "Free-tier rate limits can reject bursts of requests."},
			},
			OpenQuestions:   []types.OpenQuestion{},
			ConfidenceScore: 0,
		},
	}
}
