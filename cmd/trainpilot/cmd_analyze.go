package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trainpilot/internal/council"
	"trainpilot/internal/ledger"
	"trainpilot/internal/perception"
	"trainpilot/internal/refdata"
	"trainpilot/internal/types"
)

// Analyze flags are strings so that "not set" stays distinguishable from a
// zero value; numerics parse only when non-empty.
var analyzeFlags struct {
	gpuPreset   string
	modelPreset string
	modelFamily string
	params      string
	precision   string
	batch       string
	gradAccum   string
	seqLen      string
	epochs      string
	lr          string
	datasetSize string
	optimizer   string
	notes       string
	save        bool
	showDebate  bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the council over a training configuration",
	Long: `Analyzes a planned training run and prints a verdict with actionable
recommendations.

Hardware and model can come from presets (see "trainpilot presets") or be
specified field by field. Unset fields stay unset; the council infers
defaults and reports its assumptions.

Example:
  trainpilot analyze --gpu rtx4090 --model llama3_8b --batch 32 --precision fp32`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.gpuPreset, "gpu", "", "GPU preset key")
	f.StringVar(&analyzeFlags.modelPreset, "model", "", "model preset key")
	f.StringVar(&analyzeFlags.modelFamily, "family", "", "model family (overrides preset)")
	f.StringVar(&analyzeFlags.params, "params", "", "parameter count in billions")
	f.StringVar(&analyzeFlags.precision, "precision", "", "fp32, fp16, bf16 or int8")
	f.StringVar(&analyzeFlags.batch, "batch", "", "batch size")
	f.StringVar(&analyzeFlags.gradAccum, "grad-accum", "", "gradient accumulation steps")
	f.StringVar(&analyzeFlags.seqLen, "seq-len", "", "sequence length")
	f.StringVar(&analyzeFlags.epochs, "epochs", "", "epoch count")
	f.StringVar(&analyzeFlags.lr, "lr", "", "learning rate")
	f.StringVar(&analyzeFlags.datasetSize, "dataset-size", "", "dataset size in samples")
	f.StringVar(&analyzeFlags.optimizer, "optimizer", "", "optimizer name")
	f.StringVar(&analyzeFlags.notes, "notes", "", "free-form context for the council")
	f.BoolVar(&analyzeFlags.save, "save", false, "save the result to run history")
	f.BoolVar(&analyzeFlags.showDebate, "debate", false, "print the full council breakdown")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags()
	if err != nil {
		return err
	}

	var store *ledger.SQLiteStore
	if analyzeFlags.save {
		store, err = ledger.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
	}

	analysis, err := runCouncil(cmd, cfg)
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
		analysis = council.FailureVerdict(err)
	}

	fmt.Print(renderAnalysis(analysis, analyzeFlags.showDebate))

	if store != nil && analysis.Report.Verdict != "ANALYSIS FAILED" {
		l := ledger.New(store)
		entry := l.Append(cfg, *analysis)
		fmt.Printf("\nSaved as run %s (%s).\n", entry.ID, entry.Status)
	}
	return nil
}

func runCouncil(cmd *cobra.Command, cfg types.TrainingConfig) (*types.Analysis, error) {
	// Benchmark signatures resolve without a key or gateway.
	if hit := refdata.NewShortcutTable().Lookup(cfg); hit != nil {
		playDebate(cmd.Context(), hit)
		return hit, nil
	}
	if apiKey == "" {
		return nil, types.ErrMissingAPIKey
	}

	gc := perception.DefaultGeminiConfig(apiKey)
	if model != "" {
		gc.Model = model
	}
	client, err := perception.NewGeminiClientWithConfig(cmd.Context(), gc)
	if err != nil {
		return nil, err
	}
	return council.New(client).Analyze(cmd.Context(), cfg, nil)
}

// playDebate streams a pre-resolved trace's stages to stdout.
func playDebate(ctx context.Context, analysis *types.Analysis) {
	labels := map[council.Phase]string{
		council.PhaseNormalize: "Normalizing configuration...",
		council.PhaseCouncil:   "Council critics deliberating...",
		council.PhaseSynthesis: "Synthesizing verdict...",
	}
	for ev := range council.Playback(ctx, analysis) {
		if ev.Round != nil {
			fmt.Printf("  %s: %s\n", ev.Round.Speaker, ev.Round.Text)
			continue
		}
		if label, ok := labels[ev.Phase]; ok {
			fmt.Println(label)
		}
	}
	fmt.Println()
}

func configFromFlags() (types.TrainingConfig, error) {
	var cfg types.TrainingConfig

	if analyzeFlags.gpuPreset != "" {
		gpu, ok := refdata.LookupGPU(analyzeFlags.gpuPreset)
		if !ok {
			return cfg, fmt.Errorf("unknown GPU preset %q (see: trainpilot presets)", analyzeFlags.gpuPreset)
		}
		cfg.GPU = analyzeFlags.gpuPreset
		cfg.GPUName = gpu.Name
		cfg.VRAMGB = types.Float(gpu.VRAMGB)
		cfg.RAMGB = types.Float(gpu.RAMGB)
	}
	if analyzeFlags.modelPreset != "" {
		m, ok := refdata.LookupModel(analyzeFlags.modelPreset)
		if !ok {
			return cfg, fmt.Errorf("unknown model preset %q (see: trainpilot presets)", analyzeFlags.modelPreset)
		}
		cfg.ModelFamily = m.Family
		cfg.ModelParamsB = types.Float(m.ParamsB)
	}
	if analyzeFlags.modelFamily != "" {
		cfg.ModelFamily = analyzeFlags.modelFamily
	}
	cfg.Optimizer = analyzeFlags.optimizer
	cfg.Notes = analyzeFlags.notes

	if p := analyzeFlags.precision; p != "" {
		switch types.Precision(strings.ToLower(p)) {
		case types.PrecisionFP32, types.PrecisionFP16, types.PrecisionBF16, types.PrecisionINT8:
			cfg.Precision = types.Precision(strings.ToLower(p))
		default:
			return cfg, fmt.Errorf("unknown precision %q", p)
		}
	}

	var err error
	if cfg.ModelParamsB, err = floatFlag("params", analyzeFlags.params, cfg.ModelParamsB); err != nil {
		return cfg, err
	}
	if cfg.LearningRate, err = floatFlag("lr", analyzeFlags.lr, nil); err != nil {
		return cfg, err
	}
	if cfg.BatchSize, err = intFlag("batch", analyzeFlags.batch); err != nil {
		return cfg, err
	}
	if cfg.GradAccum, err = intFlag("grad-accum", analyzeFlags.gradAccum); err != nil {
		return cfg, err
	}
	if cfg.SeqLength, err = intFlag("seq-len", analyzeFlags.seqLen); err != nil {
		return cfg, err
	}
	if cfg.Epochs, err = intFlag("epochs", analyzeFlags.epochs); err != nil {
		return cfg, err
	}
	if cfg.DatasetSize, err = intFlag("dataset-size", analyzeFlags.datasetSize); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func floatFlag(name, value string, fallback *float64) (*float64, error) {
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a number", name, value)
	}
	return &f, nil
}

func intFlag(name, value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not an integer", name, value)
	}
	return &n, nil
}
