package session

import (
	"fmt"
	"math"
	"strings"

	"trainpilot/internal/types"
)

// Truncation caps for the context digest. The digest is injected into every
// conversational prompt, so each free-text field gets a hard character cap.
const (
	reasoningCap = 150
	adviceCap    = 100
	notesCap     = 200
	maxDigestRec = 3
)

const notSpecified = "not specified"

// BuildDigest renders the compact textual summary of the current config and
// latest analysis that grounds conversational replies. analysis may be nil
// when no run has completed yet.
func BuildDigest(cfg types.TrainingConfig, analysis *types.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User's Config: Model=%s, GPU=%s (%s VRAM), ",
		orDefault(cfg.ModelFamily), orDefault(cfg.GPUName), floatField(cfg.VRAMGB, "GB"))
	fmt.Fprintf(&b, "Batch=%s, LR=%s, Epochs=%s, Precision=%s",
		intField(cfg.BatchSize), floatField(cfg.LearningRate, ""),
		intField(cfg.Epochs), orDefault(string(cfg.Precision)))

	if cfg.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", truncate(cfg.Notes, notesCap))
	}

	if analysis == nil || analysis.Report.Verdict == "" {
		return b.String()
	}

	b.WriteString("\n\n=== ANALYSIS RESULTS ===")
	fmt.Fprintf(&b, "\nVerdict: %s", analysis.Report.Verdict)

	if bd := analysis.Breakdown; bd != nil && bd.Council.Hardware != nil {
		hw := bd.Council.Hardware
		fmt.Fprintf(&b, "\nOOM Risk: %d%%", int(math.Round(hw.OOMProbability*100)))
		fmt.Fprintf(&b, "\nEstimated Peak VRAM: %.1fGB", hw.Memory.PeakUsageGB)
		fmt.Fprintf(&b, "\nModel Weights: %.1fGB", hw.Memory.ModelMemGB)
		if hw.Reasoning != "" {
			fmt.Fprintf(&b, "\nHardware Analysis: %s", truncate(hw.Reasoning, reasoningCap))
		}
	}

	if recs := analysis.Report.Recommendations; len(recs) > 0 {
		b.WriteString("\n\nKey Recommendations:")
		for i, rec := range recs {
			if i >= maxDigestRec {
				break
			}
			fmt.Fprintf(&b, "\n- %s: %s", rec.Category, truncate(rec.Advice, adviceCap))
		}
	}

	return b.String()
}

// BuildDigestLine renders a config as a single line, for run summaries.
func BuildDigestLine(cfg types.TrainingConfig) string {
	return fmt.Sprintf("%s %sB on %s, batch=%s, %s",
		orDefault(cfg.ModelFamily), floatField(cfg.ModelParamsB, ""),
		orDefault(cfg.GPUName), intField(cfg.BatchSize), orDefault(string(cfg.Precision)))
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func intField(p *int) string {
	if p == nil {
		return notSpecified
	}
	return fmt.Sprintf("%d", *p)
}

func floatField(p *float64, unit string) string {
	if p == nil {
		return notSpecified
	}
	return fmt.Sprintf("%g%s", *p, unit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
