package chat

import (
	"fmt"
	"math"
	"strings"

	"trainpilot/internal/types"
)

// DemoReply answers a message without any gateway access, by quoting the
// finished analysis. Used when no API key is configured.
func DemoReply(message string, analysis *types.Analysis) string {
	msg := strings.ToLower(message)
	hasAnalysis := analysis != nil && analysis.Report.Verdict != ""

	switch {
	case strings.Contains(msg, "memory") || strings.Contains(msg, "vram"):
		if hasAnalysis && analysis.Breakdown != nil && analysis.Breakdown.Council.Hardware != nil {
			hw := analysis.Breakdown.Council.Hardware
			extra := hw.Risk.KillerFactor
			if extra == "" {
				extra = "No critical memory issues detected."
			}
			return fmt.Sprintf("**Memory Analysis:**\n\n"+
				"- Estimated model weights: ~%.1f GB\n"+
				"- Peak VRAM usage: ~%.1f GB\n"+
				"- OOM Risk: %d%%\n\n%s",
				hw.Memory.ModelMemGB, hw.Memory.PeakUsageGB,
				int(math.Round(hw.OOMProbability*100)), extra)
		}
		return "Run an analysis first to see memory breakdown."

	case strings.Contains(msg, "assumption") || strings.Contains(msg, "estimate"):
		if hasAnalysis && analysis.Breakdown != nil && analysis.Breakdown.Normalized != nil &&
			len(analysis.Breakdown.Normalized.Assumptions) > 0 {
			var b strings.Builder
			b.WriteString("**Current Assumptions:**\n\n")
			for _, a := range analysis.Breakdown.Normalized.Assumptions {
				b.WriteString("- " + a + "\n")
			}
			b.WriteString("\nThese are inferred from your config. Update your notes with corrections and re-run.")
			return b.String()
		}
		return "Run an analysis first to see assumptions."

	case strings.Contains(msg, "recommend") || strings.Contains(msg, "advice") || strings.Contains(msg, "suggest"):
		if hasAnalysis && len(analysis.Report.Recommendations) > 0 {
			var b strings.Builder
			b.WriteString("**Recommendations:**\n\n")
			for _, r := range analysis.Report.Recommendations {
				fmt.Fprintf(&b, "- **%s:** %s\n", r.Category, r.Advice)
			}
			return strings.TrimRight(b.String(), "\n")
		}
		return "Run an analysis first to get recommendations."

	case strings.Contains(msg, "verdict") || strings.Contains(msg, "safe") || strings.Contains(msg, "risk"):
		if hasAnalysis {
			return fmt.Sprintf("**Verdict:** %s\n\nConfidence: %d%%",
				analysis.Report.Verdict, analysis.Report.ConfidenceScore)
		}
		return "Run an analysis first to see the verdict."

	case strings.Contains(msg, "question") || strings.Contains(msg, "missing"):
		if hasAnalysis && len(analysis.Report.OpenQuestions) > 0 {
			var b strings.Builder
			b.WriteString("**Open Questions:**\n\n")
			for _, q := range analysis.Report.OpenQuestions {
				fmt.Fprintf(&b, "- **%s:** %s\n", q.Topic, q.Question)
			}
			b.WriteString("\nAnswer these in your notes and re-run the analysis.")
			return b.String()
		}
		return "No open questions — the analysis has all the info it needs!"
	}

	if hasAnalysis {
		return "I have your analysis ready. Ask me about:\n\n" +
			"- **Memory usage** and VRAM estimates\n" +
			"- **Recommendations** for optimization\n" +
			"- **Assumptions** I made\n" +
			"- **Open questions** I need answered\n\n" +
			"Or ask any ML training question!\n\n" +
			"*Note: For full AI chat, add your Gemini API key.*"
	}
	return "**Demo Mode**\n\nI can help once you run an analysis. Run `trainpilot analyze` first!\n\n" +
		"For full AI chat capabilities, set GEMINI_API_KEY."
}
