package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"trainpilot/internal/ledger"
	"trainpilot/internal/types"
)

var (
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	riskyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	safeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
)

func verdictStyle(verdict string) lipgloss.Style {
	switch ledger.DeriveStatus(verdict) {
	case types.StatusCritical:
		return criticalStyle
	case types.StatusRisky:
		return riskyStyle
	default:
		return safeStyle
	}
}

// renderAnalysis formats a verdict (and optionally the full council
// breakdown) for the terminal.
func renderAnalysis(a *types.Analysis, showDebate bool) string {
	var b strings.Builder

	b.WriteString(verdictStyle(a.Report.Verdict).Render("VERDICT: "+a.Report.Verdict) + "\n")
	if a.Report.ConfidenceScore > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Confidence: %d%%", a.Report.ConfidenceScore)) + "\n")
	}
	if a.Report.DebateSummary != "" {
		b.WriteString("\n" + a.Report.DebateSummary + "\n")
	}

	if len(a.Report.Recommendations) > 0 {
		b.WriteString("\n" + headerStyle.Render("Recommendations") + "\n")
		for _, r := range a.Report.Recommendations {
			fmt.Fprintf(&b, "  • %s: %s\n", lipgloss.NewStyle().Bold(true).Render(r.Category), r.Advice)
		}
	}

	if len(a.Report.OpenQuestions) > 0 {
		b.WriteString("\n" + headerStyle.Render("Open Questions") + "\n")
		for _, q := range a.Report.OpenQuestions {
			fmt.Fprintf(&b, "  • %s: %s\n", q.Topic, q.Question)
			if q.Why != "" {
				b.WriteString("    " + dimStyle.Render(q.Why) + "\n")
			}
		}
	}

	if showDebate && a.Breakdown != nil {
		b.WriteString(renderBreakdown(a.Breakdown))
	}
	return b.String()
}

func renderBreakdown(bd *types.Breakdown) string {
	var b strings.Builder

	if bd.Normalized != nil && len(bd.Normalized.Assumptions) > 0 {
		b.WriteString("\n" + headerStyle.Render("Assumptions") + "\n")
		for _, a := range bd.Normalized.Assumptions {
			b.WriteString("  - " + a + "\n")
		}
	}
	if hw := bd.Council.Hardware; hw != nil {
		b.WriteString("\n" + headerStyle.Render("Hardware Critic") + "\n")
		fmt.Fprintf(&b, "  Peak VRAM: %.1fGB  OOM risk: %.0f%%  Max safe batch: %d\n",
			hw.Memory.PeakUsageGB, hw.OOMProbability*100, hw.MaxSafeBatch)
		if hw.Reasoning != "" {
			b.WriteString("  " + dimStyle.Render(hw.Reasoning) + "\n")
		}
	}
	if dyn := bd.Council.Dynamics; dyn != nil {
		b.WriteString("\n" + headerStyle.Render("Dynamics Critic") + "\n")
		fmt.Fprintf(&b, "  Recommended batch: %d  Convergence risk: %s\n",
			dyn.Dynamics.RecommendedBatch, dyn.Dynamics.ConvergenceRisk)
		if dyn.Reasoning != "" {
			b.WriteString("  " + dimStyle.Render(dyn.Reasoning) + "\n")
		}
	}
	if bd.Debate != nil && len(bd.Debate.Rounds) > 0 {
		b.WriteString("\n" + headerStyle.Render("Debate") + "\n")
		for _, r := range bd.Debate.Rounds {
			fmt.Fprintf(&b, "  [%s] %s\n", r.Speaker, r.Text)
		}
	}
	return b.String()
}

// renderMarkdown renders conversational replies through glamour, falling
// back to plain text when the terminal renderer cannot be built.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func statusBadge(s types.RunStatus) string {
	switch s {
	case types.StatusCritical:
		return criticalStyle.Render("CRITICAL")
	case types.StatusRisky:
		return riskyStyle.Render("RISKY")
	default:
		return safeStyle.Render("SAFE")
	}
}
