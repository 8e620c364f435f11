package articulation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"trainpilot/internal/types"
)

// UnmarshalFirstObject finds the first JSON object embedded in model output
// and unmarshals it into v. Returns false when no candidate parses.
func UnmarshalFirstObject(text string, v any) bool {
	if json.Unmarshal([]byte(strings.TrimSpace(text)), v) == nil {
		return true
	}
	for _, cand := range findJSONCandidates(text) {
		if json.Unmarshal([]byte(cand), v) == nil {
			return true
		}
	}
	return false
}

// ParseVerdict turns model output into a Verdict. The structured JSON path
// is primary; the line-oriented legacy parser is a compatibility shim for
// models that answer in prose despite the JSON instruction. Both paths yield
// the same Verdict shape, so downstream code is parser-agnostic.
func ParseVerdict(text string) (*types.Verdict, error) {
	var v types.Verdict
	if UnmarshalFirstObject(text, &v) && v.Verdict != "" {
		if v.OpenQuestions == nil {
			v.OpenQuestions = []types.OpenQuestion{}
		}
		return &v, nil
	}
	return parseLegacyVerdict(text)
}

var (
	legacyVerdictRe    = regexp.MustCompile(`(?im)^\s*\**\s*verdict\s*\**\s*[:\-]\s*\**\s*(.+?)\**\s*$`)
	legacySummaryRe    = regexp.MustCompile(`(?im)^\s*\**\s*(?:debate[ _]summary|summary)\s*\**\s*[:\-]\s*\**\s*(.+?)\**\s*$`)
	legacyConfidenceRe = regexp.MustCompile(`(?i)confidence(?:[ _]score)?\s*[:\-]?\s*(\d{1,3})`)
	legacyRecRe        = regexp.MustCompile(`(?m)^\s*[-*]\s*\**([^:*\n]{1,60})\**\s*:\s*(.+)$`)
)

// parseLegacyVerdict recovers a Verdict from free-form text. Recognizes a
// "Verdict:" line, an optional summary line, "- Category: advice" bullets,
// and a trailing confidence figure.
func parseLegacyVerdict(text string) (*types.Verdict, error) {
	m := legacyVerdictRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: no verdict line in output", types.ErrUnparsable)
	}

	v := &types.Verdict{
		Verdict:         strings.TrimSpace(m[1]),
		Recommendations: []types.Recommendation{},
		OpenQuestions:   []types.OpenQuestion{},
	}

	if sm := legacySummaryRe.FindStringSubmatch(text); sm != nil {
		v.DebateSummary = strings.TrimSpace(sm[1])
	}
	if cm := legacyConfidenceRe.FindStringSubmatch(text); cm != nil {
		if n, err := strconv.Atoi(cm[1]); err == nil && n <= 100 {
			v.ConfidenceScore = n
		}
	}
	for _, rm := range legacyRecRe.FindAllStringSubmatch(text, -1) {
		category := strings.TrimSpace(rm[1])
		if strings.EqualFold(category, "verdict") || strings.EqualFold(category, "confidence") ||
			strings.EqualFold(category, "summary") || strings.EqualFold(category, "debate summary") {
			continue
		}
		v.Recommendations = append(v.Recommendations, types.Recommendation{
			Category: category,
			Advice:   strings.TrimSpace(rm[2]),
		})
	}
	return v, nil
}
