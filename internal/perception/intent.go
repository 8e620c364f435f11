package perception

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"trainpilot/internal/articulation"
	"trainpilot/internal/logging"
	"trainpilot/internal/types"
)

// IntentRouter classifies a conversational message into one of the seven
// response intents. The gateway is the primary path; the deterministic
// keyword heuristics are always available as fallback, so classification
// itself never fails.
type IntentRouter struct {
	client Client
}

// NewIntentRouter creates a router over the given gateway client. A nil
// client is allowed: the router then runs heuristics only.
func NewIntentRouter(client Client) *IntentRouter {
	return &IntentRouter{client: client}
}

// Classify returns the intent for one user message. recentHistory is the
// bounded trailing window of the transcript used as classification context.
func (r *IntentRouter) Classify(ctx context.Context, message string, recentHistory []types.ConversationTurn) types.IntentClassification {
	if r.client != nil {
		prompt := articulation.IntentPrompt(message, FormatTurns(recentHistory, 100))
		res, err := r.client.GenerateText(ctx, TextRequest{
			System:      prompt,
			Prompt:      message,
			Temperature: 0.4,
		})
		if err == nil && res.Finish == FinishNormal {
			var ic types.IntentClassification
			if articulation.UnmarshalFirstObject(res.Text, &ic) && ic.Intent.Valid() {
				logging.PerceptionDebug("intent classified by gateway: %s (%.2f)", ic.Intent, ic.Confidence)
				return ic
			}
		}
		if err != nil {
			logging.Get(logging.CategoryPerception).Warn("intent gateway call failed, using heuristics: %v", err)
		}
	}
	return HeuristicIntent(message)
}

// Heuristic patterns, evaluated in fixed priority order. First match wins.
var (
	explainRe       = regexp.MustCompile(`\b(why|how does|explain|what is|what's|can you explain)\b`)
	debugRe         = regexp.MustCompile(`\b(error|crash|crashed|fail|oom|not working|broken)\b`)
	reviewRe        = regexp.MustCompile(`\b(look good|is this right|review|check|does this)\b`)
	brainstormRe    = regexp.MustCompile(`\b(what else|ideas|brainstorm|options|alternatives|could try)\b`)
	casualRe        = regexp.MustCompile(`^(thanks|thank you|got it|ok|okay|hi|hello|hey)\b`)
	suggestConfigRe = regexp.MustCompile(`\b(suggest\b.*(config|values)|what\b.*(put|values|config)|let's try|try\b.*(analyzer|analysis)|give me\b.*config|fill\b.*config)\b`)
)

// HeuristicIntent classifies a message with deterministic keyword rules.
// Pure and side-effect-free; unmatched input defaults to advise at 0.5.
func HeuristicIntent(message string) types.IntentClassification {
	msg := strings.ToLower(strings.TrimSpace(message))

	switch {
	case explainRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentExplain, Confidence: 0.8}
	case debugRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentDebug, Confidence: 0.9}
	case reviewRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentReview, Confidence: 0.7}
	case brainstormRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentBrainstorm, Confidence: 0.7}
	case casualRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentCasual, Confidence: 0.9}
	case suggestConfigRe.MatchString(msg):
		return types.IntentClassification{Intent: types.IntentSuggestConfig, Confidence: 0.85}
	default:
		return types.IntentClassification{Intent: types.IntentAdvise, Confidence: 0.5}
	}
}

// FormatTurns renders a transcript window as "role: content" lines, each
// content capped at maxLen characters.
func FormatTurns(turns []types.ConversationTurn, maxLen int) string {
	if len(turns) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := t.Content
		if len(content) > maxLen {
			content = content[:maxLen]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, content))
	}
	return strings.Join(lines, "\n")
}
