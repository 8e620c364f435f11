// Package chat is the conversational layer: it routes a user message by
// intent, grounds the reply in the session's config and analysis, and
// shields the caller from gateway failure modes. Respond never surfaces a
// raw error for a message that deserved an answer.
package chat

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"trainpilot/internal/articulation"
	"trainpilot/internal/logging"
	"trainpilot/internal/perception"
	"trainpilot/internal/session"
	"trainpilot/internal/types"
)

const (
	maxAttempts = 3
	backoffBase = time.Second

	historyWindow    = 6   // trailing turns sent to the gateway
	historyTurnCap   = 500 // characters per windowed turn
	recentWindow     = 3   // turns shown to the intent router and casual mode
	recentTurnCap    = 100
	fullWindow       = 8 // longer window for config suggestions
	fullTurnCap      = 200
	replyTokenBudget = 2048
)

// Reply is one conversational answer plus how it was produced.
type Reply struct {
	Text      string
	Intent    types.IntentClassification
	Finish    perception.FinishReason
	Blocked   bool // moderation filter fired
	Truncated bool // token budget hit, Text is partial
	Degraded  bool // all attempts failed, Text is the fallback notice
	Attempts  int
}

// Engine drives the intent-routed conversation loop.
type Engine struct {
	client perception.Client
	router *perception.IntentRouter

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// NewEngine builds a conversation engine over the gateway client.
func NewEngine(client perception.Client) *Engine {
	return &Engine{
		client: client,
		router: perception.NewIntentRouter(client),
		sleep:  time.Sleep,
	}
}

// Respond answers one user message in the context of the session. message
// may be empty when an image is attached. The returned error is reserved
// for context cancellation; every gateway failure mode degrades into a
// renderable Reply instead.
func (e *Engine) Respond(ctx context.Context, sess *session.Session, message string, image *types.ImageAttachment) (*Reply, error) {
	question := strings.TrimSpace(message)
	if question == "" {
		if image != nil {
			question = "Analyze this uploaded image"
		} else {
			question = "Help me with my configuration"
		}
	}

	intent := e.router.Classify(ctx, question, sess.RecentTurns(recentWindow))
	logging.Chat("intent=%s confidence=%.2f", intent.Intent, intent.Confidence)

	pc := articulation.ChatPromptContext{
		Digest:        sess.Digest(),
		Message:       question,
		Topic:         intent.KeyTopic,
		RecentHistory: perception.FormatTurns(sess.RecentTurns(recentWindow), recentTurnCap),
		FullHistory:   perception.FormatTurns(sess.RecentTurns(fullWindow), fullTurnCap),
	}

	req := perception.TextRequest{
		// Preview models reject long system instructions, so the mode
		// prompt rides in the user turn.
		Prompt:          articulation.ModePrompt(intent.Intent, pc),
		History:         windowed(sess.RecentTurns(historyWindow)),
		Image:           image,
		Temperature:     temperatureFor(intent.Intent),
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: replyTokenBudget,
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		res, err := e.client.GenerateText(ctx, req)
		if err == nil {
			return e.finishReply(res, intent, attempt), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		logging.Chat("attempt %d failed: %v", attempt, err)
		if !types.IsTransient(err) {
			break
		}
		if attempt < maxAttempts {
			e.sleep(backoffBase * time.Duration(math.Pow(2, float64(attempt-1))))
		}
	}

	return &Reply{
		Text: fmt.Sprintf("⚠️ Chat temporarily unavailable after %d attempts. Please try again.\n\n(Error: %v)",
			attempts, lastErr),
		Intent:   intent,
		Degraded: true,
		Attempts: attempts,
	}, nil
}

func (e *Engine) finishReply(res *perception.TextResult, intent types.IntentClassification, attempt int) *Reply {
	reply := &Reply{
		Text:     res.Text,
		Intent:   intent,
		Finish:   res.Finish,
		Attempts: attempt,
	}
	switch res.Finish {
	case perception.FinishSafety:
		reply.Blocked = true
		reply.Text = "⚠️ Response blocked by safety filter. Try rephrasing your question."
	case perception.FinishLength:
		reply.Truncated = true
		reply.Text += "\n\n*[Response truncated - ask a follow-up for more details]*"
	}
	return reply
}

func temperatureFor(intent types.Intent) float32 {
	if intent == types.IntentBrainstorm {
		return 0.7
	}
	return 0.5
}

// windowed caps each history turn's content so long pastes do not blow the
// input token budget.
func windowed(turns []types.ConversationTurn) []types.ConversationTurn {
	out := make([]types.ConversationTurn, len(turns))
	for i, t := range turns {
		if len(t.Content) > historyTurnCap {
			t.Content = t.Content[:historyTurnCap]
		}
		t.Image = nil
		out[i] = t
	}
	return out
}
