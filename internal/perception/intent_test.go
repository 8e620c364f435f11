package perception

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainpilot/internal/types"
)

func TestHeuristicIntent(t *testing.T) {
	cases := []struct {
		message string
		want    types.Intent
		conf    float64
	}{
		{"why does batch size matter?", types.IntentExplain, 0.8},
		{"can you explain gradient accumulation", types.IntentExplain, 0.8},
		{"it crashed with OOM after 50 steps", types.IntentDebug, 0.9},
		{"training is not working", types.IntentDebug, 0.9},
		{"does this look good to you?", types.IntentReview, 0.7},
		{"any ideas or alternatives?", types.IntentBrainstorm, 0.7},
		{"thanks!", types.IntentCasual, 0.9},
		{"hey there", types.IntentCasual, 0.9},
		{"suggest a config for me", types.IntentSuggestConfig, 0.85},
		{"give me a starting config", types.IntentSuggestConfig, 0.85},
		{"I want to fine-tune on my dataset", types.IntentAdvise, 0.5},
		{"", types.IntentAdvise, 0.5},
	}
	for _, tc := range cases {
		got := HeuristicIntent(tc.message)
		assert.Equal(t, tc.want, got.Intent, "message %q", tc.message)
		assert.Equal(t, tc.conf, got.Confidence, "message %q", tc.message)
	}
}

func TestHeuristicPriorityOrder(t *testing.T) {
	// "why" (explain) appears together with "error" (debug); explain has
	// higher priority.
	got := HeuristicIntent("why do I get this error?")
	assert.Equal(t, types.IntentExplain, got.Intent)

	// casual only matches at the start of the message
	got = HeuristicIntent("say thanks to the team")
	assert.NotEqual(t, types.IntentCasual, got.Intent)
}

// textOnlyClient scripts GenerateText for router tests.
type textOnlyClient struct {
	text string
	err  error
}

func (c *textOnlyClient) GenerateJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func (c *textOnlyClient) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &TextResult{Text: c.text, Finish: FinishNormal}, nil
}

func TestClassifyPrefersGateway(t *testing.T) {
	client := &textOnlyClient{text: `{"intent":"debug","confidence":0.95,"key_topic":"OOM"}`}
	r := NewIntentRouter(client)

	got := r.Classify(context.Background(), "why does this happen?", nil)
	assert.Equal(t, types.IntentDebug, got.Intent)
	assert.Equal(t, "OOM", got.KeyTopic)
}

func TestClassifyFallsBackToHeuristics(t *testing.T) {
	r := NewIntentRouter(&textOnlyClient{err: errors.New("gateway down")})
	got := r.Classify(context.Background(), "it crashed with OOM", nil)
	assert.Equal(t, types.IntentDebug, got.Intent)

	// Unknown intent labels from the model are rejected too.
	r = NewIntentRouter(&textOnlyClient{text: `{"intent":"poetry","confidence":0.9}`})
	got = r.Classify(context.Background(), "thanks!", nil)
	assert.Equal(t, types.IntentCasual, got.Intent)

	// A nil client runs heuristics only.
	got = NewIntentRouter(nil).Classify(context.Background(), "review my setup", nil)
	assert.Equal(t, types.IntentReview, got.Intent)
}

func TestFormatTurns(t *testing.T) {
	assert.Equal(t, "(none)", FormatTurns(nil, 100))

	turns := []types.ConversationTurn{
		{Role: types.RoleUser, Content: "hello"},
		{Role: types.RoleAssistant, Content: "aaaaaaaaaa"},
	}
	got := FormatTurns(turns, 4)
	require.Equal(t, "user: hell\nassistant: aaaa", got)
}
