// Package perception is the boundary between trainpilot and the external
// reasoning capability. It exposes the inference gateway (structured JSON
// mode and free-text mode, each fallible) and the intent router that decides
// what kind of response a user message warrants.
package perception

import (
	"context"
	"encoding/json"

	"trainpilot/internal/types"
)

// FinishReason tags how a free-text completion ended.
type FinishReason string

const (
	FinishNormal FinishReason = "normal"
	FinishLength FinishReason = "length" // output hit the token limit
	FinishSafety FinishReason = "safety" // blocked by the moderation filter
)

// TextRequest is one free-text gateway call. History is the bounded trailing
// window the caller already truncated; the gateway does not re-trim it.
type TextRequest struct {
	System  string
	Prompt  string
	History []types.ConversationTurn
	Image   *types.ImageAttachment

	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// TextResult is the outcome of a free-text call. Text may be partial when
// Finish is FinishLength, and empty when Finish is FinishSafety.
type TextResult struct {
	Text   string
	Finish FinishReason
}

// Client is the inference gateway contract. GenerateJSON requests strictly
// valid JSON and fails when the model returns anything else; GenerateText
// returns prose plus a finish reason.
type Client interface {
	GenerateJSON(ctx context.Context, system, user string) (json.RawMessage, error)
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
}
