package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"trainpilot/internal/logging"
	"trainpilot/internal/types"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// GeminiConfig holds configuration for the Gemini gateway.
type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int           // retries on rate limits inside a single call
	MinGap     time.Duration // minimum spacing between requests
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:     apiKey,
		Model:      DefaultModel,
		MaxRetries: 3,
		MinGap:     100 * time.Millisecond,
	}
}

// GeminiClient implements Client on the official genai SDK.
type GeminiClient struct {
	cli        *genai.Client
	model      string
	maxRetries int
	minGap     time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a gateway client with default config. The missing
// credential precondition is checked here, before any network call.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(ctx, DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a gateway client with custom config.
func NewGeminiClientWithConfig(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, types.ErrMissingAPIKey
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GeminiClient{
		cli:        cli,
		model:      model,
		maxRetries: maxRetries,
		minGap:     config.MinGap,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// pace enforces a minimum gap between requests.
func (c *GeminiClient) pace() {
	if c.minGap <= 0 {
		return
	}
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minGap {
		time.Sleep(c.minGap - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

// GenerateJSON sends a system+user prompt pair in JSON mode and returns the
// raw message. The response must be valid JSON or the call fails with
// types.ErrUnparsable.
func (c *GeminiClient) GenerateJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	logging.PerceptionDebug("[Gemini] GenerateJSON: model=%s system_len=%d user_len=%d",
		c.model, len(system), len(user))

	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: user}}},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system + "\nRespond with VALID JSON ONLY."}},
		},
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}
		c.pace()

		resp, err := c.cli.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			lastErr = wrapGatewayError(err)
			if !types.IsTransient(lastErr) {
				return nil, lastErr
			}
			continue
		}
		text, ok := firstCandidateText(resp)
		if !ok {
			lastErr = &types.GatewayError{Transient: true, Err: fmt.Errorf("no response candidate")}
			continue
		}
		raw := json.RawMessage(strings.TrimSpace(text))
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: %s", types.ErrUnparsable, truncateForLog(text, 120))
		}
		return raw, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GenerateText sends a free-text request, optionally with prior turns and an
// inline image, and returns the text plus a finish-reason tag. It performs a
// single attempt: retry policy belongs to the caller.
func (c *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	logging.PerceptionDebug("[Gemini] GenerateText: model=%s prompt_len=%d history=%d image=%v",
		c.model, len(req.Prompt), len(req.History), req.Image != nil)

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		contents = append(contents, &genai.Content{
			Role:  string(genaiRole(turn.Role)),
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}

	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Image != nil && len(req.Image.Data) > 0 {
		mime := req.Image.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, mime))
	}
	contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr(req.TopP)
	}
	if req.TopK > 0 {
		cfg.TopK = genai.Ptr(req.TopK)
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}

	c.pace()
	resp, err := c.cli.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, wrapGatewayError(err)
	}
	if len(resp.Candidates) == 0 {
		return nil, &types.GatewayError{Transient: true, Err: fmt.Errorf("no response candidate")}
	}

	cand := resp.Candidates[0]
	result := &TextResult{Finish: mapFinishReason(cand.FinishReason)}
	if cand.Content != nil {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		result.Text = strings.TrimSpace(sb.String())
	}
	if result.Text == "" && result.Finish == FinishNormal {
		return nil, &types.GatewayError{Transient: true, Err: fmt.Errorf("empty response text")}
	}
	return result, nil
}

// firstCandidateText pulls the concatenated text parts of the first
// candidate, reporting false when the response carries none.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

func genaiRole(role types.Role) genai.Role {
	if role == types.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func mapFinishReason(fr genai.FinishReason) FinishReason {
	switch fr {
	case genai.FinishReasonMaxTokens:
		return FinishLength
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		return FinishSafety
	default:
		return FinishNormal
	}
}

// wrapGatewayError classifies an SDK error as transient or permanent.
func wrapGatewayError(err error) error {
	msg := strings.ToLower(err.Error())
	transient := strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "internal") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "rate limit")
	return &types.GatewayError{Transient: transient, Err: err}
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
