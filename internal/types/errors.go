package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the orchestrator and the conversation engine.
var (
	// ErrMissingAPIKey means no credential was supplied. Detected before any
	// gateway call is made.
	ErrMissingAPIKey = errors.New("API key not configured")

	// ErrUnparsable means a structured-mode gateway call returned text that
	// is not the JSON shape the stage asked for.
	ErrUnparsable = errors.New("unparsable structured response")
)

// Stage names the pipeline stage an analysis failure occurred in.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageHardware  Stage = "hardware"
	StageDynamics  Stage = "dynamics"
	StageReferee   Stage = "referee"
	StageSynthesis Stage = "synthesis"
)

// AnalysisError is a stage-local pipeline failure. The orchestrator never
// retries a failed stage; callers re-invoke the whole pipeline.
type AnalysisError struct {
	Stage Stage
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed at %s stage: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// GatewayError wraps a transport-level failure from the inference gateway.
// Transient failures (5xx, rate limits, missing candidates) are retryable in
// the conversation engine; everything else is terminal.
type GatewayError struct {
	Transient bool
	Err       error
}

func (e *GatewayError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("gateway error (%s): %v", kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable gateway failure.
func IsTransient(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Transient
}
