// Package types holds the shared data model for trainpilot: the training
// configuration under analysis, the council artifacts produced while
// deliberating over it, and the session-level records (history entries,
// conversation turns, intent classifications) built on top of them.
package types

import "time"

// =============================================================================
// TRAINING CONFIGURATION
// =============================================================================

// Precision is the numeric precision of a training run.
type Precision string

const (
	PrecisionFP32 Precision = "fp32"
	PrecisionFP16 Precision = "fp16"
	PrecisionBF16 Precision = "bf16"
	PrecisionINT8 Precision = "int8"
)

// TrainingConfig describes a planned training run. Every numeric field is a
// pointer: nil means "not specified", which is a valid state, not an error.
// A config is immutable input to a single analysis; edits produce a new
// value via Clone, never an in-place patch mid-analysis.
type TrainingConfig struct {
	GPU          string    `json:"gpu,omitempty"`
	GPUName      string    `json:"gpu_name,omitempty"`
	VRAMGB       *float64  `json:"vram_gb,omitempty"`
	RAMGB        *float64  `json:"ram_gb,omitempty"`
	ModelFamily  string    `json:"model_family,omitempty"`
	ModelParamsB *float64  `json:"model_params_b,omitempty"` // parameter count in billions
	Precision    Precision `json:"precision,omitempty"`
	DatasetSize  *int      `json:"dataset_size,omitempty"`
	SeqLength    *int      `json:"seq_length,omitempty"`
	BatchSize    *int      `json:"batch_size,omitempty"`
	GradAccum    *int      `json:"grad_accum,omitempty"`
	Epochs       *int      `json:"epochs,omitempty"`
	LearningRate *float64  `json:"learning_rate,omitempty"`
	Optimizer    string    `json:"optimizer,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Clone returns a deep copy so the caller can mutate freely.
func (c TrainingConfig) Clone() TrainingConfig {
	out := c
	out.VRAMGB = cloneFloat(c.VRAMGB)
	out.RAMGB = cloneFloat(c.RAMGB)
	out.ModelParamsB = cloneFloat(c.ModelParamsB)
	out.DatasetSize = cloneInt(c.DatasetSize)
	out.SeqLength = cloneInt(c.SeqLength)
	out.BatchSize = cloneInt(c.BatchSize)
	out.GradAccum = cloneInt(c.GradAccum)
	out.Epochs = cloneInt(c.Epochs)
	out.LearningRate = cloneFloat(c.LearningRate)
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float and Int are pointer constructors for optional numeric fields.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }

// =============================================================================
// COUNCIL ARTIFACTS
// =============================================================================

// NormalizedConfig is the output of the structural-analyst stage: explicit
// fields separated from inferred defaults, with a per-field confidence map
// and the assumptions the analyst made along the way.
type NormalizedConfig struct {
	Explicit      map[string]any     `json:"explicit"`
	Inferred      map[string]any     `json:"inferred"`
	ConfidenceMap map[string]float64 `json:"confidence_map"`
	Assumptions   []string           `json:"assumptions"`
	Unknowns      []string           `json:"unknowns"`
}

// MemoryAnalysis is the hardware critic's VRAM breakdown, in GB.
type MemoryAnalysis struct {
	ModelMemGB      float64 `json:"model_mem_gb"`
	OptimMemGB      float64 `json:"optim_mem_gb"`
	ActivationMemGB float64 `json:"activation_mem_gb"`
	TotalVRAMUsage  float64 `json:"total_vram_usage"`
	PeakUsageGB     float64 `json:"peak_usage_gb"`
}

// RiskAssessment labels the dominant failure mode the hardware critic found.
type RiskAssessment struct {
	Level        string `json:"level"` // low | med | high
	KillerFactor string `json:"killer_factor"`
}

// HardwareReport is the pessimistic hardware critic's verdict on worst-case
// memory consumption. Immutable once produced; never merged with the
// dynamics report, only referenced next to it.
type HardwareReport struct {
	AgentRole      string         `json:"agent_role"`
	Memory         MemoryAnalysis `json:"memory_analysis"`
	MaxSafeBatch   int            `json:"max_safe_batch"`
	OOMProbability float64        `json:"oom_probability"`
	Risk           RiskAssessment `json:"risk_assessment"`
	Reasoning      string         `json:"reasoning"`
}

// TrainingDynamics is the optimistic critic's throughput estimate.
type TrainingDynamics struct {
	TrainingTimeHours float64 `json:"training_time_hours"`
	RecommendedBatch  int     `json:"recommended_batch"`
	ConvergenceRisk   string  `json:"convergence_risk"` // low | med | high
}

// OptimizationStrategy carries the dynamics critic's memory/throughput knobs.
type OptimizationStrategy struct {
	UseGradientCheckpointing bool `json:"use_gradient_checkpointing"`
	UseOffloading            bool `json:"use_offloading"`
}

// DynamicsReport is the optimistic dynamics critic's verdict on throughput
// and convergence.
type DynamicsReport struct {
	AgentRole      string               `json:"agent_role"`
	Dynamics       TrainingDynamics     `json:"training_dynamics"`
	Strategy       OptimizationStrategy `json:"optimization_strategy"`
	Reasoning      string               `json:"reasoning"`
	Recommendation string               `json:"recommendation"`
}

// Conflict is one named disagreement the referee detected between reports.
type Conflict struct {
	Type        string `json:"type"` // e.g. BATCH_CONFLICT, RISK_DISAGREEMENT
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// ArbitrationResult reconciles exactly two agent reports. It only exists as
// an intermediate between the critique and synthesis stages.
type ArbitrationResult struct {
	AgreementScore     float64    `json:"agreement_score"`
	Conflicts          []Conflict `json:"conflicts"`
	Concerns           []string   `json:"concerns"`
	SynthesisDirection string     `json:"synthesis_direction"`
}

// Recommendation is one actionable advice card in a verdict.
type Recommendation struct {
	Category string `json:"category"`
	Advice   string `json:"advice"`
}

// OpenQuestion asks the user for information the analysis lacked.
type OpenQuestion struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Why      string `json:"why"`
}

// Verdict is the terminal output of one analysis. OpenQuestions is always
// present (possibly empty): whether it is empty tells the conversation layer
// what to ask the user next.
type Verdict struct {
	Verdict         string           `json:"verdict"`
	DebateSummary   string           `json:"debate_summary"`
	Recommendations []Recommendation `json:"recommendations"`
	OpenQuestions   []OpenQuestion   `json:"open_questions"`
	ConfidenceScore int              `json:"confidence_score"`
}

// DebateRound is one utterance in the (possibly simulated) council debate.
type DebateRound struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Type    string `json:"type"` // conflict | concession | rebuttal | warning | proposal | agreement
}

// Debate is the ordered transcript of council rounds.
type Debate struct {
	Rounds []DebateRound `json:"rounds"`
}

// CouncilReports pairs the two critiques side by side.
type CouncilReports struct {
	Hardware *HardwareReport `json:"hardware,omitempty"`
	Dynamics *DynamicsReport `json:"dynamics,omitempty"`
}

// Breakdown is the full deliberation record behind a verdict.
type Breakdown struct {
	Normalized *NormalizedConfig  `json:"normalized,omitempty"`
	Council    CouncilReports     `json:"council"`
	Referee    *ArbitrationResult `json:"referee,omitempty"`
	Debate     *Debate            `json:"debate,omitempty"`
}

// Analysis is a verdict plus its optional breakdown decoration. A legacy or
// fallback verdict may carry no breakdown at all.
type Analysis struct {
	Report    Verdict    `json:"content"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// =============================================================================
// HISTORY
// =============================================================================

// RunStatus classifies a saved run for the comparison views.
type RunStatus string

const (
	StatusSafe     RunStatus = "safe"
	StatusRisky    RunStatus = "risky"
	StatusCritical RunStatus = "critical"
)

// HistoryEntry is a frozen (config, analysis) pair committed by the user.
// Only the Selected flag ever changes after creation.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Config    TrainingConfig `json:"config"`
	Analysis  Analysis       `json:"analysis"`
	Status    RunStatus      `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Selected  bool           `json:"selected"`
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ImageAttachment carries raw image bytes plus a MIME type.
type ImageAttachment struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

// ConversationTurn is one append-only entry in the running transcript.
type ConversationTurn struct {
	Role    Role             `json:"role"`
	Content string           `json:"content"`
	Image   *ImageAttachment `json:"image,omitempty"`
}

// =============================================================================
// INTENT
// =============================================================================

// Intent is what kind of response a user message warrants.
type Intent string

const (
	IntentExplain       Intent = "explain"
	IntentAdvise        Intent = "advise"
	IntentReview        Intent = "review"
	IntentBrainstorm    Intent = "brainstorm"
	IntentDebug         Intent = "debug"
	IntentCasual        Intent = "casual"
	IntentSuggestConfig Intent = "suggest_config"
)

// Valid reports whether i is one of the seven known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentExplain, IntentAdvise, IntentReview, IntentBrainstorm,
		IntentDebug, IntentCasual, IntentSuggestConfig:
		return true
	}
	return false
}

// IntentClassification is the per-turn routing decision. Ephemeral: never
// persisted beyond the turn that produced it.
type IntentClassification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	KeyTopic   string  `json:"key_topic"`
}
