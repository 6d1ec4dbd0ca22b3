package models

// Intent is the category a user message is routed to.
type Intent string

const (
	IntentNetCalculation      Intent = "net_calculation"
	IntentBaseScoreLookup     Intent = "base_score_lookup"
	IntentQuotaInquiry        Intent = "quota_inquiry"
	IntentProgramSearch       Intent = "program_search"
	IntentClarificationNeeded Intent = "clarification_needed"
)

// IntentPriority is the fixed tie-break order: when two intents score the
// same, the earlier one wins.
var IntentPriority = []Intent{
	IntentNetCalculation,
	IntentBaseScoreLookup,
	IntentQuotaInquiry,
	IntentProgramSearch,
}

// Slot names of a resolved query.
const (
	SlotInstitution = "institution"
	SlotProgram     = "program"
	SlotExamType    = "exam_type"
	SlotTargetScore = "target_score"
)

// EntityRef is a resolved catalog entity.
type EntityRef struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Score float64 `bson:"score,omitempty" json:"score,omitempty"`
}

// Candidate is one ranked match for an unresolved mention.
type Candidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ResolvedQuery is the fully interpreted form of one message, after intent
// classification, entity resolution and context carry-over.
type ResolvedQuery struct {
	Intent          Intent     `json:"intent"`
	Confidence      float64    `json:"confidence"`
	Institution     *EntityRef `json:"institution,omitempty"`
	Program         *EntityRef `json:"program,omitempty"`
	ExamType        ExamType   `json:"exam_type,omitempty"`
	TargetScore     *float64   `json:"target_score,omitempty"`
	FromContext     []string   `json:"from_context,omitempty"`
	UnresolvedSlots []string   `json:"unresolved_slots,omitempty"`
}

// IsFullyResolved reports whether no required slot is still open.
func (q ResolvedQuery) IsFullyResolved() bool {
	return len(q.UnresolvedSlots) == 0
}

// Calculation confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Competitiveness bands derived from the base score.
const (
	CompetitivenessLow      = "low"
	CompetitivenessMedium   = "medium"
	CompetitivenessHigh     = "high"
	CompetitivenessVeryHigh = "very_high"
)

// NetRange is the required net band for one subject: Min answers the safe
// target, Max answers the strongest admitted score.
type NetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CalculationResult is the answer of one net calculation.
type CalculationResult struct {
	TargetScore     float64             `json:"target_score"`
	SafetyMargin    float64             `json:"safety_margin"`
	RequiredNets    map[string]NetRange `json:"required_nets"`
	BasedOnYear     int                 `json:"based_on_year"`
	Competitiveness string              `json:"competitiveness"`
	ConfidenceLevel string              `json:"confidence_level"`
	Alternatives    []CalculationResult `json:"alternatives,omitempty"`
}

// RecordSummary answers base score and quota lookups.
type RecordSummary struct {
	Institution string   `json:"institution"`
	Program     string   `json:"program"`
	Year        int      `json:"year"`
	ExamType    ExamType `json:"exam_type"`
	BaseScore   float64  `json:"base_score"`
	BaseRank    int      `json:"base_rank,omitempty"`
	Quota       int      `json:"quota"`
}

// ProgramMatch is one row of a program search answer.
type ProgramMatch struct {
	ProgramID   string  `json:"program_id"`
	Name        string  `json:"name"`
	Institution string  `json:"institution"`
	City        string  `json:"city,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// ErrorKind enumerates the structured failure modes. They are data, not
// panics: every kind maps to a recovery suggestion in the response.
type ErrorKind string

const (
	ErrAmbiguousEntity            ErrorKind = "ambiguous_entity"
	ErrEntityNotFound             ErrorKind = "entity_not_found"
	ErrMissingRequiredSlot        ErrorKind = "missing_required_slot"
	ErrInsufficientHistoricalData ErrorKind = "insufficient_historical_data"
	ErrUnrealisticTarget          ErrorKind = "unrealistic_target"
	ErrNoValidCombination         ErrorKind = "no_valid_combination"
	ErrLowConfidence              ErrorKind = "low_confidence"
	ErrInternal                   ErrorKind = "internal_error"
)

// QueryError is a recoverable failure carried inside a response.
type QueryError struct {
	Kind    ErrorKind `json:"kind"`
	Details string    `json:"details,omitempty"`
}

// Clarification asks the user to settle one open slot.
type Clarification struct {
	Slot       string      `json:"slot"`
	Prompt     string      `json:"prompt"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// QueryResponse is the complete structured answer to one message.
type QueryResponse struct {
	Intent        Intent             `json:"intent"`
	Confidence    float64            `json:"confidence"`
	Query         ResolvedQuery      `json:"query"`
	Calculation   *CalculationResult `json:"calculation,omitempty"`
	Record        *RecordSummary     `json:"record,omitempty"`
	Programs      []ProgramMatch     `json:"programs,omitempty"`
	Clarification *Clarification     `json:"clarification,omitempty"`
	Error         *QueryError        `json:"error,omitempty"`
	Suggestions   []string           `json:"suggestions,omitempty"`
	Warning       string             `json:"warning,omitempty"`
}
