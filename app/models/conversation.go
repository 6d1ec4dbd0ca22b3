package models

import "time"

// MaxHistoryTurns bounds the stored dialogue window per session.
const MaxHistoryTurns = 5

// Turn is one user message with what the pipeline made of it.
type Turn struct {
	Message   string    `bson:"message" json:"message"`
	Intent    Intent    `bson:"intent" json:"intent"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ConversationState is the per-session slot memory that lets a follow-up
// like "peki kontenjan kac" inherit the institution and program of the
// previous turn.
type ConversationState struct {
	SessionID   string     `bson:"session_id" json:"session_id"`
	Institution *EntityRef `bson:"institution,omitempty" json:"institution,omitempty"`
	Program     *EntityRef `bson:"program,omitempty" json:"program,omitempty"`
	ExamType    ExamType   `bson:"exam_type,omitempty" json:"exam_type,omitempty"`
	LastIntent  Intent     `bson:"last_intent,omitempty" json:"last_intent,omitempty"`
	History     []Turn     `bson:"history,omitempty" json:"history,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// NewConversationState creates an empty state for a session.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{SessionID: sessionID, UpdatedAt: time.Now()}
}

// PushTurn appends a turn and trims the window to MaxHistoryTurns.
func (cs *ConversationState) PushTurn(t Turn) {
	cs.History = append(cs.History, t)
	if len(cs.History) > MaxHistoryTurns {
		cs.History = cs.History[len(cs.History)-MaxHistoryTurns:]
	}
}
