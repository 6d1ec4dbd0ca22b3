package requests

// ChatMessageRequest is one user message posted to the chat endpoint.
type ChatMessageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" binding:"required,max=2000"`
}

// ScenarioRequest asks for net bands under several safety margins.
type ScenarioRequest struct {
	ProgramID   string    `json:"program_id" binding:"required"`
	ExamType    string    `json:"exam_type" binding:"required"`
	TargetScore *float64  `json:"target_score,omitempty"`
	Margins     []float64 `json:"margins" binding:"required,min=1,max=10"`
}
