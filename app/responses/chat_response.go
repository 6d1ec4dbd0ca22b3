package responses

import "github.com/tercih-asistani/app/models"

// ChatMessageResponse wraps one structured answer with request metadata.
type ChatMessageResponse struct {
	SessionID        string                `json:"session_id,omitempty"`
	Result           *models.QueryResponse `json:"result"`
	CatalogVersion   string                `json:"catalog_version"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
}

// ScenarioResponse lists one calculation per requested margin, in request
// order.
type ScenarioResponse struct {
	ProgramID        string                     `json:"program_id"`
	ExamType         string                     `json:"exam_type"`
	Scenarios        []models.CalculationResult `json:"scenarios"`
	ProcessingTimeMs int64                      `json:"processing_time_ms"`
}

// ErrorResponse is the transport-level error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthCheckResponse reports service liveness.
type HealthCheckResponse struct {
	Status         string `json:"status"`
	CatalogVersion string `json:"catalog_version,omitempty"`
}
