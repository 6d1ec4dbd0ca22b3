package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/config"
	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/app/requests"
	"github.com/tercih-asistani/app/responses"
	"github.com/tercih-asistani/app/services"
	"github.com/tercih-asistani/internal/calculator"
	"github.com/tercih-asistani/internal/resolver"
)

// ChatController handles the conversational endpoints.
type ChatController struct {
	chatService *services.ChatService
	calculator  *calculator.Calculator
	resolver    *resolver.Resolver
	logger      *zap.Logger
}

// NewChatController creates the controller.
func NewChatController(chatService *services.ChatService, calc *calculator.Calculator, rs *resolver.Resolver, logger *zap.Logger) *ChatController {
	return &ChatController{
		chatService: chatService,
		calculator:  calc,
		resolver:    rs,
		logger:      logger,
	}
}

// PostMessage runs one message through the pipeline.
func (cc *ChatController) PostMessage(c *gin.Context) {
	var req requests.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	start := time.Now()
	result, err := cc.chatService.HandleMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		cc.logger.Error("message handling failed", zap.Error(err), zap.String("session_id", req.SessionID))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "mesaj islenemedi",
		})
		return
	}

	c.JSON(http.StatusOK, responses.ChatMessageResponse{
		SessionID:        req.SessionID,
		Result:           result,
		CatalogVersion:   cc.resolver.Snapshot().Version(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// PostScenarios computes net bands for several safety margins at once.
func (cc *ChatController) PostScenarios(c *gin.Context) {
	var req requests.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	examType := models.ExamType(req.ExamType)
	if !examType.IsValid() {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_EXAM_TYPE",
			Message: "gecersiz puan turu: " + req.ExamType,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	start := time.Now()
	scenarios, err := cc.calculator.CalculateScenarios(ctx, req.ProgramID, examType, req.TargetScore, req.Margins)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, responses.ErrorResponse{
			Error:   "CALCULATION_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ScenarioResponse{
		ProgramID:        req.ProgramID,
		ExamType:         req.ExamType,
		Scenarios:        scenarios,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// HealthCheck reports liveness and the active catalog snapshot.
func (cc *ChatController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:         "ok",
		CatalogVersion: cc.resolver.Snapshot().Version(),
	})
}
