package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/responses"
	"github.com/tercih-asistani/app/services"
)

// AdminController handles catalog administration.
type AdminController struct {
	catalogService *services.CatalogService
	started        time.Time
	logger         *zap.Logger
}

// NewAdminController creates the controller.
func NewAdminController(catalogService *services.CatalogService, logger *zap.Logger) *AdminController {
	return &AdminController{catalogService: catalogService, started: time.Now(), logger: logger}
}

type statsResponse struct {
	*services.CatalogStats
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// ReloadCatalog rebuilds the search index from the repository and swaps it
// in without downtime.
func (ac *AdminController) ReloadCatalog(c *gin.Context) {
	stats, err := ac.catalogService.Reload(c.Request.Context())
	if err != nil {
		ac.logger.Error("catalog reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "RELOAD_FAILED",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetStats reports the active snapshot, resolver cache counters and uptime.
func (ac *AdminController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		CatalogStats:  ac.catalogService.Stats(),
		UptimeSeconds: int64(time.Since(ac.started).Seconds()),
	})
}
