package handler

import (
	"net/http"

	"nodemonitor/internal/jobs"
	"nodemonitor/internal/service"
	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatisticsHandler handles statistics-related HTTP requests
type StatisticsHandler struct {
	statsService *service.StatisticsService
	jobStats     func() []jobs.RunStats
}

// NewStatisticsHandler creates a new statistics handler. jobStats may be nil.
func NewStatisticsHandler(statsService *service.StatisticsService, jobStats func() []jobs.RunStats) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService, jobStats: jobStats}
}

// GetAppStatistics retrieves application-wide statistics
// @Summary Get application statistics
// @Description Users, nodes by status, recorded jobs and earnings, notification opt-ins
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} model.AppStatistics
// @Router /api/admin/statistics [get]
func (h *StatisticsHandler) GetAppStatistics(c *gin.Context) {
	stats, err := h.statsService.GetAppStatistics(c.Request.Context())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to get app statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetJobStats reports the background jobs' run counters
// @Summary Get background job stats
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/jobs [get]
func (h *StatisticsHandler) GetJobStats(c *gin.Context) {
	stats := []jobs.RunStats{}
	if h.jobStats != nil {
		stats = h.jobStats()
	}
	c.JSON(http.StatusOK, gin.H{"jobs": stats})
}
