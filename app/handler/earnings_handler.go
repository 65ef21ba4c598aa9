package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"nodemonitor/app/middleware"
	"nodemonitor/internal/service"
	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errInvalidDays = errors.New("days must be between 1 and 366")

const (
	defaultDays = 30
	maxDays     = 366
)

// EarningsHandler handles earnings HTTP requests
type EarningsHandler struct {
	earningsService *service.EarningsService
	nodeService     *service.NodeService
	now             func() time.Time
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(earningsService *service.EarningsService, nodeService *service.NodeService) *EarningsHandler {
	return &EarningsHandler{
		earningsService: earningsService,
		nodeService:     nodeService,
		now:             time.Now,
	}
}

// Summary returns the user's earnings summary
// @Summary Earnings summary
// @Description Today, yesterday, this month, this year and all-time totals in the configured timezone
// @Tags earnings
// @Produce json
// @Success 200 {object} model.EarningsSummaryResponse
// @Router /api/earnings/summary [get]
func (h *EarningsHandler) Summary(c *gin.Context) {
	resp, err := h.earningsService.UserSummary(c.Request.Context(), middleware.UserID(c), h.now())
	if err != nil {
		respondError(c, err, "get earnings summary")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Daily returns per-day earnings
// @Summary Daily earnings
// @Tags earnings
// @Produce json
// @Param days query int false "Number of days including today (default: 30, max: 366)"
// @Success 200 {object} model.EarningsSeriesResponse
// @Router /api/earnings/daily [get]
func (h *EarningsHandler) Daily(c *gin.Context) {
	days, err := parseDays(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, to := h.earningsService.LastDays(days, h.now())
	resp, err := h.earningsService.Daily(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		respondError(c, err, "get daily earnings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Monthly returns the twelve months of a year
// @Summary Monthly earnings
// @Tags earnings
// @Produce json
// @Param year query int false "Year (default: current)"
// @Success 200 {object} model.EarningsSeriesResponse
// @Router /api/earnings/monthly [get]
func (h *EarningsHandler) Monthly(c *gin.Context) {
	year, err := h.earningsService.ParseYear(c.Query("year"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.earningsService.Monthly(c.Request.Context(), middleware.UserID(c), year)
	if err != nil {
		respondError(c, err, "get monthly earnings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Yearly returns one bucket per year with earnings
// @Summary Yearly earnings
// @Tags earnings
// @Produce json
// @Success 200 {object} model.EarningsSeriesResponse
// @Router /api/earnings/yearly [get]
func (h *EarningsHandler) Yearly(c *gin.Context) {
	resp, err := h.earningsService.Yearly(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "get yearly earnings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Node returns a node's earnings with its tracking year and archive
// @Summary Node earnings
// @Tags earnings
// @Produce json
// @Param id path string true "Node ID"
// @Success 200 {object} model.NodeEarningsResponse
// @Router /api/earnings/nodes/{id} [get]
func (h *EarningsHandler) Node(c *gin.Context) {
	resp, err := h.earningsService.NodeSummary(c.Request.Context(), middleware.UserID(c), c.Param("id"), h.now())
	if err != nil {
		respondError(c, err, "get node earnings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sync scrapes the node's dashboard and stores new job rows
// @Summary Sync scraped jobs
// @Description Scrape the dashboard job table and store rows not seen before. In scrape mode new completed rows are also recorded as earnings.
// @Tags earnings
// @Produce json
// @Param id path string true "Node ID"
// @Success 200 {object} model.SyncResponse
// @Router /api/earnings/nodes/{id}/sync [post]
func (h *EarningsHandler) Sync(c *gin.Context) {
	node, err := h.nodeService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "get node")
		return
	}

	resp, err := h.earningsService.SyncScrapedJobs(c.Request.Context(), node)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to sync scraped jobs for node %s: %v", node.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to sync dashboard jobs"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseDays(raw string) (int, error) {
	if raw == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxDays {
		return 0, errInvalidDays
	}
	return days, nil
}
