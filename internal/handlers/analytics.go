package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/habitflow/backend/internal/service"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// optionalQuery returns a pointer to the query value, or nil when absent
func optionalQuery(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok && v != "" {
		return &v
	}
	return nil
}

// Overview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	overview, err := h.analyticsService.GetOverview(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Breakdown handles GET /api/v1/analytics/breakdown
func (h *AnalyticsHandler) Breakdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	breakdown, err := h.analyticsService.GetBreakdown(
		c.Request.Context(),
		userID,
		c.Query("period"),
		optionalQuery(c, "start_date"),
		optionalQuery(c, "end_date"),
	)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// Heatmap handles GET /api/v1/analytics/heatmap
func (h *AnalyticsHandler) Heatmap(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	days, err := h.analyticsService.GetHeatmap(
		c.Request.Context(),
		userID,
		optionalQuery(c, "start_date"),
		optionalQuery(c, "end_date"),
	)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}

// HabitStats handles GET /api/v1/habits/:id/stats
func (h *AnalyticsHandler) HabitStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.GetHabitStats(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Leaderboard handles GET /api/v1/analytics/leaderboard
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	leaderboard, err := h.analyticsService.GetLeaderboard(c.Request.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}

// Insights handles GET /api/v1/analytics/insights
func (h *AnalyticsHandler) Insights(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	insights, err := h.analyticsService.GetInsights(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, insights)
}

// CategoryBreakdown handles GET /api/v1/analytics/categories
func (h *AnalyticsHandler) CategoryBreakdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	breakdown, err := h.analyticsService.GetCategoryBreakdown(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// WeekComparison handles GET /api/v1/analytics/comparison
func (h *AnalyticsHandler) WeekComparison(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	comparison, err := h.analyticsService.GetWeekComparison(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// ProductivityScore handles GET /api/v1/analytics/productivity
func (h *AnalyticsHandler) ProductivityScore(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	score, err := h.analyticsService.GetProductivityScore(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, score)
}

// Performance handles GET /api/v1/analytics/performance
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	performance, err := h.analyticsService.GetPerformance(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, performance)
}

// Correlations handles GET /api/v1/analytics/correlations
func (h *AnalyticsHandler) Correlations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.GetCorrelations(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, report)
}

// StreakRisk handles GET /api/v1/analytics/risk
func (h *AnalyticsHandler) StreakRisk(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.GetStreakRisk(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "analytics", "")
		return
	}

	c.JSON(http.StatusOK, report)
}
