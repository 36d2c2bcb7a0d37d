package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/habitflow/backend/internal/apierror"
	"github.com/habitflow/backend/internal/logger"
	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/service"
)

// currentUserID extracts the authenticated user set by the auth middleware
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(requestID))
		return "", false
	}
	return userID.(string), true
}

// writeServiceError maps domain sentinels onto problem responses;
// anything unrecognized is logged and hidden behind a 500.
func writeServiceError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, service.ErrInvalidSchedule):
		apierror.WriteProblem(c, apierror.NewInvalidScheduleError(requestID, err.Error()))
	case errors.Is(err, service.ErrConflict):
		apierror.WriteProblem(c, apierror.NewConflictError(requestID, err.Error()))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

type HabitHandler struct {
	habitService service.HabitService
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitService service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

// List handles GET /api/v1/habits
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	includeArchived, _ := strconv.ParseBool(c.Query("include_archived"))

	habits, err := h.habitService.GetUserHabits(c.Request.Context(), userID, includeArchived)
	if err != nil {
		writeServiceError(c, err, "habit", "")
		return
	}
	if habits == nil {
		habits = []models.Habit{}
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

// Create handles POST /api/v1/habits
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request body"))
		return
	}

	habit, err := h.habitService.CreateHabit(c.Request.Context(), userID, &req)
	if err != nil {
		writeServiceError(c, err, "habit", "")
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// Get handles GET /api/v1/habits/:id
func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitService.GetHabit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Update handles PUT /api/v1/habits/:id
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request body"))
		return
	}

	habit, err := h.habitService.UpdateHabit(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Delete handles DELETE /api/v1/habits/:id
func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.habitService.DeleteHabit(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckIn handles POST /api/v1/habits/:id/checkin
func (h *HabitHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request body"))
		return
	}

	resp, err := h.habitService.CheckIn(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Undo handles POST /api/v1/habits/:id/undo
func (h *HabitHandler) Undo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request body"))
		return
	}

	snapshot, err := h.habitService.Undo(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"streak": snapshot})
}

// Pause handles POST /api/v1/habits/:id/pause
func (h *HabitHandler) Pause(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request body"))
		return
	}

	habit, err := h.habitService.Pause(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Resume handles POST /api/v1/habits/:id/resume
func (h *HabitHandler) Resume(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitService.Resume(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Archive handles POST /api/v1/habits/:id/archive
func (h *HabitHandler) Archive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	habit, err := h.habitService.Archive(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Milestones handles GET /api/v1/habits/:id/milestones
func (h *HabitHandler) Milestones(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	milestones, err := h.habitService.GetMilestones(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "habit", c.Param("id"))
		return
	}
	if milestones == nil {
		milestones = []models.Milestone{}
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}
