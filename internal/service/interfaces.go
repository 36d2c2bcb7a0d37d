package service

import (
	"context"

	"github.com/habitflow/backend/internal/models"
)

// HabitService defines the interface for habit business logic
type HabitService interface {
	CreateHabit(ctx context.Context, userID string, req *models.CreateHabitRequest) (*models.Habit, error)
	GetHabit(ctx context.Context, userID, habitID string) (*models.Habit, error)
	GetUserHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, userID, habitID string, req *models.UpdateHabitRequest) (*models.Habit, error)
	DeleteHabit(ctx context.Context, userID, habitID string) error

	CheckIn(ctx context.Context, userID, habitID string, req *models.CheckInRequest) (*models.CheckInResponse, error)
	Undo(ctx context.Context, userID, habitID string, req *models.UndoRequest) (*models.StreakSnapshot, error)

	Pause(ctx context.Context, userID, habitID string, req *models.PauseRequest) (*models.Habit, error)
	Resume(ctx context.Context, userID, habitID string) (*models.Habit, error)
	Archive(ctx context.Context, userID, habitID string) (*models.Habit, error)

	GetMilestones(ctx context.Context, userID, habitID string) ([]models.Milestone, error)
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	CreateCategory(ctx context.Context, userID, name, color string) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string) ([]models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// AnalyticsService defines the interface for the analytics dashboards.
// Every operation is a read-only projection over habits and logs, served
// cache-aside under its own endpoint name.
type AnalyticsService interface {
	GetOverview(ctx context.Context, userID string) (*models.Overview, error)
	GetBreakdown(ctx context.Context, userID, period string, start, end *string) (*models.PeriodBreakdown, error)
	GetHeatmap(ctx context.Context, userID string, start, end *string) ([]models.HeatmapDay, error)
	GetHabitStats(ctx context.Context, userID, habitID string) (*models.HabitStats, error)
	GetLeaderboard(ctx context.Context, userID string, page, limit int) (*models.Leaderboard, error)
	GetInsights(ctx context.Context, userID string) (*models.Insights, error)
	GetCategoryBreakdown(ctx context.Context, userID string) (*models.CategoryBreakdown, error)
	GetWeekComparison(ctx context.Context, userID string) (*models.WeekComparison, error)
	GetProductivityScore(ctx context.Context, userID string) (*models.ProductivityScore, error)
	GetPerformance(ctx context.Context, userID string) (*models.Performance, error)
	GetCorrelations(ctx context.Context, userID string) (*models.CorrelationReport, error)
	GetStreakRisk(ctx context.Context, userID string) (*models.StreakRiskReport, error)
}
