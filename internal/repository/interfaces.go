package repository

import (
	"context"

	"github.com/habitflow/backend/internal/models"
)

// HabitRepository defines the interface for habit data access
type HabitRepository interface {
	Create(ctx context.Context, habit *models.Habit) (*models.Habit, error)
	GetByID(ctx context.Context, id string) (*models.Habit, error)
	GetByUserID(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error)
	Update(ctx context.Context, id string, data map[string]interface{}) (*models.Habit, error)
	UpdateSnapshot(ctx context.Context, id string, snapshot models.StreakSnapshot) (*models.Habit, error)
	Delete(ctx context.Context, id string) error
}

// HabitLogRepository defines the interface for habit log data access
type HabitLogRepository interface {
	Upsert(ctx context.Context, log *models.HabitLog) (*models.HabitLog, error)
	GetByHabitID(ctx context.Context, habitID string) ([]models.HabitLog, error)
	GetCompletedDates(ctx context.Context, habitID string) ([]models.Date, error)
	GetByUserIDAndDateRange(ctx context.Context, userID string, start, end models.Date) ([]models.HabitLog, error)
	DeleteByHabitIDAndDate(ctx context.Context, habitID string, date models.Date) error
}

// MilestoneRepository defines the interface for milestone data access
type MilestoneRepository interface {
	CreateNew(ctx context.Context, milestones []models.Milestone) ([]models.Milestone, error)
	GetByHabitID(ctx context.Context, habitID string) ([]models.Milestone, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Milestone, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Category, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
