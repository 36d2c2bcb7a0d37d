package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/pkg/supabase"
)

type habitLogRepository struct {
	client *supabase.Client
}

// NewHabitLogRepository creates a new habit log repository
func NewHabitLogRepository(client *supabase.Client) HabitLogRepository {
	return &habitLogRepository{client: client}
}

// Upsert writes the log for (habit, date), replacing any existing row.
// Postgres enforces uniqueness on (habit_id, date), so re-submitting the
// same day updates in place instead of duplicating.
func (r *habitLogRepository) Upsert(ctx context.Context, log *models.HabitLog) (*models.HabitLog, error) {
	data := map[string]interface{}{
		"habit_id":  log.HabitID,
		"user_id":   log.UserID,
		"date":      log.Date.Key(),
		"completed": log.Completed,
	}

	if log.Value != nil {
		data["value"] = *log.Value
	}
	if log.Notes != nil {
		data["notes"] = *log.Notes
	}

	body, err := r.client.Upsert("habit_logs", data, "habit_id,date")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert habit log: %w", err)
	}

	var logs []models.HabitLog
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(logs) == 0 {
		return nil, fmt.Errorf("no habit log returned")
	}

	return &logs[0], nil
}

func (r *habitLogRepository) GetByHabitID(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	query := map[string]interface{}{
		"habit_id": fmt.Sprintf("eq.%s", habitID),
		"order":    "date.asc",
	}

	body, err := r.client.Query("habit_logs", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit logs: %w", err)
	}

	var logs []models.HabitLog
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return logs, nil
}

// GetCompletedDates returns the distinct completed days for one habit,
// the exact input shape the streak engine recomputes from.
func (r *habitLogRepository) GetCompletedDates(ctx context.Context, habitID string) ([]models.Date, error) {
	query := map[string]interface{}{
		"habit_id":  fmt.Sprintf("eq.%s", habitID),
		"completed": "eq.true",
		"select":    "date",
		"order":     "date.asc",
	}

	body, err := r.client.Query("habit_logs", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed dates: %w", err)
	}

	var rows []struct {
		Date models.Date `json:"date"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	dates := make([]models.Date, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.Date)
	}

	return dates, nil
}

func (r *habitLogRepository) GetByUserIDAndDateRange(ctx context.Context, userID string, start, end models.Date) ([]models.HabitLog, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"and":     fmt.Sprintf("(date.gte.%s,date.lte.%s)", start.Key(), end.Key()),
		"order":   "date.asc",
	}

	body, err := r.client.Query("habit_logs", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit logs: %w", err)
	}

	var logs []models.HabitLog
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return logs, nil
}

func (r *habitLogRepository) DeleteByHabitIDAndDate(ctx context.Context, habitID string, date models.Date) error {
	query := map[string]interface{}{
		"habit_id": fmt.Sprintf("eq.%s", habitID),
		"date":     fmt.Sprintf("eq.%s", date.Key()),
	}

	if err := r.client.DeleteWhere("habit_logs", query); err != nil {
		return fmt.Errorf("failed to delete habit log: %w", err)
	}

	return nil
}
