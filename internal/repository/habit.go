package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/pkg/supabase"
)

type habitRepository struct {
	client *supabase.Client
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(client *supabase.Client) HabitRepository {
	return &habitRepository{client: client}
}

func (r *habitRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	data := map[string]interface{}{
		"user_id":    habit.UserID,
		"name":       habit.Name,
		"frequency":  habit.Frequency,
		"habit_type": habit.HabitType,
		"is_active":  true,
	}

	if habit.ID != "" {
		data["id"] = habit.ID
	}
	if habit.Description != nil {
		data["description"] = *habit.Description
	}
	if habit.CategoryID != nil {
		data["category_id"] = *habit.CategoryID
	}
	if len(habit.DaysOfWeek) > 0 {
		data["days_of_week"] = habit.DaysOfWeek
	}
	if habit.TimesPerWeek != nil {
		data["times_per_week"] = *habit.TimesPerWeek
	}
	if habit.TargetValue != nil {
		data["target_value"] = *habit.TargetValue
	}
	if habit.Unit != nil {
		data["unit"] = *habit.Unit
	}

	body, err := r.client.Insert("habits", data)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	var habits []models.Habit
	if err := json.Unmarshal(body, &habits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(habits) == 0 {
		return nil, fmt.Errorf("no habit returned")
	}

	return &habits[0], nil
}

func (r *habitRepository) GetByID(ctx context.Context, id string) (*models.Habit, error) {
	query := map[string]interface{}{
		"id": fmt.Sprintf("eq.%s", id),
	}

	body, err := r.client.Query("habits", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	var habits []models.Habit
	if err := json.Unmarshal(body, &habits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(habits) == 0 {
		return nil, nil
	}

	return &habits[0], nil
}

func (r *habitRepository) GetByUserID(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"order":   "created_at.asc",
	}
	if !includeArchived {
		query["is_archived"] = "eq.false"
	}

	body, err := r.client.Query("habits", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get habits: %w", err)
	}

	var habits []models.Habit
	if err := json.Unmarshal(body, &habits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, id string, data map[string]interface{}) (*models.Habit, error) {
	data["updated_at"] = time.Now().UTC()

	body, err := r.client.Update("habits", id, data)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	var habits []models.Habit
	if err := json.Unmarshal(body, &habits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(habits) == 0 {
		return nil, fmt.Errorf("habit not found")
	}

	return &habits[0], nil
}

// UpdateSnapshot overwrites the materialized streak rollup as a whole.
// last_completed_at is written even when nil so that undoing the only
// log clears it.
func (r *habitRepository) UpdateSnapshot(ctx context.Context, id string, snapshot models.StreakSnapshot) (*models.Habit, error) {
	data := map[string]interface{}{
		"current_streak":    snapshot.CurrentStreak,
		"longest_streak":    snapshot.LongestStreak,
		"total_completions": snapshot.TotalCompletions,
		"last_completed_at": nil,
	}
	if snapshot.LastCompletedAt != nil {
		data["last_completed_at"] = snapshot.LastCompletedAt.Key()
	}

	return r.Update(ctx, id, data)
}

func (r *habitRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete("habits", id); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	return nil
}
