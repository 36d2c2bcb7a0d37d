package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/pkg/supabase"
)

type milestoneRepository struct {
	client *supabase.Client
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(client *supabase.Client) MilestoneRepository {
	return &milestoneRepository{client: client}
}

// CreateNew inserts milestone rows, skipping any that already exist for
// (habit_id, type, value), and returns only the rows actually inserted.
// That makes milestone awarding idempotent: replaying a check-in earns
// nothing the second time.
func (r *milestoneRepository) CreateNew(ctx context.Context, milestones []models.Milestone) ([]models.Milestone, error) {
	if len(milestones) == 0 {
		return []models.Milestone{}, nil
	}

	insertData := make([]map[string]interface{}, 0, len(milestones))
	for _, m := range milestones {
		achievedAt := m.AchievedAt
		if achievedAt.IsZero() {
			achievedAt = time.Now().UTC()
		}
		insertData = append(insertData, map[string]interface{}{
			"habit_id":    m.HabitID,
			"user_id":     m.UserID,
			"type":        m.Type,
			"value":       m.Value,
			"achieved_at": achievedAt,
		})
	}

	body, err := r.client.InsertIgnoreDuplicates("milestones", insertData, "habit_id,type,value")
	if err != nil {
		return nil, fmt.Errorf("failed to create milestones: %w", err)
	}

	var created []models.Milestone
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return created, nil
}

func (r *milestoneRepository) GetByHabitID(ctx context.Context, habitID string) ([]models.Milestone, error) {
	query := map[string]interface{}{
		"habit_id": fmt.Sprintf("eq.%s", habitID),
		"order":    "achieved_at.desc",
	}

	body, err := r.client.Query("milestones", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestones: %w", err)
	}

	var milestones []models.Milestone
	if err := json.Unmarshal(body, &milestones); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return milestones, nil
}

func (r *milestoneRepository) GetByUserID(ctx context.Context, userID string) ([]models.Milestone, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"order":   "achieved_at.desc",
	}

	body, err := r.client.Query("milestones", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestones: %w", err)
	}

	var milestones []models.Milestone
	if err := json.Unmarshal(body, &milestones); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return milestones, nil
}
