package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/pkg/supabase"
)

type categoryRepository struct {
	client *supabase.Client
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(client *supabase.Client) CategoryRepository {
	return &categoryRepository{client: client}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	data := map[string]interface{}{
		"user_id": category.UserID,
		"name":    category.Name,
		"color":   category.Color,
	}

	body, err := r.client.Insert("categories", data)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("no category returned")
	}

	return &categories[0], nil
}

func (r *categoryRepository) GetByUserID(ctx context.Context, userID string) ([]models.Category, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"order":   "name.asc",
	}

	body, err := r.client.Query("categories", query)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete("categories", id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
