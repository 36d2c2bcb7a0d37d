package service

import (
	"context"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/repository"
)

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        *cache.Cache
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo repository.CategoryRepository, c *cache.Cache) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, cache: c}
}

func (s *categoryService) CreateCategory(ctx context.Context, userID, name, color string) (*models.Category, error) {
	created, err := s.categoryRepo.Create(ctx, &models.Category{
		UserID: userID,
		Name:   name,
		Color:  color,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return created, nil
}

func (s *categoryService) GetUserCategories(ctx context.Context, userID string) ([]models.Category, error) {
	return s.categoryRepo.GetByUserID(ctx, userID)
}

func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	categories, err := s.categoryRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	owned := false
	for _, category := range categories {
		if category.ID == categoryID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrNotFound
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return err
	}

	s.cache.InvalidateUser(ctx, userID)
	return nil
}
