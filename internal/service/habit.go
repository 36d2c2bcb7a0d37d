package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/logger"
	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/repository"
	"github.com/habitflow/backend/internal/schedule"
	"github.com/habitflow/backend/internal/streak"
)

type habitService struct {
	habitRepo     repository.HabitRepository
	logRepo       repository.HabitLogRepository
	milestoneRepo repository.MilestoneRepository
	userRepo      repository.UserRepository
	cache         *cache.Cache
}

// NewHabitService creates a new habit service
func NewHabitService(
	habitRepo repository.HabitRepository,
	logRepo repository.HabitLogRepository,
	milestoneRepo repository.MilestoneRepository,
	userRepo repository.UserRepository,
	c *cache.Cache,
) HabitService {
	return &habitService{
		habitRepo:     habitRepo,
		logRepo:       logRepo,
		milestoneRepo: milestoneRepo,
		userRepo:      userRepo,
		cache:         c,
	}
}

// userLocation resolves the caller's IANA time zone, falling back to UTC
// when the zone is missing or unloadable.
func userLocation(ctx context.Context, users repository.UserRepository, userID string) *time.Location {
	user, err := users.GetByID(ctx, userID)
	if err != nil || user.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		logger.Warn("Unknown user timezone, falling back to UTC",
			logger.String("user_id", userID),
			logger.String("timezone", user.Timezone),
		)
		return time.UTC
	}
	return loc
}

// ownedHabit loads a habit and verifies it belongs to the caller.
// Ownership failure is reported as not-found so habit IDs leak nothing.
func (s *habitService) ownedHabit(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habit: %w", err)
	}
	if habit == nil || habit.UserID != userID {
		return nil, ErrNotFound
	}
	return habit, nil
}

func (s *habitService) CreateHabit(ctx context.Context, userID string, req *models.CreateHabitRequest) (*models.Habit, error) {
	if !schedule.ValidateRule(req.Frequency, req.DaysOfWeek, req.TimesPerWeek) {
		return nil, fmt.Errorf("%w: weekly habits need days_of_week or times_per_week", ErrInvalidSchedule)
	}

	habit := &models.Habit{
		ID:           uuid.New().String(),
		UserID:       userID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Frequency:    req.Frequency,
		DaysOfWeek:   req.DaysOfWeek,
		TimesPerWeek: req.TimesPerWeek,
		HabitType:    req.HabitType,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
	}

	created, err := s.habitRepo.Create(ctx, habit)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return created, nil
}

func (s *habitService) GetHabit(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	return s.ownedHabit(ctx, userID, habitID)
}

func (s *habitService) GetUserHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error) {
	return s.habitRepo.GetByUserID(ctx, userID, includeArchived)
}

func (s *habitService) UpdateHabit(ctx context.Context, userID, habitID string, req *models.UpdateHabitRequest) (*models.Habit, error) {
	habit, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	// The merged rule must stay evaluable
	frequency := habit.Frequency
	if req.Frequency != nil {
		frequency = *req.Frequency
	}
	daysOfWeek := habit.DaysOfWeek
	if req.DaysOfWeek != nil {
		daysOfWeek = req.DaysOfWeek
	}
	timesPerWeek := habit.TimesPerWeek
	if req.TimesPerWeek != nil {
		timesPerWeek = req.TimesPerWeek
	}
	if !schedule.ValidateRule(frequency, daysOfWeek, timesPerWeek) {
		return nil, fmt.Errorf("%w: weekly habits need days_of_week or times_per_week", ErrInvalidSchedule)
	}

	data := make(map[string]interface{})
	if req.Name != nil {
		data["name"] = *req.Name
	}
	if req.Description != nil {
		data["description"] = *req.Description
	}
	if req.CategoryID != nil {
		data["category_id"] = *req.CategoryID
	}
	if req.Frequency != nil {
		data["frequency"] = *req.Frequency
	}
	if req.DaysOfWeek != nil {
		data["days_of_week"] = req.DaysOfWeek
	}
	if req.TimesPerWeek != nil {
		data["times_per_week"] = *req.TimesPerWeek
	}
	if req.TargetValue != nil {
		data["target_value"] = *req.TargetValue
	}
	if req.Unit != nil {
		data["unit"] = *req.Unit
	}

	updated, err := s.habitRepo.Update(ctx, habitID, data)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

func (s *habitService) DeleteHabit(ctx context.Context, userID, habitID string) error {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return err
	}

	if err := s.habitRepo.Delete(ctx, habitID); err != nil {
		return err
	}

	s.cache.InvalidateUser(ctx, userID)
	return nil
}

// CheckIn records a completion for one calendar day and rebuilds the
// habit's streak snapshot from the full log set. Re-submitting the same
// day is an upsert: the last writer wins on value/notes and the snapshot
// stays correct because it is always re-derived, never patched.
func (s *habitService) CheckIn(ctx context.Context, userID, habitID string, req *models.CheckInRequest) (*models.CheckInResponse, error) {
	habit, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	if habit.IsArchived {
		return nil, fmt.Errorf("%w: habit is archived", ErrConflict)
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	date := today
	if req.Date != nil {
		date = *req.Date
	}

	creation := schedule.CreationDay(habit, loc)
	if date.Time.Before(creation.Time) || date.Time.After(today.Time) {
		return nil, fmt.Errorf("%w: date %s outside [%s, %s]",
			ErrInvalidSchedule, date.Key(), creation.Key(), today.Key())
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	log, err := s.logRepo.Upsert(ctx, &models.HabitLog{
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Completed: completed,
		Value:     req.Value,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	// The log row is committed: invalidate no matter how the rest of
	// the request ends, so no stale entry can outlive the write.
	defer s.cache.InvalidateUser(ctx, userID)

	snapshot, err := s.recomputeStreak(ctx, habit, today, loc)
	if err != nil {
		return nil, err
	}

	milestones, err := s.awardMilestones(ctx, habit, snapshot)
	if err != nil {
		return nil, err
	}

	return &models.CheckInResponse{
		Log:           *log,
		Streak:        snapshot,
		NewMilestones: milestones,
	}, nil
}

// Undo removes the log for one calendar day and rebuilds the snapshot.
// Milestones already earned are kept; they are immutable achievements.
func (s *habitService) Undo(ctx context.Context, userID, habitID string, req *models.UndoRequest) (*models.StreakSnapshot, error) {
	habit, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	date := today
	if req.Date != nil {
		date = *req.Date
	}

	if err := s.logRepo.DeleteByHabitIDAndDate(ctx, habitID, date); err != nil {
		return nil, fmt.Errorf("failed to undo check-in: %w", err)
	}

	defer s.cache.InvalidateUser(ctx, userID)

	snapshot, err := s.recomputeStreak(ctx, habit, today, loc)
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// recomputeStreak re-derives the snapshot from the authoritative log set
// and persists it onto the habit row.
func (s *habitService) recomputeStreak(ctx context.Context, habit *models.Habit, today models.Date, loc *time.Location) (models.StreakSnapshot, error) {
	dates, err := s.logRepo.GetCompletedDates(ctx, habit.ID)
	if err != nil {
		return models.StreakSnapshot{}, fmt.Errorf("failed to load completion history: %w", err)
	}

	snapshot := streak.Compute(habit, dates, today, loc)

	if _, err := s.habitRepo.UpdateSnapshot(ctx, habit.ID, snapshot); err != nil {
		return models.StreakSnapshot{}, fmt.Errorf("failed to persist streak snapshot: %w", err)
	}

	return snapshot, nil
}

// awardMilestones creates milestone rows for every threshold the
// snapshot has crossed. The store skips duplicates, so only first-time
// crossings come back.
func (s *habitService) awardMilestones(ctx context.Context, habit *models.Habit, snapshot models.StreakSnapshot) ([]models.Milestone, error) {
	streaks, completions := streak.CrossedThresholds(snapshot)

	var candidates []models.Milestone
	for _, value := range streaks {
		candidates = append(candidates, models.Milestone{
			HabitID: habit.ID,
			UserID:  habit.UserID,
			Type:    models.MilestoneTypeStreak,
			Value:   value,
		})
	}
	for _, value := range completions {
		candidates = append(candidates, models.Milestone{
			HabitID: habit.ID,
			UserID:  habit.UserID,
			Type:    models.MilestoneTypeCompletions,
			Value:   value,
		})
	}

	created, err := s.milestoneRepo.CreateNew(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to award milestones: %w", err)
	}

	if len(created) > 0 {
		logger.Info("Milestones earned",
			logger.String("habit_id", habit.ID),
			logger.Int("count", len(created)),
		)
	}

	return created, nil
}

// Pause suspends due-ness from today through req.Until, or open-ended
// when no end date is given. Days before the pause stay due, so
// historical analytics are unaffected.
func (s *habitService) Pause(ctx context.Context, userID, habitID string, req *models.PauseRequest) (*models.Habit, error) {
	habit, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	if habit.IsArchived {
		return nil, fmt.Errorf("%w: habit is archived", ErrConflict)
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	data := map[string]interface{}{
		"is_paused":    true,
		"paused_at":    today.Key(),
		"paused_until": nil,
	}
	if req.Until != nil {
		if req.Until.Time.Before(today.Time) {
			return nil, fmt.Errorf("%w: pause end %s is in the past", ErrInvalidSchedule, req.Until.Key())
		}
		data["paused_until"] = req.Until.Key()
	}

	updated, err := s.habitRepo.Update(ctx, habitID, data)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

func (s *habitService) Resume(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	updated, err := s.habitRepo.Update(ctx, habitID, map[string]interface{}{
		"is_paused":    false,
		"paused_at":    nil,
		"paused_until": nil,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

func (s *habitService) Archive(ctx context.Context, userID, habitID string) (*models.Habit, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	updated, err := s.habitRepo.Update(ctx, habitID, map[string]interface{}{
		"is_archived": true,
		"is_active":   false,
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

func (s *habitService) GetMilestones(ctx context.Context, userID, habitID string) ([]models.Milestone, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	return s.milestoneRepo.GetByHabitID(ctx, habitID)
}
