package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/models"
)

// mockHabitRepository is an in-memory HabitRepository for testing
type mockHabitRepository struct {
	habits map[string]*models.Habit
}

func newMockHabitRepository() *mockHabitRepository {
	return &mockHabitRepository{habits: make(map[string]*models.Habit)}
}

func (m *mockHabitRepository) Create(ctx context.Context, habit *models.Habit) (*models.Habit, error) {
	if habit.ID == "" {
		habit.ID = generateMockID()
	}
	habit.CreatedAt = time.Now()
	habit.UpdatedAt = time.Now()
	clone := *habit
	m.habits[habit.ID] = &clone
	return habit, nil
}

func (m *mockHabitRepository) GetByID(ctx context.Context, id string) (*models.Habit, error) {
	if habit, ok := m.habits[id]; ok {
		clone := *habit
		return &clone, nil
	}
	return nil, nil
}

func (m *mockHabitRepository) GetByUserID(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error) {
	var result []models.Habit
	for _, habit := range m.habits {
		if habit.UserID != userID {
			continue
		}
		if habit.IsArchived && !includeArchived {
			continue
		}
		result = append(result, *habit)
	}
	return result, nil
}

func (m *mockHabitRepository) Update(ctx context.Context, id string, data map[string]interface{}) (*models.Habit, error) {
	habit, ok := m.habits[id]
	if !ok {
		return nil, errors.New("habit not found")
	}
	if v, ok := data["name"]; ok {
		habit.Name = v.(string)
	}
	if v, ok := data["is_paused"]; ok {
		habit.IsPaused = v.(bool)
	}
	if v, ok := data["is_archived"]; ok {
		habit.IsArchived = v.(bool)
	}
	if v, ok := data["paused_at"]; ok {
		habit.PausedAt = parseMockDate(v)
	}
	if v, ok := data["paused_until"]; ok {
		habit.PausedUntil = parseMockDate(v)
	}
	clone := *habit
	return &clone, nil
}

func (m *mockHabitRepository) UpdateSnapshot(ctx context.Context, id string, snapshot models.StreakSnapshot) (*models.Habit, error) {
	habit, ok := m.habits[id]
	if !ok {
		return nil, errors.New("habit not found")
	}
	habit.CurrentStreak = snapshot.CurrentStreak
	habit.LongestStreak = snapshot.LongestStreak
	habit.TotalCompletions = snapshot.TotalCompletions
	habit.LastCompletedAt = snapshot.LastCompletedAt
	clone := *habit
	return &clone, nil
}

func (m *mockHabitRepository) Delete(ctx context.Context, id string) error {
	delete(m.habits, id)
	return nil
}

func parseMockDate(v interface{}) *models.Date {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &models.Date{Time: t}
}

// mockHabitLogRepository is an in-memory HabitLogRepository keyed on
// (habit, date), mirroring the store's uniqueness constraint
type mockHabitLogRepository struct {
	logs map[string]*models.HabitLog // habitID|dateKey -> log
}

func newMockHabitLogRepository() *mockHabitLogRepository {
	return &mockHabitLogRepository{logs: make(map[string]*models.HabitLog)}
}

func logKey(habitID string, date models.Date) string {
	return habitID + "|" + date.Key()
}

func (m *mockHabitLogRepository) Upsert(ctx context.Context, log *models.HabitLog) (*models.HabitLog, error) {
	key := logKey(log.HabitID, log.Date)
	if existing, ok := m.logs[key]; ok {
		existing.Completed = log.Completed
		existing.Value = log.Value
		existing.Notes = log.Notes
		clone := *existing
		return &clone, nil
	}
	log.ID = generateMockID()
	clone := *log
	m.logs[key] = &clone
	return log, nil
}

func (m *mockHabitLogRepository) GetByHabitID(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	var result []models.HabitLog
	for _, log := range m.logs {
		if log.HabitID == habitID {
			result = append(result, *log)
		}
	}
	return result, nil
}

func (m *mockHabitLogRepository) GetCompletedDates(ctx context.Context, habitID string) ([]models.Date, error) {
	var dates []models.Date
	for _, log := range m.logs {
		if log.HabitID == habitID && log.Completed {
			dates = append(dates, log.Date)
		}
	}
	return dates, nil
}

func (m *mockHabitLogRepository) GetByUserIDAndDateRange(ctx context.Context, userID string, start, end models.Date) ([]models.HabitLog, error) {
	var result []models.HabitLog
	for _, log := range m.logs {
		if log.UserID != userID {
			continue
		}
		if log.Date.Time.Before(start.Time) || log.Date.Time.After(end.Time) {
			continue
		}
		result = append(result, *log)
	}
	return result, nil
}

func (m *mockHabitLogRepository) DeleteByHabitIDAndDate(ctx context.Context, habitID string, date models.Date) error {
	delete(m.logs, logKey(habitID, date))
	return nil
}

// mockMilestoneRepository enforces (habit, type, value) uniqueness and
// returns only first-time insertions, like the PostgREST backend
type mockMilestoneRepository struct {
	milestones map[string]*models.Milestone // habitID|type|value
}

func newMockMilestoneRepository() *mockMilestoneRepository {
	return &mockMilestoneRepository{milestones: make(map[string]*models.Milestone)}
}

func (m *mockMilestoneRepository) CreateNew(ctx context.Context, milestones []models.Milestone) ([]models.Milestone, error) {
	created := []models.Milestone{}
	for _, milestone := range milestones {
		key := fmt.Sprintf("%s|%s|%d", milestone.HabitID, milestone.Type, milestone.Value)
		if _, exists := m.milestones[key]; exists {
			continue
		}
		milestone.ID = generateMockID()
		milestone.AchievedAt = time.Now()
		clone := milestone
		m.milestones[key] = &clone
		created = append(created, milestone)
	}
	return created, nil
}

func (m *mockMilestoneRepository) GetByHabitID(ctx context.Context, habitID string) ([]models.Milestone, error) {
	var result []models.Milestone
	for _, milestone := range m.milestones {
		if milestone.HabitID == habitID {
			result = append(result, *milestone)
		}
	}
	return result, nil
}

func (m *mockMilestoneRepository) GetByUserID(ctx context.Context, userID string) ([]models.Milestone, error) {
	var result []models.Milestone
	for _, milestone := range m.milestones {
		if milestone.UserID == userID {
			result = append(result, *milestone)
		}
	}
	return result, nil
}

// mockCategoryRepository is an in-memory CategoryRepository
type mockCategoryRepository struct {
	categories map[string]*models.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[string]*models.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == "" {
		category.ID = generateMockID()
	}
	clone := *category
	m.categories[category.ID] = &clone
	return category, nil
}

func (m *mockCategoryRepository) GetByUserID(ctx context.Context, userID string) ([]models.Category, error) {
	var result []models.Category
	for _, category := range m.categories {
		if category.UserID == userID {
			result = append(result, *category)
		}
	}
	return result, nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

// mockUserRepository returns a fixed UTC user
type mockUserRepository struct{}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Email: "test@example.com", Timezone: "UTC"}, nil
}

// Helper to generate mock IDs
var mockIDCounter int

func generateMockID() string {
	mockIDCounter++
	return fmt.Sprintf("mock-id-%d", mockIDCounter)
}

// fixture wires the services against in-memory repos and a memory-only cache
type fixture struct {
	habitRepo     *mockHabitRepository
	logRepo       *mockHabitLogRepository
	milestoneRepo *mockMilestoneRepository
	categoryRepo  *mockCategoryRepository
	cache         *cache.Cache
	habits        HabitService
	analytics     AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		habitRepo:     newMockHabitRepository(),
		logRepo:       newMockHabitLogRepository(),
		milestoneRepo: newMockMilestoneRepository(),
		categoryRepo:  newMockCategoryRepository(),
		cache:         cache.New(nil),
	}
	t.Cleanup(f.cache.Close)

	userRepo := &mockUserRepository{}
	f.habits = NewHabitService(f.habitRepo, f.logRepo, f.milestoneRepo, userRepo, f.cache)
	f.analytics = NewAnalyticsService(f.habitRepo, f.logRepo, f.milestoneRepo, f.categoryRepo, userRepo, f.cache)
	return f
}

// seedDailyHabit creates a daily habit whose creation date is daysAgo
// days in the past.
func (f *fixture) seedDailyHabit(userID, name string, daysAgo int) *models.Habit {
	habit := &models.Habit{
		ID:        generateMockID(),
		UserID:    userID,
		Name:      name,
		Frequency: models.FrequencyDaily,
		HabitType: models.HabitTypeBoolean,
		IsActive:  true,
		CreatedAt: time.Now().AddDate(0, 0, -daysAgo),
	}
	clone := *habit
	f.habitRepo.habits[habit.ID] = &clone
	return habit
}

// seedLogs completes the habit on every day in [today-daysAgo, today-until]
func (f *fixture) seedLogs(habit *models.Habit, daysAgo, until int) {
	today := models.DateOf(time.Now(), time.UTC)
	for i := daysAgo; i >= until; i-- {
		date := today.AddDays(-i)
		key := logKey(habit.ID, date)
		f.logRepo.logs[key] = &models.HabitLog{
			ID:        generateMockID(),
			HabitID:   habit.ID,
			UserID:    habit.UserID,
			Date:      date,
			Completed: true,
		}
	}
}

func boolptr(b bool) *bool { return &b }

func TestCreateHabitRejectsUnusableWeeklyRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.habits.CreateHabit(ctx, "user-1", &models.CreateHabitRequest{
		Name:      "Gym",
		Frequency: models.FrequencyWeekly,
		HabitType: models.HabitTypeBoolean,
	})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule, got %v", err)
	}
}

func TestCheckInIncrementsStreakByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 5)
	f.seedLogs(habit, 5, 1) // completed every day through yesterday

	resp, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	// 5 prior days + today
	if resp.Streak.CurrentStreak != 6 {
		t.Errorf("Expected currentStreak=6, got %d", resp.Streak.CurrentStreak)
	}
	if resp.Streak.TotalCompletions != 6 {
		t.Errorf("Expected totalCompletions=6, got %d", resp.Streak.TotalCompletions)
	}
	if !resp.Log.Completed {
		t.Error("Expected the upserted log to be completed")
	}

	stored, _ := f.habitRepo.GetByID(ctx, habit.ID)
	if stored.CurrentStreak != 6 {
		t.Errorf("Snapshot not persisted: stored streak %d", stored.CurrentStreak)
	}
}

func TestCheckInAwardsMilestonesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Meditate", 10)
	f.seedLogs(habit, 10, 1) // 10 completions through yesterday

	resp, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	// Streak 11 crosses streak threshold 7; 11 completions cross 10
	var streakMilestone, completionMilestone bool
	for _, m := range resp.NewMilestones {
		if m.Type == models.MilestoneTypeStreak && m.Value == 7 {
			streakMilestone = true
		}
		if m.Type == models.MilestoneTypeCompletions && m.Value == 10 {
			completionMilestone = true
		}
	}
	if !streakMilestone {
		t.Error("Expected a streak milestone at 7")
	}
	if !completionMilestone {
		t.Error("Expected a completions milestone at 10")
	}

	// Re-submitting the same day earns nothing new
	resp2, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{})
	if err != nil {
		t.Fatalf("Second CheckIn failed: %v", err)
	}
	if len(resp2.NewMilestones) != 0 {
		t.Errorf("Replayed check-in must award no milestones, got %d", len(resp2.NewMilestones))
	}
	if resp2.Streak.CurrentStreak != resp.Streak.CurrentStreak {
		t.Errorf("Replayed check-in changed the streak: %d vs %d",
			resp2.Streak.CurrentStreak, resp.Streak.CurrentStreak)
	}
}

func TestCheckInRejectsOutOfRangeDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Run", 3)
	today := models.DateOf(time.Now(), time.UTC)

	future := today.AddDays(1)
	_, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{Date: &future})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Future date: expected ErrInvalidSchedule, got %v", err)
	}

	beforeCreation := today.AddDays(-10)
	_, err = f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{Date: &beforeCreation})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Pre-creation date: expected ErrInvalidSchedule, got %v", err)
	}
}

func TestCheckInOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 3)

	_, err := f.habits.CheckIn(ctx, "user-2", habit.ID, &models.CheckInRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's habit, got %v", err)
	}

	_, err = f.habits.CheckIn(ctx, "user-1", "no-such-habit", &models.CheckInRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown habit, got %v", err)
	}
}

func TestCheckInArchivedHabitConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Old habit", 3)
	f.habitRepo.habits[habit.ID].IsArchived = true

	_, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for archived habit, got %v", err)
	}
}

func TestUndoRestoresPriorStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Write", 4)
	f.seedLogs(habit, 4, 1)

	before, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	after, err := f.habits.Undo(ctx, "user-1", habit.ID, &models.UndoRequest{})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	if after.CurrentStreak != before.Streak.CurrentStreak-1 {
		t.Errorf("Expected streak %d after undo, got %d",
			before.Streak.CurrentStreak-1, after.CurrentStreak)
	}
	if after.TotalCompletions != before.Streak.TotalCompletions-1 {
		t.Errorf("Expected %d completions after undo, got %d",
			before.Streak.TotalCompletions-1, after.TotalCompletions)
	}
}

func TestCheckInIncompleteDayBreaksNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Stretch", 2)
	f.seedLogs(habit, 2, 1)

	// Explicitly mark today incomplete; an open or failed today must not
	// count toward the streak
	resp, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{Completed: boolptr(false)})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if resp.Streak.CurrentStreak != 2 {
		t.Errorf("Expected streak 2 with today incomplete, got %d", resp.Streak.CurrentStreak)
	}
	if resp.Streak.TotalCompletions != 2 {
		t.Errorf("Expected 2 completions, got %d", resp.Streak.TotalCompletions)
	}
}

func TestPauseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Swim", 3)
	yesterday := models.DateOf(time.Now(), time.UTC).AddDays(-1)

	_, err := f.habits.Pause(ctx, "user-1", habit.ID, &models.PauseRequest{Until: &yesterday})
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for a past pause end, got %v", err)
	}

	updated, err := f.habits.Pause(ctx, "user-1", habit.ID, &models.PauseRequest{})
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if !updated.IsPaused {
		t.Error("Expected habit to be paused")
	}

	resumed, err := f.habits.Resume(ctx, "user-1", habit.ID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.IsPaused {
		t.Error("Expected habit to be resumed")
	}
}
