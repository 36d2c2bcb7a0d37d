package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/repository"
	"github.com/habitflow/backend/internal/schedule"
)

type analyticsService struct {
	habitRepo     repository.HabitRepository
	logRepo       repository.HabitLogRepository
	milestoneRepo repository.MilestoneRepository
	categoryRepo  repository.CategoryRepository
	userRepo      repository.UserRepository
	cache         *cache.Cache
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	habitRepo repository.HabitRepository,
	logRepo repository.HabitLogRepository,
	milestoneRepo repository.MilestoneRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	c *cache.Cache,
) AnalyticsService {
	return &analyticsService{
		habitRepo:     habitRepo,
		logRepo:       logRepo,
		milestoneRepo: milestoneRepo,
		categoryRepo:  categoryRepo,
		userRepo:      userRepo,
		cache:         c,
	}
}

// fetch deserializes a cached payload into dest, reporting whether a
// usable entry was found.
func (s *analyticsService) fetch(ctx context.Context, key string, dest interface{}) bool {
	payload, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(payload, dest) == nil
}

// put writes a freshly computed payload back under the endpoint's TTL
func (s *analyticsService) put(ctx context.Context, key, endpoint string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload, cache.TTLFor(endpoint))
}

// window is the materialized input of one aggregation: the user's habits
// and a completed-day lookup over a date range.
type window struct {
	habits []models.Habit
	done   map[string]map[string]bool // habit ID -> date key -> completed
	start  models.Date
	end    models.Date
	today  models.Date
	loc    *time.Location
}

// loadWindow fetches the user's habits and the completion lookup for
// [start, end]. includeArchived widens habit selection for explicit
// historical ranges; trailing-window dashboards pass false.
func (s *analyticsService) loadWindow(ctx context.Context, userID string, start, end models.Date, includeArchived bool) (*window, error) {
	loc := userLocation(ctx, s.userRepo, userID)

	habits, err := s.habitRepo.GetByUserID(ctx, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	logs, err := s.logRepo.GetByUserIDAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load habit logs: %w", err)
	}

	done := make(map[string]map[string]bool)
	for _, log := range logs {
		if !log.Completed {
			continue
		}
		if done[log.HabitID] == nil {
			done[log.HabitID] = make(map[string]bool)
		}
		done[log.HabitID][log.Date.Key()] = true
	}

	return &window{
		habits: habits,
		done:   done,
		start:  start,
		end:    end,
		today:  models.DateOf(time.Now(), loc),
		loc:    loc,
	}, nil
}

func (w *window) completedOn(habitID string, day models.Date) bool {
	return w.done[habitID][day.Key()]
}

// dayCount tallies expected vs completed across all habits for one day
func (w *window) dayCount(day models.Date) (completed, expected int) {
	for i := range w.habits {
		habit := &w.habits[i]
		if schedule.IsDue(habit, day, w.loc) {
			expected++
			if w.completedOn(habit.ID, day) {
				completed++
			}
		}
	}
	return completed, expected
}

// rangeCount tallies expected vs completed across all habits over [start, end]
func (w *window) rangeCount(start, end models.Date) (completed, expected int) {
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		c, e := w.dayCount(d)
		completed += c
		expected += e
	}
	return completed, expected
}

// habitRangeCount tallies one habit's expected vs completed over [start, end]
func (w *window) habitRangeCount(habit *models.Habit, start, end models.Date) (completed, expected int) {
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		if schedule.IsDue(habit, d, w.loc) {
			expected++
			if w.completedOn(habit.ID, d) {
				completed++
			}
		}
	}
	return completed, expected
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// pct is the completion percentage, with a zero denominator yielding 0
// rather than a division error.
func pct(completed, expected int) float64 {
	if expected == 0 {
		return 0
	}
	return round1(100 * float64(completed) / float64(expected))
}

// weekStart returns the Monday of the ISO week containing day
func weekStart(day models.Date) models.Date {
	return day.AddDays(1 - schedule.ISOWeekday(day))
}

// parseDay parses an optional "2006-01-02" query parameter
func parseDay(s *string) (*models.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidSchedule, *s)
	}
	d := models.Date{Time: t}
	return &d, nil
}

func (s *analyticsService) GetOverview(ctx context.Context, userID string) (*models.Overview, error) {
	key := cache.BuildKey(userID, cache.EndpointOverview, nil)
	var cached models.Overview
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start := today.AddDays(-6)

	w, err := s.loadWindow(ctx, userID, start, today, true)
	if err != nil {
		return nil, err
	}

	overview := models.Overview{Last7Days: make([]models.DailyCount, 0, 7)}

	var current []models.Habit
	for _, habit := range w.habits {
		overview.TotalHabits++
		switch {
		case habit.IsArchived:
			overview.ArchivedHabits++
		case habit.IsPaused:
			overview.PausedHabits++
			current = append(current, habit)
		default:
			overview.ActiveHabits++
			current = append(current, habit)
		}

		if habit.LongestStreak > overview.LongestStreakEver {
			overview.LongestStreakEver = habit.LongestStreak
		}
		if !habit.IsArchived && habit.CurrentStreak > overview.BestCurrentStreak {
			overview.BestCurrentStreak = habit.CurrentStreak
		}
	}

	// Archived habits are out of the "current" picture entirely
	w.habits = current

	for d := start; !d.Time.After(today.Time); d = d.AddDays(1) {
		completed, expected := w.dayCount(d)
		overview.Last7Days = append(overview.Last7Days, models.DailyCount{
			Date:       d.Key(),
			Completed:  completed,
			Expected:   expected,
			Percentage: pct(completed, expected),
		})
	}

	todayCount := overview.Last7Days[len(overview.Last7Days)-1]
	overview.CompletedToday = todayCount.Completed
	overview.ExpectedToday = todayCount.Expected
	overview.TodayPercentage = todayCount.Percentage

	s.put(ctx, key, cache.EndpointOverview, &overview)
	return &overview, nil
}

func (s *analyticsService) GetBreakdown(ctx context.Context, userID, period string, startParam, endParam *string) (*models.PeriodBreakdown, error) {
	switch period {
	case "", "week", "weekly":
		period = "week"
	case "month", "monthly":
		period = "month"
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidSchedule, period)
	}

	key := cache.BuildKey(userID, cache.EndpointBreakdown, &cache.Params{
		Period:    &period,
		StartDate: startParam,
		EndDate:   endParam,
	})
	var cached models.PeriodBreakdown
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	startOverride, err := parseDay(startParam)
	if err != nil {
		return nil, err
	}
	endOverride, err := parseDay(endParam)
	if err != nil {
		return nil, err
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	end := today
	if endOverride != nil && endOverride.Time.Before(today.Time) {
		end = *endOverride
	}
	var start models.Date
	switch {
	case startOverride != nil:
		start = *startOverride
	case period == "month":
		start = end.AddDays(-29)
	default:
		start = end.AddDays(-6)
	}
	if start.Time.After(end.Time) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidSchedule, start.Key(), end.Key())
	}

	w, err := s.loadWindow(ctx, userID, start, end, true)
	if err != nil {
		return nil, err
	}

	breakdown := models.PeriodBreakdown{
		Period:    period,
		StartDate: start.Key(),
		EndDate:   end.Key(),
	}

	weekTotals := make(map[string]*models.WeekSummary)
	var weekOrder []string

	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		completed, expected := w.dayCount(d)
		breakdown.Days = append(breakdown.Days, models.DailyCount{
			Date:       d.Key(),
			Completed:  completed,
			Expected:   expected,
			Percentage: pct(completed, expected),
		})
		breakdown.Completed += completed
		breakdown.Expected += expected

		// Week totals are sums of member days, never averaged percentages
		ws := weekStart(d).Key()
		if weekTotals[ws] == nil {
			weekTotals[ws] = &models.WeekSummary{WeekStart: ws}
			weekOrder = append(weekOrder, ws)
		}
		weekTotals[ws].Completed += completed
		weekTotals[ws].Expected += expected
	}

	breakdown.Percentage = pct(breakdown.Completed, breakdown.Expected)

	if period == "month" {
		for _, ws := range weekOrder {
			summary := weekTotals[ws]
			summary.Percentage = pct(summary.Completed, summary.Expected)
			breakdown.Weeks = append(breakdown.Weeks, *summary)
		}
	}

	s.put(ctx, key, cache.EndpointBreakdown, &breakdown)
	return &breakdown, nil
}

// heatmapLevel buckets a day's completion percentage into 0..4 at fixed
// breakpoints: 0%, <25%, <50%, <75%, >=75%.
func heatmapLevel(completed, due int) int {
	if due == 0 || completed == 0 {
		return 0
	}
	p := 100 * float64(completed) / float64(due)
	switch {
	case p < 25:
		return 1
	case p < 50:
		return 2
	case p < 75:
		return 3
	default:
		return 4
	}
}

func (s *analyticsService) GetHeatmap(ctx context.Context, userID string, startParam, endParam *string) ([]models.HeatmapDay, error) {
	key := cache.BuildKey(userID, cache.EndpointHeatmap, &cache.Params{
		StartDate: startParam,
		EndDate:   endParam,
	})
	var cached []models.HeatmapDay
	if s.fetch(ctx, key, &cached) {
		return cached, nil
	}

	startOverride, err := parseDay(startParam)
	if err != nil {
		return nil, err
	}
	endOverride, err := parseDay(endParam)
	if err != nil {
		return nil, err
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	end := today
	if endOverride != nil && endOverride.Time.Before(today.Time) {
		end = *endOverride
	}
	start := end.AddDays(-364)
	if startOverride != nil {
		start = *startOverride
	}
	if start.Time.After(end.Time) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidSchedule, start.Key(), end.Key())
	}

	w, err := s.loadWindow(ctx, userID, start, end, true)
	if err != nil {
		return nil, err
	}

	days := make([]models.HeatmapDay, 0, start.DaysUntil(end)+1)
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		completed, due := w.dayCount(d)
		days = append(days, models.HeatmapDay{
			Date:      d.Key(),
			Completed: completed,
			Due:       due,
			Level:     heatmapLevel(completed, due),
		})
	}

	s.put(ctx, key, cache.EndpointHeatmap, days)
	return days, nil
}

func (s *analyticsService) GetHabitStats(ctx context.Context, userID, habitID string) (*models.HabitStats, error) {
	key := cache.BuildKey(userID, cache.EndpointHabitStats, &cache.Params{HabitID: &habitID})
	var cached models.HabitStats
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habit: %w", err)
	}
	if habit == nil || habit.UserID != userID {
		return nil, ErrNotFound
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	logs, err := s.logRepo.GetByHabitID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habit logs: %w", err)
	}

	done := make(map[string]bool)
	var valueSum float64
	var valueCount int
	for _, log := range logs {
		if !log.Completed {
			continue
		}
		done[log.Date.Key()] = true
		if log.Value != nil {
			valueSum += *log.Value
			valueCount++
		}
	}

	stats := models.HabitStats{
		HabitID:          habit.ID,
		Name:             habit.Name,
		CurrentStreak:    habit.CurrentStreak,
		LongestStreak:    habit.LongestStreak,
		TotalCompletions: habit.TotalCompletions,
	}

	start30 := today.AddDays(-29)
	for d := start30; !d.Time.After(today.Time); d = d.AddDays(1) {
		if schedule.IsDue(habit, d, loc) {
			stats.ExpectedDays30++
			if done[d.Key()] {
				stats.CompletedDays30++
			}
		}
	}
	stats.CompletionRate30 = pct(stats.CompletedDays30, stats.ExpectedDays30)

	if habit.HabitType != models.HabitTypeBoolean && valueCount > 0 {
		avg := round1(valueSum / float64(valueCount))
		stats.AverageValue = &avg
	}

	// 8-week trend, oldest week first, each running Monday..Sunday
	thisWeek := weekStart(today)
	for i := 7; i >= 0; i-- {
		ws := thisWeek.AddDays(-7 * i)
		we := ws.AddDays(6)
		if we.Time.After(today.Time) {
			we = today
		}
		summary := models.WeekSummary{WeekStart: ws.Key()}
		for d := ws; !d.Time.After(we.Time); d = d.AddDays(1) {
			if schedule.IsDue(habit, d, loc) {
				summary.Expected++
				if done[d.Key()] {
					summary.Completed++
				}
			}
		}
		summary.Percentage = pct(summary.Completed, summary.Expected)
		stats.WeeklyTrend = append(stats.WeeklyTrend, summary)
	}

	milestones, err := s.milestoneRepo.GetByHabitID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	stats.Milestones = milestones

	s.put(ctx, key, cache.EndpointHabitStats, &stats)
	return &stats, nil
}

func (s *analyticsService) GetLeaderboard(ctx context.Context, userID string, page, limit int) (*models.Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	key := cache.BuildKey(userID, cache.EndpointLeaderboard, &cache.Params{Page: &page, Limit: &limit})
	var cached models.Leaderboard
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	habits, err := s.habitRepo.GetByUserID(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].CurrentStreak != habits[j].CurrentStreak {
			return habits[i].CurrentStreak > habits[j].CurrentStreak
		}
		if habits[i].LongestStreak != habits[j].LongestStreak {
			return habits[i].LongestStreak > habits[j].LongestStreak
		}
		return habits[i].Name < habits[j].Name
	})

	board := models.Leaderboard{
		Entries: []models.LeaderboardEntry{},
		Page:    page,
		Limit:   limit,
		Total:   len(habits),
	}

	offset := (page - 1) * limit
	for i := offset; i < len(habits) && i < offset+limit; i++ {
		board.Entries = append(board.Entries, models.LeaderboardEntry{
			Rank:          i + 1,
			HabitID:       habits[i].ID,
			Name:          habits[i].Name,
			CurrentStreak: habits[i].CurrentStreak,
			LongestStreak: habits[i].LongestStreak,
		})
	}

	s.put(ctx, key, cache.EndpointLeaderboard, &board)
	return &board, nil
}

func (s *analyticsService) GetCategoryBreakdown(ctx context.Context, userID string) (*models.CategoryBreakdown, error) {
	key := cache.BuildKey(userID, cache.EndpointCategories, nil)
	var cached models.CategoryBreakdown
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start := today.AddDays(-29)

	w, err := s.loadWindow(ctx, userID, start, today, false)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	names := make(map[string]string, len(categories))
	for _, category := range categories {
		names[category.ID] = category.Name
	}

	grouped := make(map[string][]models.Habit)
	var order []string
	appendHabit := func(categoryID string, habit models.Habit) {
		if _, seen := grouped[categoryID]; !seen {
			order = append(order, categoryID)
		}
		grouped[categoryID] = append(grouped[categoryID], habit)
	}
	for _, habit := range w.habits {
		if habit.CategoryID != nil && names[*habit.CategoryID] != "" {
			appendHabit(*habit.CategoryID, habit)
		} else {
			appendHabit("uncategorized", habit)
		}
	}

	breakdown := models.CategoryBreakdown{Categories: []models.CategoryStats{}}
	for _, categoryID := range order {
		name := names[categoryID]
		if categoryID == "uncategorized" {
			name = "Uncategorized"
		}

		stats := models.CategoryStats{
			CategoryID: categoryID,
			Name:       name,
			Habits:     []models.HabitRate{},
		}
		for i := range grouped[categoryID] {
			habit := &grouped[categoryID][i]
			completed, expected := w.habitRangeCount(habit, start, today)
			stats.Completed += completed
			stats.Expected += expected
			stats.Habits = append(stats.Habits, models.HabitRate{
				HabitRef:   models.HabitRef{HabitID: habit.ID, Name: habit.Name},
				Completed:  completed,
				Expected:   expected,
				Percentage: pct(completed, expected),
			})
		}
		stats.Percentage = pct(stats.Completed, stats.Expected)

		sort.Slice(stats.Habits, func(i, j int) bool {
			return stats.Habits[i].Percentage > stats.Habits[j].Percentage
		})
		breakdown.Categories = append(breakdown.Categories, stats)
	}

	sort.Slice(breakdown.Categories, func(i, j int) bool {
		return breakdown.Categories[i].Percentage > breakdown.Categories[j].Percentage
	})

	s.put(ctx, key, cache.EndpointCategories, &breakdown)
	return &breakdown, nil
}

// trendDeadZone is the percentage-point band inside which week-over-week
// and score movements count as "same" rather than a trend.
const trendDeadZone = 1.0

func trendLabel(delta float64) string {
	switch {
	case delta > trendDeadZone:
		return "up"
	case delta < -trendDeadZone:
		return "down"
	default:
		return "same"
	}
}

func (s *analyticsService) GetWeekComparison(ctx context.Context, userID string) (*models.WeekComparison, error) {
	key := cache.BuildKey(userID, cache.EndpointComparison, nil)
	var cached models.WeekComparison
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)

	thisStart := weekStart(today)
	lastStart := thisStart.AddDays(-7)
	lastEnd := thisStart.AddDays(-1)

	w, err := s.loadWindow(ctx, userID, lastStart, today, false)
	if err != nil {
		return nil, err
	}

	thisCompleted, thisExpected := w.rangeCount(thisStart, today)
	lastCompleted, lastExpected := w.rangeCount(lastStart, lastEnd)

	comparison := models.WeekComparison{
		ThisWeekRate: pct(thisCompleted, thisExpected),
		LastWeekRate: pct(lastCompleted, lastExpected),
	}
	comparison.DeltaPoints = round1(comparison.ThisWeekRate - comparison.LastWeekRate)
	comparison.Trend = trendLabel(comparison.DeltaPoints)

	s.put(ctx, key, cache.EndpointComparison, &comparison)
	return &comparison, nil
}
