package service

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/schedule"
)

func TestOverviewRepeatReadHitsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 5)
	f.seedLogs(habit, 5, 1)

	first, err := f.analytics.GetOverview(ctx, "user-1")
	if err != nil {
		t.Fatalf("First GetOverview failed: %v", err)
	}
	hitsBefore := f.cache.Metrics().Hits

	second, err := f.analytics.GetOverview(ctx, "user-1")
	if err != nil {
		t.Fatalf("Second GetOverview failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated reads with no writes must match: %+v vs %+v", first, second)
	}
	if got := f.cache.Metrics().Hits; got != hitsBefore+1 {
		t.Errorf("Expected hit counter %d after second read, got %d", hitsBefore+1, got)
	}
}

func TestOverviewFreshAfterCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 5)
	f.seedLogs(habit, 5, 1)

	before, err := f.analytics.GetOverview(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOverview failed: %v", err)
	}
	if before.CompletedToday != 0 {
		t.Fatalf("Expected 0 completed today before check-in, got %d", before.CompletedToday)
	}

	if _, err := f.habits.CheckIn(ctx, "user-1", habit.ID, &models.CheckInRequest{}); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}

	// The write invalidated the user's entries; the next read must see it
	after, err := f.analytics.GetOverview(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOverview after check-in failed: %v", err)
	}
	if after.CompletedToday != 1 {
		t.Errorf("Stale cache survived a check-in: completed today = %d", after.CompletedToday)
	}
	if after.BestCurrentStreak != 6 {
		t.Errorf("Expected best current streak 6, got %d", after.BestCurrentStreak)
	}
}

func TestBreakdownWeekendHabitExpectsNothingOnWeekdays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := &models.Habit{
		ID:         generateMockID(),
		UserID:     "user-1",
		Name:       "Long run",
		Frequency:  models.FrequencyWeekly,
		DaysOfWeek: []int{6, 7},
		HabitType:  models.HabitTypeBoolean,
		IsActive:   true,
		CreatedAt:  time.Now().AddDate(0, 0, -30),
	}
	f.habitRepo.habits[habit.ID] = habit

	breakdown, err := f.analytics.GetBreakdown(ctx, "user-1", "month", nil, nil)
	if err != nil {
		t.Fatalf("GetBreakdown failed: %v", err)
	}

	for _, day := range breakdown.Days {
		parsed, _ := time.Parse("2006-01-02", day.Date)
		wd := schedule.ISOWeekday(models.Date{Time: parsed})
		if wd <= 5 && day.Expected != 0 {
			t.Errorf("Weekday %s must have expected=0 for a weekend habit, got %d", day.Date, day.Expected)
		}
		if wd > 5 && day.Expected != 1 {
			t.Errorf("Weekend day %s must have expected=1, got %d", day.Date, day.Expected)
		}
	}
}

func TestBreakdownWeekTotalsAreSums(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 40)
	f.seedLogs(habit, 20, 0)

	breakdown, err := f.analytics.GetBreakdown(ctx, "user-1", "month", nil, nil)
	if err != nil {
		t.Fatalf("GetBreakdown failed: %v", err)
	}

	var completed, expected int
	for _, day := range breakdown.Days {
		completed += day.Completed
		expected += day.Expected
	}
	if breakdown.Completed != completed || breakdown.Expected != expected {
		t.Errorf("Totals must be sums of member days: got %d/%d, want %d/%d",
			breakdown.Completed, breakdown.Expected, completed, expected)
	}

	var weekCompleted, weekExpected int
	for _, week := range breakdown.Weeks {
		weekCompleted += week.Completed
		weekExpected += week.Expected
	}
	if weekCompleted != completed || weekExpected != expected {
		t.Errorf("Week sums must cover the same days: got %d/%d, want %d/%d",
			weekCompleted, weekExpected, completed, expected)
	}
}

func TestHeatmapLevels(t *testing.T) {
	cases := []struct {
		completed, due, want int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 5, 1},  // 20%
		{1, 4, 2},  // 25%
		{2, 4, 3},  // 50%
		{3, 4, 4},  // 75%
		{4, 4, 4},  // 100%
	}
	for _, tc := range cases {
		if got := heatmapLevel(tc.completed, tc.due); got != tc.want {
			t.Errorf("heatmapLevel(%d, %d) = %d, want %d", tc.completed, tc.due, got, tc.want)
		}
	}
}

func TestLeaderboardOrderingAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	streaks := map[string]int{"Alpha": 3, "Bravo": 9, "Charlie": 9, "Delta": 1}
	for name, current := range streaks {
		habit := f.seedDailyHabit("user-1", name, 30)
		f.habitRepo.habits[habit.ID].CurrentStreak = current
		f.habitRepo.habits[habit.ID].LongestStreak = current
	}

	board, err := f.analytics.GetLeaderboard(ctx, "user-1", 1, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}

	if board.Total != 4 {
		t.Errorf("Expected total 4, got %d", board.Total)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("Expected 2 entries on page 1, got %d", len(board.Entries))
	}
	// Equal streaks tie-break by name
	if board.Entries[0].Name != "Bravo" || board.Entries[1].Name != "Charlie" {
		t.Errorf("Unexpected ranking: %s, %s", board.Entries[0].Name, board.Entries[1].Name)
	}
	if board.Entries[0].Rank != 1 || board.Entries[1].Rank != 2 {
		t.Errorf("Ranks must be global: got %d, %d", board.Entries[0].Rank, board.Entries[1].Rank)
	}

	page2, err := f.analytics.GetLeaderboard(ctx, "user-1", 2, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard page 2 failed: %v", err)
	}
	if len(page2.Entries) != 2 || page2.Entries[0].Rank != 3 {
		t.Errorf("Expected page 2 to start at rank 3, got %+v", page2.Entries)
	}
}

func TestPhiCoefficientProperties(t *testing.T) {
	// Symmetric: swapping the two habits swaps b and c
	forward := phiCoefficient(10, 3, 5, 12)
	backward := phiCoefficient(10, 5, 3, 12)
	if forward != backward {
		t.Errorf("Phi must be symmetric: %f vs %f", forward, backward)
	}

	// Bounded in [-1, 1]
	cases := [][4]int{
		{15, 0, 0, 15},
		{0, 15, 15, 0},
		{7, 3, 2, 18},
		{1, 1, 1, 1},
	}
	for _, tc := range cases {
		phi := phiCoefficient(tc[0], tc[1], tc[2], tc[3])
		if phi < -1 || phi > 1 {
			t.Errorf("phi(%v) = %f out of [-1, 1]", tc, phi)
		}
	}

	// Perfect agreement and disagreement hit the bounds
	if phi := phiCoefficient(15, 0, 0, 15); phi != 1 {
		t.Errorf("Perfect agreement must give phi=1, got %f", phi)
	}
	if phi := phiCoefficient(0, 15, 15, 0); phi != -1 {
		t.Errorf("Perfect disagreement must give phi=-1, got %f", phi)
	}

	// Zero marginal yields 0, not NaN
	if phi := phiCoefficient(30, 0, 0, 0); phi != 0 {
		t.Errorf("Zero marginal must give phi=0, got %f", phi)
	}
	if math.IsNaN(phiCoefficient(0, 0, 0, 0)) {
		t.Error("Empty table must not produce NaN")
	}
}

func TestCorrelationsReportCoupledHabits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two habits completed on exactly the same days, a third never done
	a := f.seedDailyHabit("user-1", "Gym", 30)
	b := f.seedDailyHabit("user-1", "Protein", 30)
	f.seedDailyHabit("user-1", "Idle", 30)

	today := models.DateOf(time.Now(), time.UTC)
	for i := 0; i < 30; i += 2 {
		date := today.AddDays(-i)
		for _, habit := range []*models.Habit{a, b} {
			f.logRepo.logs[logKey(habit.ID, date)] = &models.HabitLog{
				HabitID: habit.ID, UserID: "user-1", Date: date, Completed: true,
			}
			f.habitRepo.habits[habit.ID].TotalCompletions++
		}
	}

	report, err := f.analytics.GetCorrelations(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetCorrelations failed: %v", err)
	}

	if len(report.Correlations) == 0 {
		t.Fatal("Expected at least one reported pair")
	}
	top := report.Correlations[0]
	if top.Phi != 1 {
		t.Errorf("Identical completion sets must correlate at phi=1, got %f", top.Phi)
	}
	if top.Interpretation != "strong positive" {
		t.Errorf("Expected strong positive interpretation, got %q", top.Interpretation)
	}
}

func TestRiskBands(t *testing.T) {
	cases := []struct {
		rate   float64
		missed bool
		want   string
	}{
		{1.0, false, "low"},
		{0.95, false, "low"},
		{0.95, true, "medium"}, // recent miss dominates the rate
		{0.8, false, "medium"},
		{0.8, true, "medium"},
		{0.5, false, "high"},
		{0.5, true, "high"},
	}
	for _, tc := range cases {
		if got := riskBand(tc.rate, tc.missed); got != tc.want {
			t.Errorf("riskBand(%f, %v) = %q, want %q", tc.rate, tc.missed, got, tc.want)
		}
	}
}

func TestStreakRiskProjectsNextMilestone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 10)
	f.seedLogs(habit, 6, 0) // full trailing week completed
	f.habitRepo.habits[habit.ID].CurrentStreak = 6

	report, err := f.analytics.GetStreakRisk(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreakRisk failed: %v", err)
	}

	if len(report.AtRisk) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(report.AtRisk))
	}
	entry := report.AtRisk[0]
	if entry.NextMilestone != 7 || entry.DaysToMilestone != 1 {
		t.Errorf("Expected next milestone 7 in 1 day, got %d in %d", entry.NextMilestone, entry.DaysToMilestone)
	}
	if entry.Risk != "low" {
		t.Errorf("Fully completed last week should be low risk, got %q", entry.Risk)
	}
}

func TestScoreGrades(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{92, "A"}, {85, "A"}, {84.9, "B"}, {70, "B"}, {60, "C"}, {45, "D"}, {10, "F"},
	}
	for _, tc := range cases {
		if got := scoreGrade(tc.score); got != tc.want {
			t.Errorf("scoreGrade(%f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestTrendLabelDeadZone(t *testing.T) {
	cases := []struct {
		delta float64
		want  string
	}{
		{5, "up"}, {1.1, "up"}, {0.5, "same"}, {0, "same"}, {-0.9, "same"}, {-2, "down"},
	}
	for _, tc := range cases {
		if got := trendLabel(tc.delta); got != tc.want {
			t.Errorf("trendLabel(%f) = %q, want %q", tc.delta, got, tc.want)
		}
	}
}

func TestInsightsRankNeverCompletedAsMostOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done := f.seedDailyHabit("user-1", "Done recently", 10)
	last := models.DateOf(time.Now(), time.UTC).AddDays(-2)
	f.habitRepo.habits[done.ID].LastCompletedAt = &last

	f.seedDailyHabit("user-1", "Never touched", 10)

	insights, err := f.analytics.GetInsights(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInsights failed: %v", err)
	}

	if len(insights.MostOverdue) != 2 {
		t.Fatalf("Expected 2 overdue entries, got %d", len(insights.MostOverdue))
	}
	if insights.MostOverdue[0].Name != "Never touched" || insights.MostOverdue[0].DaysSince != -1 {
		t.Errorf("Never-completed habit must rank first: %+v", insights.MostOverdue[0])
	}
	if insights.MostOverdue[1].DaysSince != 2 {
		t.Errorf("Expected 2 days since last completion, got %d", insights.MostOverdue[1].DaysSince)
	}
}

func TestProductivityScoreZeroWithoutData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	score, err := f.analytics.GetProductivityScore(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProductivityScore failed: %v", err)
	}
	if score.Score != 0 || score.Grade != "F" {
		t.Errorf("No habits must score 0/F, got %f/%s", score.Score, score.Grade)
	}
}

func TestHabitStatsOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 10)

	if _, err := f.analytics.GetHabitStats(ctx, "user-2", habit.ID); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for another user's habit, got %v", err)
	}
}

func TestHabitStatsThirtyDayRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	habit := f.seedDailyHabit("user-1", "Read", 40)
	f.seedLogs(habit, 14, 0) // 15 completions inside the window
	f.habitRepo.habits[habit.ID].TotalCompletions = 15

	stats, err := f.analytics.GetHabitStats(ctx, "user-1", habit.ID)
	if err != nil {
		t.Fatalf("GetHabitStats failed: %v", err)
	}

	if stats.ExpectedDays30 != 30 {
		t.Errorf("Daily habit expected 30 due days, got %d", stats.ExpectedDays30)
	}
	if stats.CompletedDays30 != 15 {
		t.Errorf("Expected 15 completed days, got %d", stats.CompletedDays30)
	}
	if stats.CompletionRate30 != 50 {
		t.Errorf("Expected 50%% rate, got %f", stats.CompletionRate30)
	}
	if len(stats.WeeklyTrend) != 8 {
		t.Errorf("Expected an 8-week trend, got %d weeks", len(stats.WeeklyTrend))
	}
}
