package schedule

import (
	"testing"
	"time"

	"github.com/habitflow/backend/internal/models"
)

func dailyHabit(createdAt time.Time) *models.Habit {
	return &models.Habit{
		ID:        "h-daily",
		Frequency: models.FrequencyDaily,
		HabitType: models.HabitTypeBoolean,
		IsActive:  true,
		CreatedAt: createdAt,
	}
}

func weekendHabit(createdAt time.Time) *models.Habit {
	return &models.Habit{
		ID:         "h-weekend",
		Frequency:  models.FrequencyWeekly,
		DaysOfWeek: []int{6, 7}, // Sat, Sun
		HabitType:  models.HabitTypeBoolean,
		IsActive:   true,
		CreatedAt:  createdAt,
	}
}

func TestISOWeekday(t *testing.T) {
	// 2026-01-05 is a Monday, 2026-01-11 a Sunday
	cases := []struct {
		day  models.Date
		want int
	}{
		{models.NewDate(2026, time.January, 5), 1},
		{models.NewDate(2026, time.January, 7), 3},
		{models.NewDate(2026, time.January, 10), 6},
		{models.NewDate(2026, time.January, 11), 7},
	}

	for _, tc := range cases {
		if got := ISOWeekday(tc.day); got != tc.want {
			t.Errorf("ISOWeekday(%s) = %d, want %d", tc.day.Key(), got, tc.want)
		}
	}
}

func TestDailyAlwaysDueAfterCreation(t *testing.T) {
	created := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)
	habit := dailyHabit(created)

	if IsDue(habit, models.NewDate(2026, time.January, 9), time.UTC) {
		t.Error("Habit should not be due before its creation day")
	}
	for d := models.NewDate(2026, time.January, 10); !d.Time.After(models.NewDate(2026, time.January, 20).Time); d = d.AddDays(1) {
		if !IsDue(habit, d, time.UTC) {
			t.Errorf("Daily habit should be due on %s", d.Key())
		}
	}
}

func TestWeeklyDaySetDueOnlyOnThoseDays(t *testing.T) {
	habit := weekendHabit(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	// 2026-01-05 Mon .. 2026-01-11 Sun
	for d := models.NewDate(2026, time.January, 5); !d.Time.After(models.NewDate(2026, time.January, 11).Time); d = d.AddDays(1) {
		due := IsDue(habit, d, time.UTC)
		isWeekend := ISOWeekday(d) >= 6
		if due != isWeekend {
			t.Errorf("IsDue(%s) = %v, want %v", d.Key(), due, isWeekend)
		}
	}
}

func TestWeeklyTimesPerWeekDueEveryDay(t *testing.T) {
	three := 3
	habit := &models.Habit{
		Frequency:    models.FrequencyWeekly,
		TimesPerWeek: &three,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for d := models.NewDate(2026, time.January, 5); !d.Time.After(models.NewDate(2026, time.January, 11).Time); d = d.AddDays(1) {
		if !IsDue(habit, d, time.UTC) {
			t.Errorf("times_per_week habit should be due every day, not due on %s", d.Key())
		}
	}
}

func TestPauseWindowSuppressesDueness(t *testing.T) {
	habit := dailyHabit(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	pausedAt := models.NewDate(2026, time.January, 10)
	pausedUntil := models.NewDate(2026, time.January, 15)
	habit.IsPaused = true
	habit.PausedAt = &pausedAt
	habit.PausedUntil = &pausedUntil

	if !IsDue(habit, models.NewDate(2026, time.January, 9), time.UTC) {
		t.Error("Days before the pause began should stay due")
	}
	if IsDue(habit, models.NewDate(2026, time.January, 10), time.UTC) {
		t.Error("First paused day should not be due")
	}
	if IsDue(habit, models.NewDate(2026, time.January, 15), time.UTC) {
		t.Error("Last paused day should not be due")
	}
	if !IsDue(habit, models.NewDate(2026, time.January, 16), time.UTC) {
		t.Error("Day after paused_until should be due again")
	}
}

func TestOpenEndedPause(t *testing.T) {
	habit := dailyHabit(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	pausedAt := models.NewDate(2026, time.January, 10)
	habit.IsPaused = true
	habit.PausedAt = &pausedAt

	if IsDue(habit, models.NewDate(2026, time.June, 1), time.UTC) {
		t.Error("Open-ended pause should suppress dueness indefinitely")
	}
	if !IsDue(habit, models.NewDate(2026, time.January, 5), time.UTC) {
		t.Error("Historical days before the pause should stay due")
	}
}

func TestCreationDayUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	// Created 23:00 UTC Jan 1 = Jan 2 in Tokyo
	habit := dailyHabit(time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC))

	if IsDue(habit, models.NewDate(2026, time.January, 1), tokyo) {
		t.Error("Habit created on local Jan 2 must not be due on Jan 1")
	}
	if !IsDue(habit, models.NewDate(2026, time.January, 2), tokyo) {
		t.Error("Habit should be due on its local creation day")
	}
}

func TestIsDueDeterministic(t *testing.T) {
	habit := weekendHabit(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	day := models.NewDate(2026, time.January, 10)

	first := IsDue(habit, day, time.UTC)
	for i := 0; i < 100; i++ {
		if IsDue(habit, day, time.UTC) != first {
			t.Fatal("IsDue must be deterministic for fixed inputs")
		}
	}
}

func TestValidateRule(t *testing.T) {
	three := 3
	cases := []struct {
		name  string
		freq  string
		days  []int
		times *int
		want  bool
	}{
		{"daily", models.FrequencyDaily, nil, nil, true},
		{"weekly with days", models.FrequencyWeekly, []int{1, 3}, nil, true},
		{"weekly with count", models.FrequencyWeekly, nil, &three, true},
		{"weekly with neither", models.FrequencyWeekly, nil, nil, false},
		{"unknown frequency", "monthly", nil, nil, false},
	}

	for _, tc := range cases {
		if got := ValidateRule(tc.freq, tc.days, tc.times); got != tc.want {
			t.Errorf("%s: ValidateRule = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDueDaysWeekendSet(t *testing.T) {
	habit := weekendHabit(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	// Two full weeks: 2026-01-05 Mon .. 2026-01-18 Sun
	got := DueDays(habit, models.NewDate(2026, time.January, 5), models.NewDate(2026, time.January, 18), time.UTC)
	if got != 4 {
		t.Errorf("Expected 4 due days over two weeks, got %d", got)
	}
}
