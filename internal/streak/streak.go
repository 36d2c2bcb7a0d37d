// Package streak re-derives a habit's streak rollups from its full
// completion history. The snapshot is recomputed, never patched
// incrementally, so a write can never leave it drifted from the log set.
package streak

import (
	"sort"
	"time"

	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/schedule"
)

// StreakThresholds are the streak lengths that earn a milestone
var StreakThresholds = []int{7, 14, 21, 30, 60, 90, 100, 180, 365, 500, 1000}

// CompletionThresholds are the lifetime completion counts that earn a milestone
var CompletionThresholds = []int{10, 25, 50, 100, 250, 500, 1000}

// Compute derives the authoritative streak snapshot for a habit from its
// set of completed dates, as of "today" in the user's timezone.
//
// Current streak walks backward from today. If today is due but not yet
// logged the walk starts at yesterday instead - an open day never breaks
// an existing streak. Each due day on the walk must have a completed log;
// the first due day without one ends the count. Non-due days are skipped
// without affecting the count. The walk is bounded by the creation day.
//
// Longest streak scans the distinct completed dates ascending and tracks
// the longest run of consecutive calendar days, compared against the
// previously stored value so it never decreases.
func Compute(habit *models.Habit, completedDates []models.Date, today models.Date, loc *time.Location) models.StreakSnapshot {
	done := make(map[string]bool, len(completedDates))
	for _, d := range completedDates {
		done[d.Key()] = true
	}

	snapshot := models.StreakSnapshot{
		TotalCompletions: len(done),
		LongestStreak:    habit.LongestStreak,
	}

	creation := schedule.CreationDay(habit, loc)

	// Current streak: backward walk
	cursor := today
	if schedule.IsDue(habit, today, loc) && !done[today.Key()] {
		cursor = today.AddDays(-1)
	}
	for !cursor.Time.Before(creation.Time) {
		if schedule.IsDue(habit, cursor, loc) {
			if !done[cursor.Key()] {
				break
			}
			snapshot.CurrentStreak++
		}
		cursor = cursor.AddDays(-1)
	}

	// Longest streak: ascending consecutive-run scan
	dates := make([]models.Date, 0, len(done))
	for key := range done {
		t, _ := time.Parse("2006-01-02", key)
		dates = append(dates, models.Date{Time: t})
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Time.Before(dates[j].Time) })

	run := 0
	for i, d := range dates {
		if i > 0 && dates[i-1].DaysUntil(d) == 1 {
			run++
		} else {
			run = 1
		}
		if run > snapshot.LongestStreak {
			snapshot.LongestStreak = run
		}
	}

	// A current streak is itself a run the habit has sustained
	if snapshot.CurrentStreak > snapshot.LongestStreak {
		snapshot.LongestStreak = snapshot.CurrentStreak
	}

	if len(dates) > 0 {
		last := dates[len(dates)-1]
		snapshot.LastCompletedAt = &last
	}

	return snapshot
}

// CrossedThresholds lists every milestone threshold at or below the
// snapshot's values. Awarding is idempotent at the store (uniqueness on
// habit, type, value), so re-reporting an already-earned threshold is
// harmless.
func CrossedThresholds(snapshot models.StreakSnapshot) (streaks, completions []int) {
	for _, threshold := range StreakThresholds {
		if snapshot.CurrentStreak >= threshold {
			streaks = append(streaks, threshold)
		}
	}
	for _, threshold := range CompletionThresholds {
		if snapshot.TotalCompletions >= threshold {
			completions = append(completions, threshold)
		}
	}
	return streaks, completions
}

// NextStreakThreshold returns the first milestone above the current
// streak, or 0 when every threshold has been passed.
func NextStreakThreshold(current int) int {
	for _, threshold := range StreakThresholds {
		if threshold > current {
			return threshold
		}
	}
	return 0
}
