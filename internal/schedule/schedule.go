// Package schedule decides whether a habit was due on a calendar day.
// Every expected-denominator count in the analytics engine goes through
// IsDue; callers never special-case frequency logic themselves.
package schedule

import (
	"time"

	"github.com/habitflow/backend/internal/models"
)

// ISOWeekday returns the ISO 8601 weekday of a date, 1=Monday..7=Sunday
func ISOWeekday(d models.Date) int {
	wd := int(d.Time.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// CreationDay is the first day a habit can ever be due, truncated to the
// user's local calendar day.
func CreationDay(habit *models.Habit, loc *time.Location) models.Date {
	return models.DateOf(habit.CreatedAt, loc)
}

// IsDue reports whether the habit's recurrence rule required a completion
// on the given day.
//
// Rules, in order:
//   - never due before the habit's creation day
//   - never due on a paused day: suppression runs from the local day the
//     pause began through paused_until when set, or open-ended while
//     paused with no end date (days before the pause began stay due, so
//     historical ranges are unaffected)
//   - daily habits are due every remaining day
//   - weekly habits with an explicit day set are due on those ISO weekdays
//   - weekly habits with only a times-per-week count are due every day;
//     the count is advisory, not a per-day gate
func IsDue(habit *models.Habit, day models.Date, loc *time.Location) bool {
	if day.Time.Before(CreationDay(habit, loc).Time) {
		return false
	}

	if pausedOn(habit, day) {
		return false
	}

	switch habit.Frequency {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		if len(habit.DaysOfWeek) > 0 {
			wd := ISOWeekday(day)
			for _, d := range habit.DaysOfWeek {
				if d == wd {
					return true
				}
			}
			return false
		}
		// times_per_week only: the user chooses which days to act on
		return habit.TimesPerWeek != nil
	default:
		return false
	}
}

func pausedOn(habit *models.Habit, day models.Date) bool {
	if !habit.IsPaused {
		return false
	}
	if habit.PausedAt != nil && day.Time.Before(habit.PausedAt.Time) {
		return false
	}
	if habit.PausedUntil != nil && day.Time.After(habit.PausedUntil.Time) {
		return false
	}
	return true
}

// ValidateRule rejects recurrence configurations the predicate cannot
// evaluate: a weekly habit needs either an explicit day set or a
// times-per-week count.
func ValidateRule(frequency string, daysOfWeek []int, timesPerWeek *int) bool {
	if frequency != models.FrequencyWeekly {
		return frequency == models.FrequencyDaily
	}
	return len(daysOfWeek) > 0 || timesPerWeek != nil
}

// DueDays counts the habit's due days in [start, end] inclusive
func DueDays(habit *models.Habit, start, end models.Date, loc *time.Location) int {
	count := 0
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		if IsDue(habit, d, loc) {
			count++
		}
	}
	return count
}
