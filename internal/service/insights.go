package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/models"
	"github.com/habitflow/backend/internal/schedule"
	"github.com/habitflow/backend/internal/streak"
)

var weekdayNames = [8]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// weekdayRates buckets a window's completion counts by ISO weekday
func weekdayRates(w *window, start, end models.Date) []models.WeekdayRate {
	var completed, expected [8]int
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		c, e := w.dayCount(d)
		wd := schedule.ISOWeekday(d)
		completed[wd] += c
		expected[wd] += e
	}

	rates := make([]models.WeekdayRate, 0, 7)
	for wd := 1; wd <= 7; wd++ {
		rates = append(rates, models.WeekdayRate{
			Weekday:    wd,
			Name:       weekdayNames[wd],
			Completed:  completed[wd],
			Expected:   expected[wd],
			Percentage: pct(completed[wd], expected[wd]),
		})
	}
	return rates
}

func (s *analyticsService) GetInsights(ctx context.Context, userID string) (*models.Insights, error) {
	key := cache.BuildKey(userID, cache.EndpointInsights, nil)
	var cached models.Insights
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start := today.AddDays(-27)

	w, err := s.loadWindow(ctx, userID, start, today, false)
	if err != nil {
		return nil, err
	}

	insights := models.Insights{
		MostOverdue: []models.OverdueHabit{},
		Messages:    []string{},
	}

	// Best and worst weekday by 4-week completion rate
	for _, rate := range weekdayRates(w, start, today) {
		if rate.Expected == 0 {
			continue
		}
		r := rate
		if insights.BestDay == nil || r.Percentage > insights.BestDay.Percentage {
			insights.BestDay = &r
		}
		if insights.WorstDay == nil || r.Percentage < insights.WorstDay.Percentage {
			insights.WorstDay = &r
		}
	}

	// Longest current streak
	for _, habit := range w.habits {
		if habit.CurrentStreak == 0 {
			continue
		}
		if insights.LongestStreak == nil || habit.CurrentStreak > insights.LongestStreak.CurrentStreak {
			insights.LongestStreak = &models.StreakRef{
				HabitRef:      models.HabitRef{HabitID: habit.ID, Name: habit.Name},
				CurrentStreak: habit.CurrentStreak,
			}
		}
	}

	// Top-3 most overdue; never-completed habits rank as maximally overdue
	overdue := make([]models.OverdueHabit, 0, len(w.habits))
	for _, habit := range w.habits {
		entry := models.OverdueHabit{
			HabitRef:  models.HabitRef{HabitID: habit.ID, Name: habit.Name},
			DaysSince: -1,
		}
		if habit.LastCompletedAt != nil {
			entry.DaysSince = habit.LastCompletedAt.DaysUntil(today)
			last := habit.LastCompletedAt.Key()
			entry.LastCompleted = &last
		}
		overdue = append(overdue, entry)
	}
	sort.Slice(overdue, func(i, j int) bool {
		a, b := overdue[i].DaysSince, overdue[j].DaysSince
		if (a == -1) != (b == -1) {
			return a == -1
		}
		return a > b
	})
	if len(overdue) > 3 {
		overdue = overdue[:3]
	}
	insights.MostOverdue = overdue

	insights.Messages = renderInsightMessages(&insights)

	s.put(ctx, key, cache.EndpointInsights, &insights)
	return &insights, nil
}

// renderInsightMessages turns the structured insight inputs into short
// natural-language nudges.
func renderInsightMessages(in *models.Insights) []string {
	messages := []string{}

	if in.BestDay != nil {
		messages = append(messages, fmt.Sprintf(
			"Your strongest day is %s: %.0f%% of due habits completed over the last 4 weeks.",
			in.BestDay.Name, in.BestDay.Percentage))
	}
	if in.WorstDay != nil && in.BestDay != nil && in.WorstDay.Weekday != in.BestDay.Weekday {
		messages = append(messages, fmt.Sprintf(
			"%s is your weakest day at %.0f%%. A reminder there could help.",
			in.WorstDay.Name, in.WorstDay.Percentage))
	}
	if in.LongestStreak != nil {
		messages = append(messages, fmt.Sprintf(
			"%s is on a %d-day streak. Keep it going!",
			in.LongestStreak.Name, in.LongestStreak.CurrentStreak))
	}
	for _, overdue := range in.MostOverdue {
		if overdue.DaysSince == -1 {
			messages = append(messages, fmt.Sprintf("You have not logged %s yet. Today is a good day to start.", overdue.Name))
			break
		}
		if overdue.DaysSince >= 3 {
			messages = append(messages, fmt.Sprintf("It has been %d days since you completed %s.", overdue.DaysSince, overdue.Name))
			break
		}
	}

	return messages
}

// Productivity score weights and grade cutoffs
const (
	weightConsistency    = 0.4
	weightStreakStrength = 0.3
	weightCompletionRate = 0.3
)

func scoreGrade(score float64) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

func (s *analyticsService) GetProductivityScore(ctx context.Context, userID string) (*models.ProductivityScore, error) {
	key := cache.BuildKey(userID, cache.EndpointProductivity, nil)
	var cached models.ProductivityScore
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start30 := today.AddDays(-29)
	start60 := today.AddDays(-59)

	w, err := s.loadWindow(ctx, userID, start60, today, false)
	if err != nil {
		return nil, err
	}

	// Consistency: fraction of the trailing 30 days with at least one
	// completion
	activeDays := 0
	for d := start30; !d.Time.After(today.Time); d = d.AddDays(1) {
		completed, _ := w.dayCount(d)
		if completed > 0 {
			activeDays++
		}
	}
	consistency := round1(100 * float64(activeDays) / 30)

	// Streak strength: blend of the single best current streak and the
	// mean across habits, each saturating at 30 days
	var best, sum int
	for _, habit := range w.habits {
		if habit.CurrentStreak > best {
			best = habit.CurrentStreak
		}
		sum += habit.CurrentStreak
	}
	var mean float64
	if len(w.habits) > 0 {
		mean = float64(sum) / float64(len(w.habits))
	}
	norm := func(v float64) float64 {
		if v > 30 {
			v = 30
		}
		return 100 * v / 30
	}
	strength := round1((norm(float64(best)) + norm(mean)) / 2)

	completed30, expected30 := w.rangeCount(start30, today)
	rate := pct(completed30, expected30)

	score := models.ProductivityScore{
		Consistency:    consistency,
		StreakStrength: strength,
		CompletionRate: rate,
	}
	score.Score = round1(weightConsistency*consistency + weightStreakStrength*strength + weightCompletionRate*rate)
	score.Grade = scoreGrade(score.Score)

	// Trend: trailing 30 days against the preceding 30
	prevCompleted, prevExpected := w.rangeCount(start60, start30.AddDays(-1))
	score.Trend = trendLabel(rate - pct(prevCompleted, prevExpected))

	s.put(ctx, key, cache.EndpointProductivity, &score)
	return &score, nil
}

// minExpectedForRanking filters out habits with too few due days to rank
// fairly in best/worst comparisons.
const minExpectedForRanking = 3

func (s *analyticsService) GetPerformance(ctx context.Context, userID string) (*models.Performance, error) {
	key := cache.BuildKey(userID, cache.EndpointPerformance, nil)
	var cached models.Performance
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

	performance := models.Performance{
		ByWeekday: weekdayRates(w, start, today),
	}

	for i := range w.habits {
		habit := &w.habits[i]
		completed, expected := w.habitRangeCount(habit, start, today)
		if expected < minExpectedForRanking {
			continue
		}
		rate := models.HabitRate{
			HabitRef:   models.HabitRef{HabitID: habit.ID, Name: habit.Name},
			Completed:  completed,
			Expected:   expected,
			Percentage: pct(completed, expected),
		}
		if performance.MostConsistent == nil || rate.Percentage > performance.MostConsistent.Percentage {
			r := rate
			performance.MostConsistent = &r
		}
		if performance.LeastConsistent == nil || rate.Percentage < performance.LeastConsistent.Percentage {
			r := rate
			performance.LeastConsistent = &r
		}
	}

	s.put(ctx, key, cache.EndpointPerformance, &performance)
	return &performance, nil
}

// Correlation analysis bounds and reporting threshold
const (
	correlationTopHabits  = 10
	correlationSampleDays = 30
	correlationMinPhi     = 0.2
)

// phiCoefficient is the Pearson correlation of two binary variables from
// their 2x2 contingency table: a=both, b=only first, c=only second,
// d=neither. Zero when any marginal is zero.
func phiCoefficient(a, b, c, d int) float64 {
	m1, m2, m3, m4 := a+b, c+d, a+c, b+d
	if m1 == 0 || m2 == 0 || m3 == 0 || m4 == 0 {
		return 0
	}
	num := float64(a*d - b*c)
	return num / math.Sqrt(float64(m1)*float64(m2)*float64(m3)*float64(m4))
}

func interpretPhi(phi float64) string {
	switch {
	case phi >= 0.7:
		return "strong positive"
	case phi >= 0.4:
		return "moderate positive"
	case phi <= -0.7:
		return "strong negative"
	case phi <= -0.4:
		return "moderate negative"
	default:
		return "weak"
	}
}

func (s *analyticsService) GetCorrelations(ctx context.Context, userID string) (*models.CorrelationReport, error) {
	key := cache.BuildKey(userID, cache.EndpointCorrelations, nil)
	var cached models.CorrelationReport
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start := today.AddDays(-(correlationSampleDays - 1))

	w, err := s.loadWindow(ctx, userID, start, today, false)
	if err != nil {
		return nil, err
	}

	// Top habits by lifetime completions bound the pairwise cost
	habits := append([]models.Habit{}, w.habits...)
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].TotalCompletions != habits[j].TotalCompletions {
			return habits[i].TotalCompletions > habits[j].TotalCompletions
		}
		return habits[i].Name < habits[j].Name
	})
	if len(habits) > correlationTopHabits {
		habits = habits[:correlationTopHabits]
	}

	report := models.CorrelationReport{
		Correlations: []models.HabitCorrelation{},
		SampleDays:   correlationSampleDays,
	}

	for i := 0; i < len(habits); i++ {
		for j := i + 1; j < len(habits); j++ {
			var both, onlyA, onlyB, neither int
			for d := start; !d.Time.After(today.Time); d = d.AddDays(1) {
				doneA := w.completedOn(habits[i].ID, d)
				doneB := w.completedOn(habits[j].ID, d)
				switch {
				case doneA && doneB:
					both++
				case doneA:
					onlyA++
				case doneB:
					onlyB++
				default:
					neither++
				}
			}

			phi := phiCoefficient(both, onlyA, onlyB, neither)
			if math.Abs(phi) < correlationMinPhi {
				continue
			}

			report.Correlations = append(report.Correlations, models.HabitCorrelation{
				HabitA:         models.HabitRef{HabitID: habits[i].ID, Name: habits[i].Name},
				HabitB:         models.HabitRef{HabitID: habits[j].ID, Name: habits[j].Name},
				Phi:            math.Round(phi*100) / 100,
				Interpretation: interpretPhi(phi),
			})
		}
	}

	sort.Slice(report.Correlations, func(i, j int) bool {
		return math.Abs(report.Correlations[i].Phi) > math.Abs(report.Correlations[j].Phi)
	})

	s.put(ctx, key, cache.EndpointCorrelations, &report)
	return &report, nil
}

// Streak risk bands from the trailing-7-day completion rate
const (
	riskLowRate    = 0.9
	riskMediumRate = 0.7
	recentDueDays  = 3
)

func riskBand(rate float64, missedRecentDue bool) string {
	band := "high"
	switch {
	case rate >= riskLowRate:
		band = "low"
	case rate >= riskMediumRate:
		band = "medium"
	}
	// A miss on any of the last due days dominates the rolling rate
	if missedRecentDue && band == "low" {
		band = "medium"
	}
	return band
}

func riskSeverity(band string) int {
	switch band {
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}

func (s *analyticsService) GetStreakRisk(ctx context.Context, userID string) (*models.StreakRiskReport, error) {
	key := cache.BuildKey(userID, cache.EndpointRisk, nil)
	var cached models.StreakRiskReport
	if s.fetch(ctx, key, &cached) {
		return &cached, nil
	}

	loc := userLocation(ctx, s.userRepo, userID)
	today := models.DateOf(time.Now(), loc)
	start := today.AddDays(-59)

	w, err := s.loadWindow(ctx, userID, start, today, false)
	if err != nil {
		return nil, err
	}

	report := models.StreakRiskReport{AtRisk: []models.StreakRiskEntry{}}

	for i := range w.habits {
		habit := &w.habits[i]
		if habit.CurrentStreak == 0 || habit.IsPaused {
			continue
		}
		next := streak.NextStreakThreshold(habit.CurrentStreak)
		if next == 0 {
			continue
		}

		completed7, due7 := w.habitRangeCount(habit, today.AddDays(-6), today)
		rate := 1.0
		if due7 > 0 {
			rate = float64(completed7) / float64(due7)
		}

		// Walk back from yesterday to the last few due days; any miss
		// among them flags recent inactivity.
		missed := false
		found := 0
		for d := today.AddDays(-1); found < recentDueDays && !d.Time.Before(start.Time); d = d.AddDays(-1) {
			if !schedule.IsDue(habit, d, w.loc) {
				continue
			}
			found++
			if !w.completedOn(habit.ID, d) {
				missed = true
				break
			}
		}

		report.AtRisk = append(report.AtRisk, models.StreakRiskEntry{
			HabitRef:        models.HabitRef{HabitID: habit.ID, Name: habit.Name},
			CurrentStreak:   habit.CurrentStreak,
			NextMilestone:   next,
			DaysToMilestone: next - habit.CurrentStreak,
			SevenDayRate:    round1(100 * rate),
			MissedRecentDue: missed,
			Risk:            riskBand(rate, missed),
		})
	}

	sort.Slice(report.AtRisk, func(i, j int) bool {
		si, sj := riskSeverity(report.AtRisk[i].Risk), riskSeverity(report.AtRisk[j].Risk)
		if si != sj {
			return si > sj
		}
		return report.AtRisk[i].DaysToMilestone < report.AtRisk[j].DaysToMilestone
	})

	s.put(ctx, key, cache.EndpointRisk, &report)
	return &report, nil
}
