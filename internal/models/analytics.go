package models

// Analytics payload types. Every struct here is the cached JSON body of
// one analytics endpoint, so field order and shapes are part of the
// cache contract: identical inputs must marshal to identical bytes.

// DailyCount is one day's expected-vs-completed pair
type DailyCount struct {
	Date       string  `json:"date"`
	Completed  int     `json:"completed"`
	Expected   int     `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// Overview summarizes the user's current standing
type Overview struct {
	TotalHabits       int          `json:"total_habits"`
	ActiveHabits      int          `json:"active_habits"`
	PausedHabits      int          `json:"paused_habits"`
	ArchivedHabits    int          `json:"archived_habits"`
	CompletedToday    int          `json:"completed_today"`
	ExpectedToday     int          `json:"expected_today"`
	TodayPercentage   float64      `json:"today_percentage"`
	BestCurrentStreak int          `json:"best_current_streak"`
	LongestStreakEver int          `json:"longest_streak_ever"`
	Last7Days         []DailyCount `json:"last_7_days"`
}

// WeekSummary aggregates a calendar week inside a breakdown. Totals are
// sums of the member days, never an average of daily percentages.
type WeekSummary struct {
	WeekStart  string  `json:"week_start"`
	Completed  int     `json:"completed"`
	Expected   int     `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// PeriodBreakdown is the weekly/monthly expected-vs-completed series
type PeriodBreakdown struct {
	Period     string        `json:"period"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Days       []DailyCount  `json:"days"`
	Weeks      []WeekSummary `json:"weeks,omitempty"`
	Completed  int           `json:"completed"`
	Expected   int           `json:"expected"`
	Percentage float64       `json:"percentage"`
}

// HeatmapDay is one cell of the completion heatmap. Level buckets the
// completion percentage into 0..4 at fixed breakpoints.
type HeatmapDay struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Due       int    `json:"due"`
	Level     int    `json:"level"`
}

// HabitStats is the per-habit 30-day dashboard
type HabitStats struct {
	HabitID          string        `json:"habit_id"`
	Name             string        `json:"name"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
	TotalCompletions int           `json:"total_completions"`
	CompletedDays30  int           `json:"completed_days_30"`
	ExpectedDays30   int           `json:"expected_days_30"`
	CompletionRate30 float64       `json:"completion_rate_30"`
	AverageValue     *float64      `json:"average_value,omitempty"`
	WeeklyTrend      []WeekSummary `json:"weekly_trend"`
	Milestones       []Milestone   `json:"milestones"`
}

// LeaderboardEntry ranks one habit by current streak
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	HabitID       string `json:"habit_id"`
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Leaderboard is the paginated streak ranking
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Total   int                `json:"total"`
}

// WeekdayRate is the completion rate for one ISO weekday
type WeekdayRate struct {
	Weekday    int     `json:"weekday"` // ISO, 1=Mon..7=Sun
	Name       string  `json:"name"`
	Completed  int     `json:"completed"`
	Expected   int     `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// HabitRef names a habit inside an insight payload
type HabitRef struct {
	HabitID string `json:"habit_id"`
	Name    string `json:"name"`
}

// OverdueHabit ranks a habit by days since its last completion.
// DaysSince is -1 for habits never completed, which rank as maximally
// overdue.
type OverdueHabit struct {
	HabitRef
	DaysSince     int     `json:"days_since"`
	LastCompleted *string `json:"last_completed,omitempty"`
}

// StreakRef is a habit together with its current streak
type StreakRef struct {
	HabitRef
	CurrentStreak int `json:"current_streak"`
}

// Insights carries the nudge-generation inputs and rendered messages
type Insights struct {
	BestDay       *WeekdayRate   `json:"best_day,omitempty"`
	WorstDay      *WeekdayRate   `json:"worst_day,omitempty"`
	LongestStreak *StreakRef     `json:"longest_streak,omitempty"`
	MostOverdue   []OverdueHabit `json:"most_overdue"`
	Messages      []string       `json:"messages"`
}

// HabitRate ranks one habit by its individual completion rate
type HabitRate struct {
	HabitRef
	Completed  int     `json:"completed"`
	Expected   int     `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// CategoryStats aggregates completion across one category's habits
type CategoryStats struct {
	CategoryID string      `json:"category_id"`
	Name       string      `json:"name"`
	Completed  int         `json:"completed"`
	Expected   int         `json:"expected"`
	Percentage float64     `json:"percentage"`
	Habits     []HabitRate `json:"habits"`
}

// CategoryBreakdown is the per-category rollup
type CategoryBreakdown struct {
	Categories []CategoryStats `json:"categories"`
}

// WeekComparison contrasts this calendar week with the previous one
type WeekComparison struct {
	ThisWeekRate float64 `json:"this_week_rate"`
	LastWeekRate float64 `json:"last_week_rate"`
	DeltaPoints  float64 `json:"delta_points"`
	Trend        string  `json:"trend"` // "up", "down", "same"
}

// ProductivityScore is the weighted 0-100 score over the trailing 30 days
type ProductivityScore struct {
	Score          float64 `json:"score"`
	Grade          string  `json:"grade"`
	Consistency    float64 `json:"consistency"`     // weight 40
	StreakStrength float64 `json:"streak_strength"` // weight 30
	CompletionRate float64 `json:"completion_rate"` // weight 30
	Trend          string  `json:"trend"`           // "up", "down", "same"
}

// Performance is the best/worst analysis over the trailing 30 days
type Performance struct {
	ByWeekday       []WeekdayRate `json:"by_weekday"`
	MostConsistent  *HabitRate    `json:"most_consistent,omitempty"`
	LeastConsistent *HabitRate    `json:"least_consistent,omitempty"`
}

// HabitCorrelation is one reported pair with its phi coefficient
type HabitCorrelation struct {
	HabitA         HabitRef `json:"habit_a"`
	HabitB         HabitRef `json:"habit_b"`
	Phi            float64  `json:"phi"`
	Interpretation string   `json:"interpretation"`
}

// CorrelationReport is the pairwise analysis over the top habits
type CorrelationReport struct {
	Correlations []HabitCorrelation `json:"correlations"`
	SampleDays   int                `json:"sample_days"`
}

// StreakRiskEntry projects the next milestone for one active streak and
// classifies how likely the streak is to survive until then.
type StreakRiskEntry struct {
	HabitRef
	CurrentStreak   int     `json:"current_streak"`
	NextMilestone   int     `json:"next_milestone"`
	DaysToMilestone int     `json:"days_to_milestone"`
	SevenDayRate    float64 `json:"seven_day_rate"`
	MissedRecentDue bool    `json:"missed_recent_due"`
	Risk            string  `json:"risk"` // "low", "medium", "high"
}

// StreakRiskReport is the streak-risk prediction payload
type StreakRiskReport struct {
	AtRisk []StreakRiskEntry `json:"at_risk"`
}

// CacheMetrics is the observability payload for the cache layer
type CacheMetrics struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
}
