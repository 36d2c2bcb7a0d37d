package models

import "time"

// Habit frequency values
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Habit value semantics
const (
	HabitTypeBoolean  = "boolean"
	HabitTypeNumeric  = "numeric"
	HabitTypeDuration = "duration"
)

// Milestone types
const (
	MilestoneTypeStreak      = "streak"
	MilestoneTypeCompletions = "completions"
)

// User represents a user in the system. Timezone is the IANA zone name
// used to normalize "today" and all date bucketing for this user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category groups habits for the category breakdown dashboard
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Habit represents a recurring habit and its recurrence rule.
//
// CurrentStreak, LongestStreak, TotalCompletions and LastCompletedAt are
// the materialized output of the streak engine: they are rewritten as a
// whole after every check-in/undo and are never derived ad hoc by readers.
type Habit struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	CategoryID   *string `json:"category_id,omitempty"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Frequency    string  `json:"frequency"`
	DaysOfWeek   []int   `json:"days_of_week,omitempty"` // ISO weekdays, 1=Mon..7=Sun
	TimesPerWeek *int    `json:"times_per_week,omitempty"`
	HabitType    string  `json:"habit_type"`
	TargetValue  *float64 `json:"target_value,omitempty"`
	Unit         *string  `json:"unit,omitempty"`

	IsActive    bool  `json:"is_active"`
	IsArchived  bool  `json:"is_archived"`
	IsPaused    bool  `json:"is_paused"`
	PausedAt    *Date `json:"paused_at,omitempty"`
	PausedUntil *Date `json:"paused_until,omitempty"`

	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	TotalCompletions int        `json:"total_completions"`
	LastCompletedAt  *Date      `json:"last_completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitLog is one completion record per (habit, calendar day). The store
// enforces uniqueness on (habit_id, date), which is what makes check-in
// idempotent and streak recomputation well-defined.
type HabitLog struct {
	ID        string   `json:"id"`
	HabitID   string   `json:"habit_id"`
	UserID    string   `json:"user_id"`
	Date      Date     `json:"date"`
	Completed bool     `json:"completed"`
	Value     *float64 `json:"value,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Milestone is an immutable achievement record, unique on
// (habit_id, type, value). Created the first time a threshold is crossed.
type Milestone struct {
	ID         string    `json:"id"`
	HabitID    string    `json:"habit_id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	Value      int       `json:"value"`
	AchievedAt time.Time `json:"achieved_at"`
}

// StreakSnapshot is the authoritative rollup persisted onto the Habit row
// after each recomputation.
type StreakSnapshot struct {
	CurrentStreak    int   `json:"current_streak"`
	LongestStreak    int   `json:"longest_streak"`
	TotalCompletions int   `json:"total_completions"`
	LastCompletedAt  *Date `json:"last_completed_at,omitempty"`
}

// CreateHabitRequest represents the request to create a habit
type CreateHabitRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	CategoryID   *string  `json:"category_id"`
	Frequency    string   `json:"frequency" binding:"required,oneof=daily weekly"`
	DaysOfWeek   []int    `json:"days_of_week" binding:"omitempty,dive,min=1,max=7"`
	TimesPerWeek *int     `json:"times_per_week" binding:"omitempty,min=1,max=7"`
	HabitType    string   `json:"habit_type" binding:"required,oneof=boolean numeric duration"`
	TargetValue  *float64 `json:"target_value"`
	Unit         *string  `json:"unit"`
}

// UpdateHabitRequest represents the request to update a habit
type UpdateHabitRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	CategoryID   *string  `json:"category_id"`
	Frequency    *string  `json:"frequency" binding:"omitempty,oneof=daily weekly"`
	DaysOfWeek   []int    `json:"days_of_week" binding:"omitempty,dive,min=1,max=7"`
	TimesPerWeek *int     `json:"times_per_week" binding:"omitempty,min=1,max=7"`
	TargetValue  *float64 `json:"target_value"`
	Unit         *string  `json:"unit"`
}

// CheckInRequest represents a check-in for a habit on a calendar day.
// Date defaults to today in the user's timezone when omitted.
type CheckInRequest struct {
	Date      *Date    `json:"date"`
	Completed *bool    `json:"completed"`
	Value     *float64 `json:"value"`
	Notes     *string  `json:"notes"`
}

// UndoRequest removes a check-in for a calendar day (defaults to today)
type UndoRequest struct {
	Date *Date `json:"date"`
}

// PauseRequest pauses a habit, optionally until a given day
type PauseRequest struct {
	Until *Date `json:"until"`
}

// CreateCategoryRequest represents the request to create a category
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// CheckInResponse is returned from a check-in: the upserted log, the new
// authoritative streak snapshot, and any milestones earned by this write.
type CheckInResponse struct {
	Log           HabitLog       `json:"log"`
	Streak        StreakSnapshot `json:"streak"`
	NewMilestones []Milestone    `json:"new_milestones"`
}
