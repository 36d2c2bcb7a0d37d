package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is a date-only value normalized to UTC midnight of a calendar day.
// Postgres `date` columns come back from PostgREST as "2006-01-02", which
// time.Time cannot unmarshal directly; Date accepts both that form and a
// full RFC 3339 timestamp, and always marshals as "2006-01-02".
//
// Equality and ordering of Dates are well-defined across stores because
// every Date holds the same canonical instant for a given calendar day.
type Date struct {
	time.Time
}

// NewDate builds a Date from a calendar day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to the calendar day it falls on in loc,
// represented as UTC midnight of that day.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return NewDate(y, m, d)
}

// AddDays returns the Date n calendar days later (or earlier for negative n)
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to other
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time) / (24 * time.Hour))
}

// Key returns the canonical "2006-01-02" form used for map keys and storage
func (d Date) Key() string {
	return d.Time.Format("2006-01-02")
}

// UnmarshalJSON implements custom JSON unmarshaling for Date
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Plain date from a Postgres date column
	if len(s) == 10 && !strings.Contains(s, "T") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		d.Time = t
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// PostgREST timestamps may omit the zone
		t, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
	}
	y, m, day := t.UTC().Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

// MarshalJSON implements custom JSON marshaling for Date
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Key())
}
