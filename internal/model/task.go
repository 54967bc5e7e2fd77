package model

import "time"

// RepeatUnit is the cadence type of a task. OnComplete means a new
// occurrence is due immediately once the previous one is done; None
// means the task never recurs past its first assignment.
type RepeatUnit string

const (
	RepeatNone       RepeatUnit = "none"
	RepeatHour       RepeatUnit = "hour"
	RepeatDay        RepeatUnit = "day"
	RepeatWeek       RepeatUnit = "week"
	RepeatMonth      RepeatUnit = "month"
	RepeatYear       RepeatUnit = "year"
	RepeatOnComplete RepeatUnit = "on_complete"
)

// ValidRepeatUnit reports whether u is one of the known repeat units.
func ValidRepeatUnit(u RepeatUnit) bool {
	switch u {
	case RepeatNone, RepeatHour, RepeatDay, RepeatWeek, RepeatMonth, RepeatYear, RepeatOnComplete:
		return true
	}
	return false
}

type Task struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	// DueAt carries house-local semantics; no timezone is stored.
	DueAt        time.Time  `json:"due_at"`
	RepeatValue  int        `json:"repeat_value"`
	RepeatUnit   RepeatUnit `json:"repeat_unit"`
	RepeatEndAt  *time.Time `json:"repeat_end_at"`
	HouseID      int64      `json:"house_id"`
	AssigneeID   int64      `json:"assignee_id"`
	RotateMember bool       `json:"rotate_member"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
