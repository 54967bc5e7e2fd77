package model

import "time"

// ProgressStatus tracks a single assignment occurrence to completion.
type ProgressStatus string

const (
	ProgressUnknown    ProgressStatus = "unknown"
	ProgressTodo       ProgressStatus = "todo"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressDone       ProgressStatus = "done"
	ProgressWontDo     ProgressStatus = "wont_do"
)

// ValidProgressStatus reports whether s is one of the known progress statuses.
func ValidProgressStatus(s ProgressStatus) bool {
	switch s {
	case ProgressUnknown, ProgressTodo, ProgressInProgress, ProgressDone, ProgressWontDo:
		return true
	}
	return false
}

// CreateType records whether an assignment came from the CRUD layer or
// from the repeat engine.
type CreateType string

const (
	CreateManual CreateType = "manual"
	CreateAuto   CreateType = "auto"
)

// TaskAssignment is one concrete occurrence of a task. Task and Member
// are snapshots read alongside the row; ChangedBy is the member who last
// transitioned Status, kept for notification diffing.
type TaskAssignment struct {
	ID         int64          `json:"id"`
	TaskID     int64          `json:"task_id"`
	MemberID   int64          `json:"member_id"`
	Status     ProgressStatus `json:"status"`
	StatusAt   time.Time      `json:"status_at"`
	DueAt      time.Time      `json:"due_at"`
	CreateType CreateType     `json:"create_type"`
	ChangedBy  *int64         `json:"changed_by"`
	CreatedAt  time.Time      `json:"created_at"`

	Task   *Task   `json:"task,omitempty"`
	Member *Member `json:"member,omitempty"`
}
