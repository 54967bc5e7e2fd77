package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, task_id, member_id, status, status_at, due_at, create_type, changed_by, created_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	var changedBy sql.NullInt64
	err := scanner.Scan(
		&a.ID, &a.TaskID, &a.MemberID, &a.Status, &a.StatusAt, &a.DueAt,
		&a.CreateType, &changedBy, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if changedBy.Valid {
		a.ChangedBy = &changedBy.Int64
	}
	return &a, nil
}

// Create inserts a manually created assignment.
func (s *AssignmentStore) Create(taskID, memberID int64, dueAt time.Time, status model.ProgressStatus) (*model.TaskAssignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO task_assignments (task_id, member_id, status, status_at, due_at, create_type)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?, ?)`,
		taskID, memberID, status, dueAt, model.CreateManual,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID loads an assignment with its task and member snapshots.
func (s *AssignmentStore) GetByID(id int64) (*model.TaskAssignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM task_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	taskRow := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, a.TaskID)
	task, err := scanTask(taskRow)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get assignment task: %w", err)
	}
	a.Task = task

	memberRow := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, a.MemberID)
	member, err := scanMember(memberRow)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get assignment member: %w", err)
	}
	a.Member = member

	return a, nil
}

// MostRecentForTask returns the assignment with the latest due date for a
// task, or nil if the task has never been assigned.
func (s *AssignmentStore) MostRecentForTask(taskID int64) (*model.TaskAssignment, error) {
	row := s.db.QueryRow(
		`SELECT `+assignmentCols+` FROM task_assignments WHERE task_id = ? ORDER BY due_at DESC, id DESC LIMIT 1`,
		taskID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent assignment: %w", err)
	}
	return a, nil
}

// InsertBatch persists a batch of engine-created assignments in a single
// transaction. Either every row lands or none do.
func (s *AssignmentStore) InsertBatch(assignments []model.TaskAssignment) ([]int64, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO task_assignments (task_id, member_id, status, status_at, due_at, create_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		result, err := stmt.Exec(a.TaskID, a.MemberID, a.Status, a.StatusAt, a.DueAt, a.CreateType, a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert assignment for task %d: %w", a.TaskID, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return ids, nil
}

// UpdateStatus transitions an assignment's progress status, recording who
// made the change and when.
func (s *AssignmentStore) UpdateStatus(id int64, status model.ProgressStatus, changedBy int64, at time.Time) (*model.TaskAssignment, error) {
	_, err := s.db.Exec(
		`UPDATE task_assignments SET status = ?, status_at = ?, changed_by = ? WHERE id = ?`,
		status, at, changedBy, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update assignment status: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) ListByTask(taskID int64) ([]model.TaskAssignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM task_assignments WHERE task_id = ? ORDER BY due_at DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by task: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (s *AssignmentStore) ListByMember(memberID int64) ([]model.TaskAssignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM task_assignments WHERE member_id = ? ORDER BY due_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by member: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}
