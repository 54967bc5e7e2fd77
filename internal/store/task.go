package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, name, description, due_at, repeat_value, repeat_unit, repeat_end_at, house_id, assignee_id, rotate_member, active, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var endAt sql.NullTime
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.DueAt, &t.RepeatValue, &t.RepeatUnit,
		&endAt, &t.HouseID, &t.AssigneeID, &t.RotateMember, &t.Active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endAt.Valid {
		t.RepeatEndAt = &endAt.Time
	}
	return &t, nil
}

func (s *TaskStore) Create(name, description string, dueAt time.Time, repeatValue int, repeatUnit model.RepeatUnit, repeatEndAt *time.Time, houseID, assigneeID int64, rotateMember bool) (*model.Task, error) {
	var endAt sql.NullTime
	if repeatEndAt != nil {
		endAt = sql.NullTime{Time: *repeatEndAt, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (name, description, due_at, repeat_value, repeat_unit, repeat_end_at, house_id, assignee_id, rotate_member, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		name, description, dueAt, repeatValue, repeatUnit, endAt, houseID, assigneeID, rotateMember,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *TaskStore) ListByHouses(houseIDs []int64) ([]model.Task, error) {
	if len(houseIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(houseIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(houseIDs))
	for i, id := range houseIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE house_id IN (`+placeholders+`) ORDER BY name ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by houses: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *TaskStore) Update(id int64, name, description string, dueAt time.Time, repeatValue int, repeatUnit model.RepeatUnit, repeatEndAt *time.Time, assigneeID int64, rotateMember bool) (*model.Task, error) {
	var endAt sql.NullTime
	if repeatEndAt != nil {
		endAt = sql.NullTime{Time: *repeatEndAt, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, due_at = ?, repeat_value = ?, repeat_unit = ?, repeat_end_at = ?, assignee_id = ?, rotate_member = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, description, dueAt, repeatValue, repeatUnit, endAt, assigneeID, rotateMember, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) SetActive(id int64, active bool) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set task active: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
