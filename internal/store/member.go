package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tuckborough/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, name, auth_key IS NOT NULL, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.Name, &m.HasAuthKey, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberStore) Create(name string) (*model.Member, error) {
	result, err := s.db.Exec(`INSERT INTO members (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// SetAuthKey stores a bcrypt hash of the member's login key. An empty
// hash clears the key.
func (s *MemberStore) SetAuthKey(id int64, hashedKey string) error {
	var key sql.NullString
	if hashedKey != "" {
		key = sql.NullString{String: hashedKey, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE members SET auth_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		key, id,
	)
	if err != nil {
		return fmt.Errorf("set auth key: %w", err)
	}
	return nil
}

func (s *MemberStore) GetAuthKeyHash(id int64) (string, error) {
	var key sql.NullString
	err := s.db.QueryRow(`SELECT auth_key FROM members WHERE id = ?`, id).Scan(&key)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("member not found")
	}
	if err != nil {
		return "", fmt.Errorf("query auth key: %w", err)
	}
	if !key.Valid {
		return "", nil
	}
	return key.String, nil
}
