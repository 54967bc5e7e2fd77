package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tuckborough/internal/model"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

const houseCols = `id, name, creator_id, status, created_at, updated_at`
const rosterCols = `id, house_id, member_id, created_at`

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatorID, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanRosterEntry(scanner interface{ Scan(...any) error }) (*model.MemberAssignment, error) {
	var ma model.MemberAssignment
	err := scanner.Scan(&ma.ID, &ma.HouseID, &ma.MemberID, &ma.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ma, nil
}

func (s *HouseStore) Create(name string, creatorID int64) (*model.House, error) {
	result, err := s.db.Exec(
		`INSERT INTO houses (name, creator_id, status) VALUES (?, ?, ?)`,
		name, creatorID, model.HouseStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	// The creator always starts on the roster.
	if _, err := s.db.Exec(
		`INSERT INTO member_assignments (house_id, member_id) VALUES (?, ?)`,
		id, creatorID,
	); err != nil {
		return nil, fmt.Errorf("add creator to roster: %w", err)
	}

	return s.GetByID(id)
}

func (s *HouseStore) GetByID(id int64) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

func (s *HouseStore) List() ([]model.House, error) {
	rows, err := s.db.Query(`SELECT ` + houseCols + ` FROM houses ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}

func (s *HouseStore) Update(id int64, name string) (*model.House, error) {
	_, err := s.db.Exec(
		`UPDATE houses SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update house: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) SetStatus(id int64, status model.HouseStatus) (*model.House, error) {
	_, err := s.db.Exec(
		`UPDATE houses SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set house status: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM houses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete house: %w", err)
	}
	return nil
}

// --- Roster methods ---

func (s *HouseStore) AddMember(houseID, memberID int64) (*model.MemberAssignment, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO member_assignments (house_id, member_id) VALUES (?, ?)`,
		houseID, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, _ := result.LastInsertId()
	if id == 0 {
		// Already on the roster; return the existing entry.
		row := s.db.QueryRow(
			`SELECT `+rosterCols+` FROM member_assignments WHERE house_id = ? AND member_id = ?`,
			houseID, memberID,
		)
		return scanRosterEntry(row)
	}
	row := s.db.QueryRow(`SELECT `+rosterCols+` FROM member_assignments WHERE id = ?`, id)
	return scanRosterEntry(row)
}

func (s *HouseStore) RemoveMember(houseID, memberID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM member_assignments WHERE house_id = ? AND member_id = ?`,
		houseID, memberID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// ListRoster returns the members of a house ordered by name ascending —
// the order the repeat engine rotates through.
func (s *HouseStore) ListRoster(houseID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.name, m.auth_key IS NOT NULL, m.created_at, m.updated_at
		 FROM members m
		 JOIN member_assignments ma ON m.id = ma.member_id
		 WHERE ma.house_id = ?
		 ORDER BY m.name ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roster member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListHousesForMember returns the houses a member belongs to.
func (s *HouseStore) ListHousesForMember(memberID int64) ([]model.House, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.creator_id, h.status, h.created_at, h.updated_at
		 FROM houses h
		 JOIN member_assignments ma ON h.id = ma.house_id
		 WHERE ma.member_id = ?
		 ORDER BY h.name ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list houses for member: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}
