package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
)

type PushTokenStore struct {
	db *sql.DB
}

func NewPushTokenStore(db *sql.DB) *PushTokenStore {
	return &PushTokenStore{db: db}
}

const pushTokenCols = `id, member_id, device_id, endpoint, p256dh_key, auth_key, updated_at, created_at`

func scanPushToken(scanner interface{ Scan(...any) error }) (*model.PushToken, error) {
	var t model.PushToken
	err := scanner.Scan(&t.ID, &t.MemberID, &t.DeviceID, &t.Endpoint, &t.P256dhKey, &t.AuthKey, &t.UpdatedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Register upserts a push token for a (member, device) pair.
// Re-registering the same device replaces the prior endpoint and keys.
func (s *PushTokenStore) Register(memberID int64, deviceID, endpoint, p256dh, auth string) (*model.PushToken, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_tokens (member_id, device_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(member_id, device_id) DO UPDATE SET
		   endpoint = excluded.endpoint,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   updated_at = CURRENT_TIMESTAMP`,
		memberID, deviceID, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("register push token: %w", err)
	}
	id, _ := result.LastInsertId()

	// LastInsertId may be 0 on conflict update; re-query by pair.
	if id == 0 {
		row := s.db.QueryRow(
			`SELECT `+pushTokenCols+` FROM push_tokens WHERE member_id = ? AND device_id = ?`,
			memberID, deviceID,
		)
		return scanPushToken(row)
	}
	return s.GetByID(id)
}

func (s *PushTokenStore) GetByID(id int64) (*model.PushToken, error) {
	row := s.db.QueryRow(`SELECT `+pushTokenCols+` FROM push_tokens WHERE id = ?`, id)
	t, err := scanPushToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push token: %w", err)
	}
	return t, nil
}

// TokensForMembers returns every registered token for the given members.
func (s *PushTokenStore) TokensForMembers(memberIDs []int64, now time.Time) ([]model.PushToken, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(memberIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(memberIDs))
	for i, id := range memberIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT `+pushTokenCols+` FROM push_tokens WHERE member_id IN (`+placeholders+`) ORDER BY member_id ASC, device_id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("tokens for members: %w", err)
	}
	defer rows.Close()

	var tokens []model.PushToken
	for rows.Next() {
		t, err := scanPushToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

func (s *PushTokenStore) ListByMember(memberID int64) ([]model.PushToken, error) {
	rows, err := s.db.Query(
		`SELECT `+pushTokenCols+` FROM push_tokens WHERE member_id = ? ORDER BY created_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push tokens by member: %w", err)
	}
	defer rows.Close()

	var tokens []model.PushToken
	for rows.Next() {
		t, err := scanPushToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

func (s *PushTokenStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push token: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a token whose subscription has expired.
func (s *PushTokenStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_tokens WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push token by endpoint: %w", err)
	}
	return nil
}
