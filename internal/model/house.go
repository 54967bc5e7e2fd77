package model

import "time"

// HouseStatus is the lifecycle state of a house. Tasks only recur while
// their house is active or paused; a paused house still accrues
// assignments but they are created as wont_do.
type HouseStatus string

const (
	HouseStatusUnknown  HouseStatus = "unknown"
	HouseStatusActive   HouseStatus = "active"
	HouseStatusPaused   HouseStatus = "paused"
	HouseStatusInactive HouseStatus = "inactive"
)

// ValidHouseStatus reports whether s is one of the known house statuses.
func ValidHouseStatus(s HouseStatus) bool {
	switch s {
	case HouseStatusUnknown, HouseStatusActive, HouseStatusPaused, HouseStatusInactive:
		return true
	}
	return false
}

type House struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	CreatorID int64       `json:"creator_id"`
	Status    HouseStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// MemberAssignment is a roster entry linking a member to a house.
type MemberAssignment struct {
	ID        int64     `json:"id"`
	HouseID   int64     `json:"house_id"`
	MemberID  int64     `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}
