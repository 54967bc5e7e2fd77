package model

import "time"

// PushToken is one registered browser/device push subscription for a
// member. At most one row exists per (member, device); re-registration
// replaces the endpoint and keys.
type PushToken struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	DeviceID  string    `json:"device_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}
