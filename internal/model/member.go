package model

import "time"

type Member struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HasAuthKey bool      `json:"has_auth_key"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
