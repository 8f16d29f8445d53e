package model

import "time"

// TokenData contains the identity stored with a session token.
type TokenData struct {
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
