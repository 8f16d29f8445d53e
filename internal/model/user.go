package model

import "time"

// Role gates every mutating endpoint.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStore    Role = "store"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleStore
}

// User represents a registered account. Balance is stored in minor currency
// units and must always equal the sum of the user's ledger entries.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserUpdate carries optional profile changes. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Password == nil
}
