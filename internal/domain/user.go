package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is a tenant of the back office; every catalog row and order belongs to one
type Store struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Role is one of the seeded access roles
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// User represents a back office or storefront account
type User struct {
	ID            uuid.UUID  `json:"id"`
	StoreID       *uuid.UUID `json:"storeId"`
	RoleID        uuid.UUID  `json:"roleId"`
	RoleName      string     `json:"role"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsVerified reports whether the user confirmed their email address
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}

// BelongsTo reports whether the user is a member of storeID
func (u *User) BelongsTo(storeID uuid.UUID) bool {
	return u.StoreID != nil && *u.StoreID == storeID
}

// RefreshToken represents a long-lived token used to mint access tokens
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// EmailToken is a one-time token mailed to an address, used for email
// verification and password resets
type EmailToken struct {
	ID        uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now
func (t *EmailToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
