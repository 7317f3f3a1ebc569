package entity

import (
	"time"
)

type UserRole string

const (
	RoleUser      UserRole = "USER"
	RolePengepul  UserRole = "PENGEPUL"
	RolePengrajin UserRole = "PENGRAJIN"
	RoleAdmin     UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RolePengepul, RolePengrajin, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID            string     `bson:"_id,omitempty"`
	Name          string     `bson:"name"`
	Email         string     `bson:"email"`
	Password      string     `bson:"password"` // bcrypt hash
	Role          UserRole   `bson:"role"`
	IsVerified    bool       `bson:"is_verified"`
	EmailVerified *time.Time `bson:"email_verified,omitempty"`
	// ActiveOffers mirrors the number of offers in an active status and backs
	// the quota check. It is only ever changed with a guarded $inc.
	ActiveOffers int       `bson:"active_offers"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// UserSummary is the public projection attached to offers and API responses.
type UserSummary struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
