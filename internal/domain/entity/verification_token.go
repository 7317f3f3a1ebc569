package entity

import (
	"time"
)

type TokenType string

const (
	TokenTypeEmailVerification TokenType = "EMAIL_VERIFICATION"
)

// VerificationToken holds a short-lived numeric code proving control of an
// email address. At most one live token exists per (identifier, type) pair;
// issuing a new code deletes the previous one.
type VerificationToken struct {
	ID         string    `bson:"_id,omitempty"`
	Identifier string    `bson:"identifier"` // claimed email address
	Token      string    `bson:"token"`      // 6-digit numeric code
	Type       TokenType `bson:"type"`
	Expires    time.Time `bson:"expires"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (t *VerificationToken) ExpiredAt(now time.Time) bool {
	return now.After(t.Expires)
}
