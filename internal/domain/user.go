package domain

import "time"

// User is one credential record. Either PasswordHash (local signup) or
// GoogleID (OAuth) is set; both may be present once an account is linked.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"googleId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
