// Package domain holds the core data model shared by the store, the
// classifier, and the conversation service.
package domain

import "time"

// DefaultSessionTitle is assigned to sessions created lazily on first message.
const DefaultSessionTitle = "New Chart"

// Identity is an opaque user identifier (an email or a provider-issued
// subject id). It is owned by the auth layer; the rest of the system only
// ever compares it for equality.
type Identity = string

// Session is one named conversation thread belonging to an identity.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
