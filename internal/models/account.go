package models

import "time"

// Account represents an authentication identity. One account may carry a
// whole family behind a single login; personal fields live on FamilyProfile,
// never here.
type Account struct {
	ID               AccountID
	Email            string
	PasswordHash     string
	OAuthProvider    string
	OAuthSubject     string
	IsAdmin          bool
	IsFamilyAccount  bool
	PrimaryProfileID *ProfileID
	IsActive         bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authenticated account-level session. Which family
// profile is active is carried separately in a signed profile token.
type Session struct {
	ID        string
	AccountID AccountID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
