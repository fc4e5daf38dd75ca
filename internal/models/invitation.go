package models

import "time"

// Invitation is the stored side of an invitation token. The signed token
// covers the invitation ID and timestamps, so the row must be treated as
// immutable once issued: re-inviting an email deletes the old row and issues
// a fresh one, which invalidates every previously signed token for it.
type Invitation struct {
	ID          string // uuid, doubles as the token's jti claim
	Email       string
	InvitedBy   AccountID
	IssuedAt    time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
	UsedBy      *AccountID
	InviterName string // populated via JOIN for admin listing
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

func (i *Invitation) IsValid() bool {
	return !i.IsExpired() && !i.IsUsed()
}
