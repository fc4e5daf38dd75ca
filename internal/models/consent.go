package models

import "time"

// ConsentAction is the kind of consent event recorded.
type ConsentAction string

const (
	ConsentGranted ConsentAction = "granted"
	ConsentRevoked ConsentAction = "revoked"
)

// ConsentRecord is one row of the parental-consent audit trail. Records are
// append-only: never mutated, never deleted.
type ConsentRecord struct {
	ID        int64
	ProfileID ProfileID
	Action    ConsentAction
	GrantedBy AccountID
	CreatedAt time.Time
}
