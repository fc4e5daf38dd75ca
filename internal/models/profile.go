package models

import "time"

// Relationship describes how a profile relates to the account holder.
type Relationship string

const (
	RelationshipSelf   Relationship = "self"
	RelationshipParent Relationship = "parent"
	RelationshipChild  Relationship = "child"
	RelationshipOther  Relationship = "other"
)

// IsValid reports whether the relationship is one of the recognized values.
func (r Relationship) IsValid() bool {
	switch r {
	case RelationshipSelf, RelationshipParent, RelationshipChild, RelationshipOther:
		return true
	}
	return false
}

// AccessLevel is the COPPA access tier computed from age.
type AccessLevel string

const (
	AccessBlocked    AccessLevel = "blocked"
	AccessSupervised AccessLevel = "supervised"
	AccessFull       AccessLevel = "full"
)

// ProfileStatus is the profile's position in the age-gating state machine.
type ProfileStatus string

const (
	StatusBlocked        ProfileStatus = "blocked"
	StatusPendingConsent ProfileStatus = "pending_consent"
	StatusActive         ProfileStatus = "active"
)

// FamilyProfile represents one person behind an account. A profile starts
// blocked and only transitions through the access state machine; it is never
// hard-deleted by normal flow.
type FamilyProfile struct {
	ID             ProfileID
	AccountID      AccountID
	AlumniRecordID *AlumniRecordID
	FirstName      string
	LastName       string
	DisplayName    string
	Relationship   Relationship

	// Birth material. Year of birth is the primary, minimal-collection
	// field; a full birth date only exists when the alumni import had one.
	YearOfBirth *int
	BirthDate   *time.Time
	CurrentAge  *int

	AccessLevel           AccessLevel
	Status                ProfileStatus
	CanAccessPlatform     bool
	RequiresParentConsent bool

	ParentConsentGiven bool
	ParentConsentDate  *time.Time

	IsPrimaryContact   bool
	LastLoginAt        *time.Time
	LastConsentCheckAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasBirthMaterial reports whether any age source is stored on the profile.
// Profiles without one cannot be selected until a year of birth is collected.
func (p *FamilyProfile) HasBirthMaterial() bool {
	return p.BirthDate != nil || p.YearOfBirth != nil
}

// FullName returns the display name, falling back to "First Last".
func (p *FamilyProfile) FullName() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.FirstName + " " + p.LastName
}
