package service

import (
	"alumnihub/internal/models"
)

// ConsentService is the request-facing consent workflow. The state
// transition itself lives in ProfileService; this layer chains the grant
// with an immediate selection re-check so the caller's session can switch
// to the newly activated profile in one round trip.
type ConsentService struct {
	profiles *ProfileService
}

// NewConsentService creates a new consent service
func NewConsentService(profiles *ProfileService) *ConsentService {
	return &ConsentService{profiles: profiles}
}

// RecordConsent records the grant and re-runs the selection check. The
// ownership and age preconditions are enforced inside GrantParentalConsent;
// an ineligible profile fails with ErrConsentNotAllowed and no state change.
func (s *ConsentService) RecordConsent(profileID models.ProfileID, actorID models.AccountID) (*Selection, error) {
	if _, err := s.profiles.GrantParentalConsent(profileID, actorID); err != nil {
		return nil, err
	}
	return s.profiles.SelectProfile(actorID, profileID)
}

// History returns the profile's consent audit trail, oldest first
func (s *ConsentService) History(accountID models.AccountID, profileID models.ProfileID) ([]models.ConsentRecord, error) {
	return s.profiles.ConsentHistory(accountID, profileID)
}
