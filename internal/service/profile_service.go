package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"alumnihub/internal/coppa"
	"alumnihub/internal/database"
	"alumnihub/internal/models"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
	"alumnihub/internal/validation"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrForbidden       = errors.New("profile does not belong to this account")
	// ErrConsentNotAllowed is a precondition violation: consent is only a
	// valid transition for a minor aged 14-17 pending consent. It is never
	// retried.
	ErrConsentNotAllowed = errors.New("parental consent is not applicable to this profile")
)

// Outcome is the result of a profile selection attempt. needs_age and
// needs_consent are expected next-step signals for the caller, not failures.
type Outcome string

const (
	OutcomeActive       Outcome = "active"
	OutcomeNeedsConsent Outcome = "needs_consent"
	OutcomeNeedsAge     Outcome = "needs_age"
	OutcomeBlocked      Outcome = "blocked"
)

// Selection is the tagged result of SelectProfile. Token is only set when
// the outcome is active.
type Selection struct {
	Outcome Outcome
	Token   string
	Profile *models.FamilyProfile
}

// ProfileService owns the family profile store and the access state machine:
// profile creation, birth-information updates, parental consent and the
// per-login selection check.
type ProfileService struct {
	db              *database.DB
	profileRepo     *repository.ProfileRepository
	consentRepo     *repository.ConsentRepository
	signer          *security.TokenSigner
	profileTokenTTL time.Duration
}

// NewProfileService creates a new profile service
func NewProfileService(db *database.DB, profileRepo *repository.ProfileRepository, consentRepo *repository.ConsentRepository, signer *security.TokenSigner, profileTokenTTL time.Duration) *ProfileService {
	return &ProfileService{
		db:              db,
		profileRepo:     profileRepo,
		consentRepo:     consentRepo,
		signer:          signer,
		profileTokenTTL: profileTokenTTL,
	}
}

// NewProfileInput carries the fields needed to create one family profile.
// GraduationBatch is only used for age estimation and is not stored on the
// profile; it comes from the linked alumni record when there is one.
type NewProfileInput struct {
	AlumniRecordID   *models.AlumniRecordID
	FirstName        string
	LastName         string
	DisplayName      string
	Relationship     models.Relationship
	YearOfBirth      *int
	BirthDate        *time.Time
	GraduationBatch  string
	IsPrimaryContact bool
}

// UpdateBirthInput carries a birth-information update plus optional display
// fields. Empty display fields keep their stored values.
type UpdateBirthInput struct {
	YearOfBirth *int
	BirthDate   *time.Time
	FirstName   string
	LastName    string
	DisplayName string
}

// CreateProfile validates the input, computes the initial access state and
// inserts the profile. It takes a Queryer so registration can create the
// account and every selected profile in a single transaction. A profile
// without any birth material starts blocked until age is verified.
func (s *ProfileService) CreateProfile(q database.Queryer, accountID models.AccountID, in NewProfileInput) (*models.FamilyProfile, error) {
	if err := validation.ValidateRelationship(in.Relationship); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("first_name", in.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("last_name", in.LastName); err != nil {
		return nil, err
	}
	if in.YearOfBirth != nil {
		if err := validation.ValidateYearOfBirth(*in.YearOfBirth); err != nil {
			return nil, err
		}
	}

	p := &models.FamilyProfile{
		AccountID:        accountID,
		AlumniRecordID:   in.AlumniRecordID,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DisplayName:      in.DisplayName,
		Relationship:     in.Relationship,
		YearOfBirth:      in.YearOfBirth,
		BirthDate:        in.BirthDate,
		IsPrimaryContact: in.IsPrimaryContact,
	}

	resolved := coppa.ResolveAge(coppa.AgeInput{
		BirthDate:       in.BirthDate,
		YearOfBirth:     in.YearOfBirth,
		GraduationBatch: in.GraduationBatch,
	}, time.Now())
	s.applyDecision(p, resolved, coppa.CalculateAccess(resolved.Age, resolved.Known()))

	return s.profileRepo.CreateProfile(q, p)
}

// applyDecision copies a computed access decision onto the profile
func (s *ProfileService) applyDecision(p *models.FamilyProfile, resolved coppa.AgeResult, d coppa.Decision) {
	if resolved.Known() {
		age := resolved.Age
		p.CurrentAge = &age
	} else {
		p.CurrentAge = nil
	}
	p.AccessLevel = d.AccessLevel
	p.Status = d.Status
	p.CanAccessPlatform = d.CanAccessPlatform
	p.RequiresParentConsent = d.RequiresParentConsent
}

// ListProfilesForAccount returns the account's profiles, primary first
func (s *ProfileService) ListProfilesForAccount(accountID models.AccountID) ([]models.FamilyProfile, error) {
	return s.profileRepo.ListProfilesForAccount(accountID)
}

// GetOwnedProfile loads a profile and enforces account ownership. Selecting
// or editing another account's profile fails with ErrForbidden no matter
// what state the profile is in.
func (s *ProfileService) GetOwnedProfile(accountID models.AccountID, profileID models.ProfileID) (*models.FamilyProfile, error) {
	p, err := s.profileRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	if p.AccountID != accountID {
		return nil, ErrForbidden
	}
	return p, nil
}

// freshDecision re-runs age resolution and the access calculator against the
// profile's stored birth material, applying the consent override when a
// granting consent record exists. It never trusts the stored status: age
// changes with time, so every access check recomputes from scratch.
func (s *ProfileService) freshDecision(p *models.FamilyProfile) (coppa.AgeResult, coppa.Decision, error) {
	resolved := coppa.ResolveAge(coppa.AgeInput{
		BirthDate:   p.BirthDate,
		YearOfBirth: p.YearOfBirth,
	}, time.Now())
	decision := coppa.CalculateAccess(resolved.Age, resolved.Known())

	if decision.RequiresParentConsent {
		granted, err := s.consentRepo.HasGrantedConsent(p.ID)
		if err != nil {
			return resolved, decision, err
		}
		if granted {
			decision = decision.WithConsent()
		}
	}
	return resolved, decision, nil
}

// UpdateBirthInformation re-derives age from the submitted birth material,
// re-runs the access calculator and persists everything in one transaction.
// An active profile is never automatically downgraded by a data edit: the
// new birth fields persist, but a more restrictive access result is logged
// for admin review instead of applied.
func (s *ProfileService) UpdateBirthInformation(accountID models.AccountID, profileID models.ProfileID, in UpdateBirthInput) (*models.FamilyProfile, error) {
	p, err := s.GetOwnedProfile(accountID, profileID)
	if err != nil {
		return nil, err
	}

	if in.YearOfBirth == nil && in.BirthDate == nil {
		return nil, validation.Error{Field: "year_of_birth", Message: "birth date or year of birth is required"}
	}
	if in.YearOfBirth != nil {
		if err := validation.ValidateYearOfBirth(*in.YearOfBirth); err != nil {
			return nil, err
		}
		p.YearOfBirth = in.YearOfBirth
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	if in.DisplayName != "" {
		p.DisplayName = in.DisplayName
	}

	resolved, decision, err := s.freshDecision(p)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute access: %w", err)
	}

	wasActive := p.Status == models.StatusActive
	if wasActive && decision.Status != models.StatusActive {
		// Forbidden automatic downgrade. Keep the stored access state and
		// surface the discrepancy; only an explicit admin action may block
		// an active profile.
		if resolved.Known() {
			age := resolved.Age
			p.CurrentAge = &age
		}
		log.Printf("Profile %d: birth-info edit would downgrade active profile to %s, flagged for admin review", p.ID, decision.Status)
	} else {
		s.applyDecision(p, resolved, decision)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.profileRepo.UpdateBirthAndAccess(tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

// SelectProfile resolves whether a profile may become the session's active
// persona. It is called at login and at explicit profile switch, with
// identical behavior in both cases. The stored status is advisory only; the
// decision is recomputed on every attempt so a supervised minor ages into
// full access without a new consent event.
func (s *ProfileService) SelectProfile(accountID models.AccountID, profileID models.ProfileID) (*Selection, error) {
	p, err := s.GetOwnedProfile(accountID, profileID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if !p.HasBirthMaterial() {
		// Cannot assume anything about age; caller must collect a year of
		// birth and retry.
		if err := s.profileRepo.TouchConsentCheck(p.ID, now); err != nil {
			return nil, err
		}
		return &Selection{Outcome: OutcomeNeedsAge, Profile: p}, nil
	}

	resolved, decision, err := s.freshDecision(p)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute access: %w", err)
	}

	switch decision.Status {
	case models.StatusBlocked:
		if err := s.profileRepo.TouchConsentCheck(p.ID, now); err != nil {
			return nil, err
		}
		return &Selection{Outcome: OutcomeBlocked, Profile: p}, nil

	case models.StatusPendingConsent:
		if err := s.profileRepo.TouchConsentCheck(p.ID, now); err != nil {
			return nil, err
		}
		return &Selection{Outcome: OutcomeNeedsConsent, Profile: p}, nil
	}

	// Eligible. Persist the refreshed access state when it differs from the
	// stored one (a pending minor aging into adulthood, or a stale age).
	if p.Status != models.StatusActive || p.CurrentAge == nil || *p.CurrentAge != resolved.Age {
		s.applyDecision(p, resolved, decision)

		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := s.profileRepo.UpdateBirthAndAccess(tx, p); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	token, err := s.signer.SignProfileToken(accountID, p.ID, s.profileTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.TouchLogin(p.ID, now); err != nil {
		return nil, err
	}
	p.LastLoginAt = &now
	p.LastConsentCheckAt = &now

	return &Selection{Outcome: OutcomeActive, Token: token, Profile: p}, nil
}

// GrantParentalConsent records a consent grant and transitions a pending
// minor to active. The precondition is strict: the profile's freshly
// computed age must be inside the consent window. The UI should never offer
// consent for an ineligible profile, but the workflow does not trust the
// caller.
func (s *ProfileService) GrantParentalConsent(profileID models.ProfileID, actorID models.AccountID) (*models.FamilyProfile, error) {
	p, err := s.GetOwnedProfile(actorID, profileID)
	if err != nil {
		return nil, err
	}

	resolved := coppa.ResolveAge(coppa.AgeInput{
		BirthDate:   p.BirthDate,
		YearOfBirth: p.YearOfBirth,
	}, time.Now())
	if !resolved.Known() || resolved.Age < coppa.ConsentMinAge || resolved.Age >= coppa.AdultAge {
		return nil, ErrConsentNotAllowed
	}

	decision := coppa.CalculateAccess(resolved.Age, true).WithConsent()
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.consentRepo.Insert(tx, p.ID, models.ConsentGranted, actorID); err != nil {
		return nil, err
	}

	s.applyDecision(p, resolved, decision)
	p.ParentConsentGiven = true
	p.ParentConsentDate = &now
	if err := s.profileRepo.UpdateBirthAndAccess(tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// RevokeParentalConsent is an explicit admin-triggered transition back to
// pending consent, with its own audit row. It only applies to a supervised
// profile whose access came from consent; an adult profile is unaffected.
func (s *ProfileService) RevokeParentalConsent(profileID models.ProfileID, actorID models.AccountID) (*models.FamilyProfile, error) {
	p, err := s.profileRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	if !p.ParentConsentGiven {
		return nil, ErrConsentNotAllowed
	}

	resolved := coppa.ResolveAge(coppa.AgeInput{
		BirthDate:   p.BirthDate,
		YearOfBirth: p.YearOfBirth,
	}, time.Now())
	decision := coppa.CalculateAccess(resolved.Age, resolved.Known())

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.consentRepo.Insert(tx, p.ID, models.ConsentRevoked, actorID); err != nil {
		return nil, err
	}

	s.applyDecision(p, resolved, decision)
	p.ParentConsentGiven = false
	p.ParentConsentDate = nil
	if err := s.profileRepo.UpdateBirthAndAccess(tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// AdminBlockProfile is the only path that moves a profile into blocked from
// any other state. Regular flows never downgrade automatically.
func (s *ProfileService) AdminBlockProfile(profileID models.ProfileID) (*models.FamilyProfile, error) {
	p, err := s.profileRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}

	p.AccessLevel = models.AccessBlocked
	p.Status = models.StatusBlocked
	p.CanAccessPlatform = false
	p.RequiresParentConsent = false

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.profileRepo.UpdateBirthAndAccess(tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Profile %d blocked by admin action", p.ID)
	return p, nil
}

// ConsentHistory returns the append-only consent audit trail for a profile
// owned by the account.
func (s *ProfileService) ConsentHistory(accountID models.AccountID, profileID models.ProfileID) ([]models.ConsentRecord, error) {
	if _, err := s.GetOwnedProfile(accountID, profileID); err != nil {
		return nil, err
	}
	return s.consentRepo.ListByProfile(profileID)
}
