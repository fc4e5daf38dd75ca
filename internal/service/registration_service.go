package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
	"alumnihub/internal/validation"
)

var ErrEmailTaken = errors.New("an account with this email already exists")

// RegistrationPreview is what the registration page renders before the
// registrant commits: the invited email and the alumni records it matched.
// One invitation email can match several records when family members share
// an address, so the registrant picks explicitly per profile.
type RegistrationPreview struct {
	Email      string
	Candidates []models.AlumniRecord
}

// RegistrationMember describes one family profile to create during
// registration. AlumniRecordID links the profile to a matched alumni record;
// unlinked members supply their details by hand.
type RegistrationMember struct {
	AlumniRecordID *models.AlumniRecordID
	FirstName      string
	LastName       string
	DisplayName    string
	Relationship   models.Relationship
	YearOfBirth    *int
}

// RegistrationInput is the complete registration submission
type RegistrationInput struct {
	Token        string
	Password     string
	Members      []RegistrationMember
	PrimaryIndex int
}

// RegistrationService turns a valid invitation into an account with its
// family profiles. The whole thing happens in one transaction: either the
// account, all profiles and the invitation consumption land together or
// nothing does.
type RegistrationService struct {
	db             *database.DB
	accountRepo    *repository.AccountRepository
	alumniRepo     *repository.AlumniRepository
	invitationRepo *repository.InvitationRepository
	invitations    *InvitationService
	profiles       *ProfileService
	emailService   *EmailService
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(db *database.DB, accountRepo *repository.AccountRepository, alumniRepo *repository.AlumniRepository, invitationRepo *repository.InvitationRepository, invitations *InvitationService, profiles *ProfileService, emailService *EmailService) *RegistrationService {
	return &RegistrationService{
		db:             db,
		accountRepo:    accountRepo,
		alumniRepo:     alumniRepo,
		invitationRepo: invitationRepo,
		invitations:    invitations,
		profiles:       profiles,
		emailService:   emailService,
	}
}

// PreviewInvitation verifies the token and returns the invited email with
// its alumni record candidates. Zero candidates is fine; the registrant
// fills in their details manually.
func (s *RegistrationService) PreviewInvitation(token string) (*RegistrationPreview, error) {
	inv, err := s.invitations.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	candidates, err := s.alumniRepo.GetByEmail(inv.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load alumni candidates: %w", err)
	}
	return &RegistrationPreview{Email: inv.Email, Candidates: candidates}, nil
}

// CompleteRegistration creates the account, its profiles and consumes the
// invitation atomically. The session is the caller's job; this returns the
// account with its primary profile set.
func (s *RegistrationService) CompleteRegistration(in RegistrationInput) (*models.Account, error) {
	inv, err := s.invitations.VerifyToken(in.Token)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if len(in.Members) == 0 {
		return nil, validation.Error{Field: "members", Message: "at least one family member is required"}
	}
	if in.PrimaryIndex < 0 || in.PrimaryIndex >= len(in.Members) {
		return nil, validation.Error{Field: "primary_index", Message: "primary member selection is out of range"}
	}

	existing, err := s.accountRepo.GetAccountByEmail(inv.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	inputs, err := s.resolveMembers(inv.Email, in.Members, in.PrimaryIndex)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accountRepo.CreateAccount(tx, inv.Email, hash, len(in.Members) > 1)
	if err != nil {
		return nil, err
	}

	var primary *models.FamilyProfile
	created := make([]*models.FamilyProfile, 0, len(inputs))
	for i, pi := range inputs {
		p, err := s.profiles.CreateProfile(tx, account.ID, pi)
		if err != nil {
			return nil, err
		}
		created = append(created, p)
		if i == in.PrimaryIndex {
			primary = p
		}
	}

	if err := s.accountRepo.SetPrimaryProfile(tx, account.ID, primary.ID); err != nil {
		return nil, err
	}
	account.PrimaryProfileID = &primary.ID

	if err := s.invitationRepo.MarkInvitationUsed(tx, inv.ID, account.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Minors in the consent window get their consent request mailed to the
	// account right away. Fire and forget, like invitation delivery.
	for _, p := range created {
		if p.Status != models.StatusPendingConsent {
			continue
		}
		go func(name string) {
			if err := s.emailService.SendConsentRequestEmail(context.Background(), inv.Email, name); err != nil {
				log.Printf("Failed to send consent request email to %s: %v", inv.Email, err)
			}
		}(p.FullName())
	}

	return account, nil
}

// resolveMembers turns the submitted members into profile inputs, folding in
// the linked alumni record's birth date, batch and names. A linked record
// must carry the invited email; a year of birth is mandatory for child and
// other relationships since nothing else can establish their age.
func (s *RegistrationService) resolveMembers(invitedEmail string, members []RegistrationMember, primaryIndex int) ([]NewProfileInput, error) {
	inputs := make([]NewProfileInput, 0, len(members))
	for i, m := range members {
		if (m.Relationship == models.RelationshipChild || m.Relationship == models.RelationshipOther) && m.YearOfBirth == nil {
			return nil, validation.Error{Field: "year_of_birth", Message: "year of birth is required for this family member"}
		}

		in := NewProfileInput{
			FirstName:        m.FirstName,
			LastName:         m.LastName,
			DisplayName:      m.DisplayName,
			Relationship:     m.Relationship,
			YearOfBirth:      m.YearOfBirth,
			IsPrimaryContact: i == primaryIndex,
		}

		if m.AlumniRecordID != nil {
			rec, err := s.alumniRepo.GetByID(*m.AlumniRecordID)
			if err != nil {
				return nil, fmt.Errorf("failed to load alumni record: %w", err)
			}
			if rec == nil || !strings.EqualFold(rec.Email, invitedEmail) {
				return nil, validation.Error{Field: "alumni_record_id", Message: "selected alumni record does not match the invitation"}
			}
			in.AlumniRecordID = &rec.ID
			in.BirthDate = rec.BirthDate
			in.GraduationBatch = rec.GraduationBatch
			if in.FirstName == "" {
				in.FirstName = rec.FirstName
			}
			if in.LastName == "" {
				in.LastName = rec.LastName
			}
		}

		inputs = append(inputs, in)
	}
	return inputs, nil
}
