package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"alumnihub/internal/models"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
	"alumnihub/internal/validation"
)

var (
	ErrInvalidToken      = errors.New("invitation token is invalid")
	ErrExpiredToken      = errors.New("invitation token has expired")
	ErrTokenAlreadyUsed  = errors.New("invitation token has already been used")
	ErrAlreadyRegistered = errors.New("an account already exists for this email")
)

// InvitationService issues and verifies registration invitations. A token is
// only as good as its stored row: re-inviting an email deletes the previous
// rows, which invalidates every token minted against them.
type InvitationService struct {
	invitationRepo *repository.InvitationRepository
	accountRepo    *repository.AccountRepository
	emailService   *EmailService
	signer         *security.TokenSigner
	invitationTTL  time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitationRepo *repository.InvitationRepository, accountRepo *repository.AccountRepository, emailService *EmailService, signer *security.TokenSigner, invitationTTL time.Duration) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		accountRepo:    accountRepo,
		emailService:   emailService,
		signer:         signer,
		invitationTTL:  invitationTTL,
	}
}

// Invite issues a fresh invitation for the email, replacing any earlier one.
// Delivery is fire and forget: a mail failure is logged, never surfaced, and
// the returned token lets an admin hand the link over out of band.
func (s *InvitationService) Invite(ctx context.Context, email string, invitedBy models.AccountID) (*models.Invitation, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	existing, err := s.accountRepo.GetAccountByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, "", ErrAlreadyRegistered
	}

	if err := s.invitationRepo.DeleteInvitationsForEmail(email); err != nil {
		return nil, "", fmt.Errorf("failed to clear earlier invitations: %w", err)
	}

	inv, err := s.invitationRepo.CreateInvitation(email, invitedBy, s.invitationTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}

	token, err := s.signer.SignInvitation(inv)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign invitation token: %w", err)
	}

	go func() {
		if err := s.emailService.SendInvitationEmail(context.Background(), email, token); err != nil {
			log.Printf("Failed to send invitation email to %s: %v", email, err)
		}
	}()

	return inv, token, nil
}

// VerifyToken checks the signature and expiry of an invitation token and
// binds it back to its stored row. The row must still exist, carry the same
// email and issue time, and be unused. Tokens from superseded invitations
// fail here even though their signature is still good.
func (s *InvitationService) VerifyToken(token string) (*models.Invitation, error) {
	claims, err := s.signer.VerifyInvitation(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	inv, err := s.invitationRepo.GetInvitationByID(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if inv == nil {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil || inv.Email != claims.Subject || !inv.IssuedAt.Equal(claims.IssuedAt.Time) {
		return nil, ErrInvalidToken
	}
	if inv.IsUsed() {
		return nil, ErrTokenAlreadyUsed
	}
	if inv.IsExpired() {
		return nil, ErrExpiredToken
	}
	return inv, nil
}

// ListInvitations returns all invitations, used and pending, for the admin
// overview.
func (s *InvitationService) ListInvitations() ([]models.Invitation, error) {
	return s.invitationRepo.GetAllInvitations()
}

// Reset removes every invitation for the email so a new one can be issued.
// It never touches account or profile state.
func (s *InvitationService) Reset(email string) error {
	return s.invitationRepo.DeleteInvitationsForEmail(strings.ToLower(strings.TrimSpace(email)))
}
