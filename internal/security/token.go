package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"alumnihub/internal/models"
)

var (
	// ErrTokenInvalid covers signature mismatches and malformed tokens.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned when the token's exp claim has passed.
	// Expiry is unconditional; there is no grace period.
	ErrTokenExpired = errors.New("token has expired")
)

const invitationTokenType = "invitation"

// InvitationClaims is the signed payload of an invitation token. The
// signature covers the invitation ID (jti), the invited email (sub) and both
// timestamps, so a token only verifies against the exact stored invitation
// row it was issued for. Re-issuing an invitation changes jti and iat, which
// silently invalidates every earlier token for the same email.
type InvitationClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// ProfileClaims binds a session to one active family profile.
type ProfileClaims struct {
	AccountID int64 `json:"account_id"`
	ProfileID int64 `json:"profile_id"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies the two HS256 token kinds used by the
// platform: single-use invitation tokens and profile-bound session tokens.
type TokenSigner struct {
	invitationSecret []byte
	profileSecret    []byte
}

// NewTokenSigner creates a signer with separate keys per token kind.
func NewTokenSigner(invitationSecret, profileSecret string) *TokenSigner {
	return &TokenSigner{
		invitationSecret: []byte(invitationSecret),
		profileSecret:    []byte(profileSecret),
	}
}

// SignInvitation produces the signed token for a stored invitation row.
func (s *TokenSigner) SignInvitation(inv *models.Invitation) (string, error) {
	claims := InvitationClaims{
		TokenType: invitationTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        inv.ID,
			Subject:   inv.Email,
			IssuedAt:  jwt.NewNumericDate(inv.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(inv.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.invitationSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invitation token: %w", err)
	}
	return signed, nil
}

// VerifyInvitation checks signature and expiry and returns the claims.
// The caller still has to match the claims against the stored invitation
// row; a verified signature alone does not make a token live.
func (s *TokenSigner) VerifyInvitation(tokenString string) (*InvitationClaims, error) {
	claims := &InvitationClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.invitationSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != invitationTokenType || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// SignProfileToken issues a session token carrying the active profile.
func (s *TokenSigner) SignProfileToken(accountID models.AccountID, profileID models.ProfileID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ProfileClaims{
		AccountID: int64(accountID),
		ProfileID: int64(profileID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.profileSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign profile token: %w", err)
	}
	return signed, nil
}

// VerifyProfileToken validates a profile session token.
func (s *TokenSigner) VerifyProfileToken(tokenString string) (*ProfileClaims, error) {
	claims := &ProfileClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.profileSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
