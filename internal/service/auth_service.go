package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"alumnihub/internal/models"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session has expired")
)

// AuthService handles account authentication and session lifecycle. Accounts
// are created by the registration workflow only; OAuth here signs in or
// links existing accounts, it never creates one.
type AuthService struct {
	accountRepo     *repository.AccountRepository
	sessionDuration time.Duration
	oauthConfig     *oauth2.Config
}

// NewAuthService creates a new auth service. googleClientID may be empty, in
// which case OAuth sign-in is disabled.
func NewAuthService(accountRepo *repository.AccountRepository, sessionDuration time.Duration, googleClientID, googleClientSecret, redirectBaseURL string) *AuthService {
	s := &AuthService{
		accountRepo:     accountRepo,
		sessionDuration: sessionDuration,
	}
	if googleClientID != "" {
		s.oauthConfig = &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			RedirectURL:  strings.TrimRight(redirectBaseURL, "/") + "/auth/google/callback",
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		}
	}
	return s
}

// Login verifies the credentials and creates a session. The same error is
// returned for an unknown email and a wrong password.
func (s *AuthService) Login(email, password string) (*models.Account, *models.Session, error) {
	account, err := s.accountRepo.GetAccountByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil || account.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	session, err := s.createSession(account)
	if err != nil {
		return nil, nil, err
	}
	return account, session, nil
}

func (s *AuthService) createSession(account *models.Account) (*models.Session, error) {
	session, err := s.accountRepo.CreateSession(security.GenerateSessionID(), account.ID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.accountRepo.TouchLastLogin(account.ID); err != nil {
		log.Printf("Failed to record last login for account %d: %v", account.ID, err)
	}
	return session, nil
}

// ValidateSession resolves a session cookie value to its account. Expired
// sessions are deleted on sight.
func (s *AuthService) ValidateSession(sessionID string) (*models.Account, error) {
	session, err := s.accountRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		if err := s.accountRepo.DeleteSession(sessionID); err != nil {
			log.Printf("Failed to delete expired session: %v", err)
		}
		return nil, ErrSessionExpired
	}

	account, err := s.accountRepo.GetAccountByID(session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil || !account.IsActive {
		return nil, ErrSessionNotFound
	}
	return account, nil
}

// Logout deletes the session. Deleting an already-gone session is not an
// error.
func (s *AuthService) Logout(sessionID string) error {
	return s.accountRepo.DeleteSession(sessionID)
}

// CleanupExpiredSessions removes expired session rows. Called periodically
// from the server's background loop.
func (s *AuthService) CleanupExpiredSessions() error {
	return s.accountRepo.DeleteExpiredSessions()
}

// DeactivateAccount soft-disables an account. Existing sessions stop
// resolving on the next ValidateSession call.
func (s *AuthService) DeactivateAccount(accountID models.AccountID) error {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	return s.accountRepo.DeactivateAccount(accountID)
}

// OAuthEnabled reports whether Google sign-in is configured
func (s *AuthService) OAuthEnabled() bool {
	return s.oauthConfig != nil
}

// OAuthLoginURL returns the Google consent page URL for the given CSRF state
func (s *AuthService) OAuthLoginURL(state string) string {
	if s.oauthConfig == nil {
		return ""
	}
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleOAuthCallback exchanges the authorization code, resolves the Google
// identity and signs in the matching account. A Google identity whose email
// matches an existing password account gets linked on first use. An email
// with no account at all is rejected: membership is invitation-only.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, code string) (*models.Account, *models.Session, error) {
	if s.oauthConfig == nil {
		return nil, nil, errors.New("oauth sign-in is not configured")
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	email, subject, err := s.fetchGoogleIdentity(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.accountRepo.GetAccountByOAuth("google", subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		account, err = s.accountRepo.GetAccountByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to look up account: %w", err)
		}
		if account == nil {
			return nil, nil, ErrAccountNotFound
		}
		if err := s.accountRepo.LinkOAuthProvider(account.ID, "google", subject); err != nil {
			return nil, nil, fmt.Errorf("failed to link oauth identity: %w", err)
		}
	}
	if !account.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	session, err := s.createSession(account)
	if err != nil {
		return nil, nil, err
	}
	return account, session, nil
}

func (s *AuthService) fetchGoogleIdentity(ctx context.Context, token *oauth2.Token) (email, subject string, err error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("user info request returned status %d", resp.StatusCode)
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode user info: %w", err)
	}
	if !info.VerifiedEmail {
		return "", "", errors.New("google account email is not verified")
	}
	return strings.ToLower(info.Email), info.ID, nil
}
