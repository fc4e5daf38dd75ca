package repository

import (
	"database/sql"
	"fmt"
	"time"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
)

// AccountRepository handles database operations for accounts and their
// account-level sessions
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, oauth_provider, oauth_subject,
	is_admin, is_family_account, primary_profile_id, is_active,
	last_login_at, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	acct := &models.Account{}
	var primaryProfile sql.NullInt64
	var lastLogin sql.NullTime

	err := row.Scan(
		&acct.ID, &acct.Email, &acct.PasswordHash, &acct.OAuthProvider, &acct.OAuthSubject,
		&acct.IsAdmin, &acct.IsFamilyAccount, &primaryProfile, &acct.IsActive,
		&lastLogin, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if primaryProfile.Valid {
		id := models.ProfileID(primaryProfile.Int64)
		acct.PrimaryProfileID = &id
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		acct.LastLoginAt = &t
	}
	return acct, nil
}

// CreateAccount inserts a new account. It takes a Queryer so registration
// can create the account and its profiles inside one transaction.
func (r *AccountRepository) CreateAccount(q database.Queryer, email, passwordHash string, isFamily bool) (*models.Account, error) {
	query := `INSERT INTO accounts (email, password_hash, is_family_account) VALUES (?, ?, ?)`
	id, err := q.ExecReturningID(query, email, passwordHash, isFamily)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	now := time.Now()
	return &models.Account{
		ID:              models.AccountID(id),
		Email:           email,
		PasswordHash:    passwordHash,
		IsFamilyAccount: isFamily,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetAccountByEmail retrieves an account by email
func (r *AccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	acct, err := scanAccount(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(id models.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	acct, err := scanAccount(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

// SetPrimaryProfile records the profile that represents the account holder
func (r *AccountRepository) SetPrimaryProfile(q database.Queryer, accountID models.AccountID, profileID models.ProfileID) error {
	query := `UPDATE accounts SET primary_profile_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := q.Exec(query, profileID, accountID); err != nil {
		return fmt.Errorf("failed to set primary profile: %w", err)
	}
	return nil
}

// TouchLastLogin records a successful authentication
func (r *AccountRepository) TouchLastLogin(accountID models.AccountID) error {
	query := `UPDATE accounts SET last_login_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, time.Now(), accountID); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// DeactivateAccount soft-disables an account. Accounts are never hard-deleted
// by normal flow.
func (r *AccountRepository) DeactivateAccount(accountID models.AccountID) error {
	query := `UPDATE accounts SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, false, accountID); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	return nil
}

// GetAccountByOAuth looks up an account by OAuth provider and subject
func (r *AccountRepository) GetAccountByOAuth(provider, subject string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE oauth_provider = ? AND oauth_subject = ?`
	acct, err := scanAccount(r.db.QueryRow(query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth account: %w", err)
	}
	return acct, nil
}

// LinkOAuthProvider attaches an OAuth identity to an existing account
func (r *AccountRepository) LinkOAuthProvider(accountID models.AccountID, provider, subject string) error {
	query := `UPDATE accounts SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, provider, subject, accountID); err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// CreateSession stores a new account-level session
func (r *AccountRepository) CreateSession(sessionID string, accountID models.AccountID, expiresAt time.Time) (*models.Session, error) {
	query := `INSERT INTO sessions (id, account_id, expires_at) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, sessionID, accountID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *AccountRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `SELECT id, account_id, expires_at, created_at FROM sessions WHERE id = ?`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID, &session.AccountID, &session.ExpiresAt, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session
func (r *AccountRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *AccountRepository) DeleteExpiredSessions() error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
