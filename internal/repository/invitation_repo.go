package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
)

// InvitationRepository handles stored invitations. The signed token covers
// the row's id and timestamps, so rows are immutable once issued: resets and
// re-invites DELETE the row instead of flipping a status column, which keeps
// a stale token from ever verifying against a diverged record.
type InvitationRepository struct {
	db *database.DB
}

func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateInvitation inserts a fresh invitation row for an email
func (r *InvitationRepository) CreateInvitation(email string, invitedBy models.AccountID, ttl time.Duration) (*models.Invitation, error) {
	now := time.Now().Truncate(time.Second)
	inv := &models.Invitation{
		ID:        uuid.New().String(),
		Email:     email,
		InvitedBy: invitedBy,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	query := `INSERT INTO invitations (id, email, invited_by, issued_at, expires_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, inv.ID, inv.Email, inv.InvitedBy, inv.IssuedAt, inv.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return inv, nil
}

// GetInvitationByID retrieves an invitation by its id (the token's jti)
func (r *InvitationRepository) GetInvitationByID(id string) (*models.Invitation, error) {
	query := `
		SELECT i.id, i.email, i.invited_by, i.issued_at, i.expires_at, i.used_at, i.used_by
		FROM invitations i
		WHERE i.id = ?
	`
	inv := &models.Invitation{}
	var usedAt sql.NullTime
	var usedBy sql.NullInt64

	err := r.db.QueryRow(query, id).Scan(
		&inv.ID, &inv.Email, &inv.InvitedBy, &inv.IssuedAt, &inv.ExpiresAt, &usedAt, &usedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if usedAt.Valid {
		t := usedAt.Time
		inv.UsedAt = &t
	}
	if usedBy.Valid {
		id := models.AccountID(usedBy.Int64)
		inv.UsedBy = &id
	}
	return inv, nil
}

// MarkInvitationUsed consumes an invitation inside a registration transaction
func (r *InvitationRepository) MarkInvitationUsed(q database.Queryer, id string, accountID models.AccountID) error {
	query := `UPDATE invitations SET used_at = ?, used_by = ? WHERE id = ?`
	if _, err := q.Exec(query, time.Now(), accountID, id); err != nil {
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}
	return nil
}

// DeleteInvitationsForEmail removes every invitation for an email. Called
// before issuing a new one so at most one live token exists per email.
func (r *InvitationRepository) DeleteInvitationsForEmail(email string) error {
	if _, err := r.db.Exec(`DELETE FROM invitations WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to delete invitations: %w", err)
	}
	return nil
}

// GetAllInvitations retrieves all invitations for the admin view, newest first
func (r *InvitationRepository) GetAllInvitations() ([]models.Invitation, error) {
	query := `
		SELECT i.id, i.email, i.invited_by, i.issued_at, i.expires_at, i.used_at, i.used_by,
		       COALESCE(a.email, '')
		FROM invitations i
		LEFT JOIN accounts a ON i.invited_by = a.id
		ORDER BY i.issued_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var usedAt sql.NullTime
		var usedBy sql.NullInt64

		err := rows.Scan(
			&inv.ID, &inv.Email, &inv.InvitedBy, &inv.IssuedAt, &inv.ExpiresAt,
			&usedAt, &usedBy, &inv.InviterName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}

		if usedAt.Valid {
			t := usedAt.Time
			inv.UsedAt = &t
		}
		if usedBy.Valid {
			id := models.AccountID(usedBy.Int64)
			inv.UsedBy = &id
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}
