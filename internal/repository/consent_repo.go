package repository

import (
	"database/sql"
	"fmt"
	"time"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
)

// ConsentRepository handles the parental-consent audit trail. The table is
// append-only: rows are inserted, never updated or deleted.
type ConsentRepository struct {
	db *database.DB
}

// NewConsentRepository creates a new consent repository
func NewConsentRepository(db *database.DB) *ConsentRepository {
	return &ConsentRepository{db: db}
}

// Insert appends one consent event. Takes a Queryer so a grant and the
// profile update it triggers land in the same transaction.
func (r *ConsentRepository) Insert(q database.Queryer, profileID models.ProfileID, action models.ConsentAction, grantedBy models.AccountID) (*models.ConsentRecord, error) {
	query := `INSERT INTO consent_records (profile_id, action, granted_by) VALUES (?, ?, ?)`
	id, err := q.ExecReturningID(query, profileID, action, grantedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to insert consent record: %w", err)
	}

	return &models.ConsentRecord{
		ID:        id,
		ProfileID: profileID,
		Action:    action,
		GrantedBy: grantedBy,
		CreatedAt: time.Now(),
	}, nil
}

// HasGrantedConsent reports whether the most recent consent event for the
// profile is a grant. A later revocation supersedes an earlier grant.
func (r *ConsentRepository) HasGrantedConsent(profileID models.ProfileID) (bool, error) {
	query := `
		SELECT action FROM consent_records
		WHERE profile_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var action models.ConsentAction
	err := r.db.QueryRow(query, profileID).Scan(&action)
	if err == sql.ErrNoRows {
		// No consent event at all
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check consent: %w", err)
	}
	return action == models.ConsentGranted, nil
}

// ListByProfile returns the full audit trail for a profile, oldest first
func (r *ConsentRepository) ListByProfile(profileID models.ProfileID) ([]models.ConsentRecord, error) {
	query := `
		SELECT id, profile_id, action, granted_by, created_at
		FROM consent_records
		WHERE profile_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query consent records: %w", err)
	}
	defer rows.Close()

	var records []models.ConsentRecord
	for rows.Next() {
		var rec models.ConsentRecord
		if err := rows.Scan(&rec.ID, &rec.ProfileID, &rec.Action, &rec.GrantedBy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan consent record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
