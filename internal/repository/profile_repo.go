package repository

import (
	"database/sql"
	"fmt"
	"time"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
)

// ProfileRepository handles database operations for family profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, account_id, alumni_record_id, first_name, last_name,
	display_name, relationship, year_of_birth, birth_date, current_age,
	access_level, status, can_access_platform, requires_parent_consent,
	parent_consent_given, parent_consent_date, is_primary_contact,
	last_login_at, last_consent_check_at, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.FamilyProfile, error) {
	p := &models.FamilyProfile{}
	var alumniID sql.NullInt64
	var yearOfBirth, currentAge sql.NullInt64
	var birthDate, consentDate, lastLogin, lastCheck sql.NullTime

	err := row.Scan(
		&p.ID, &p.AccountID, &alumniID, &p.FirstName, &p.LastName,
		&p.DisplayName, &p.Relationship, &yearOfBirth, &birthDate, &currentAge,
		&p.AccessLevel, &p.Status, &p.CanAccessPlatform, &p.RequiresParentConsent,
		&p.ParentConsentGiven, &consentDate, &p.IsPrimaryContact,
		&lastLogin, &lastCheck, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if alumniID.Valid {
		id := models.AlumniRecordID(alumniID.Int64)
		p.AlumniRecordID = &id
	}
	if yearOfBirth.Valid {
		y := int(yearOfBirth.Int64)
		p.YearOfBirth = &y
	}
	if currentAge.Valid {
		a := int(currentAge.Int64)
		p.CurrentAge = &a
	}
	if birthDate.Valid {
		t := birthDate.Time
		p.BirthDate = &t
	}
	if consentDate.Valid {
		t := consentDate.Time
		p.ParentConsentDate = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	if lastCheck.Valid {
		t := lastCheck.Time
		p.LastConsentCheckAt = &t
	}
	return p, nil
}

// CreateProfile inserts a new family profile with its computed access state.
// It takes a Queryer so registration can create the account and all selected
// profiles in one transaction.
func (r *ProfileRepository) CreateProfile(q database.Queryer, p *models.FamilyProfile) (*models.FamilyProfile, error) {
	query := `
		INSERT INTO family_profiles (
			account_id, alumni_record_id, first_name, last_name, display_name,
			relationship, year_of_birth, birth_date, current_age,
			access_level, status, can_access_platform, requires_parent_consent,
			parent_consent_given, parent_consent_date, is_primary_contact
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		p.AccountID, nullableAlumniID(p.AlumniRecordID), p.FirstName, p.LastName, p.DisplayName,
		p.Relationship, nullableInt(p.YearOfBirth), nullableTime(p.BirthDate), nullableInt(p.CurrentAge),
		p.AccessLevel, p.Status, p.CanAccessPlatform, p.RequiresParentConsent,
		p.ParentConsentGiven, nullableTime(p.ParentConsentDate), p.IsPrimaryContact,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	created := *p
	created.ID = models.ProfileID(id)
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetProfileByID retrieves a profile by ID
func (r *ProfileRepository) GetProfileByID(id models.ProfileID) (*models.FamilyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM family_profiles WHERE id = ?`
	p, err := scanProfile(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ListProfilesForAccount returns all profiles of an account, primary contact
// first, the rest in creation order.
func (r *ProfileRepository) ListProfilesForAccount(accountID models.AccountID) ([]models.FamilyProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM family_profiles
		WHERE account_id = ?
		ORDER BY is_primary_contact DESC, id ASC
	`
	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.FamilyProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// UpdateBirthAndAccess persists re-derived birth material, the freshly
// computed access fields and any optional display fields in one statement.
// Callers run it inside a transaction so the write is all-or-nothing.
func (r *ProfileRepository) UpdateBirthAndAccess(q database.Queryer, p *models.FamilyProfile) error {
	query := `
		UPDATE family_profiles SET
			first_name = ?, last_name = ?, display_name = ?,
			year_of_birth = ?, birth_date = ?, current_age = ?,
			access_level = ?, status = ?, can_access_platform = ?,
			requires_parent_consent = ?, parent_consent_given = ?,
			parent_consent_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := q.Exec(query,
		p.FirstName, p.LastName, p.DisplayName,
		nullableInt(p.YearOfBirth), nullableTime(p.BirthDate), nullableInt(p.CurrentAge),
		p.AccessLevel, p.Status, p.CanAccessPlatform,
		p.RequiresParentConsent, p.ParentConsentGiven,
		nullableTime(p.ParentConsentDate), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// TouchLogin records a successful profile selection. Last-write-wins is fine
// here; two simultaneous logins compute the same access state anyway.
func (r *ProfileRepository) TouchLogin(profileID models.ProfileID, at time.Time) error {
	query := `
		UPDATE family_profiles
		SET last_login_at = ?, last_consent_check_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, at, at, profileID); err != nil {
		return fmt.Errorf("failed to touch profile login: %w", err)
	}
	return nil
}

// TouchConsentCheck records that the access calculator ran for this profile
func (r *ProfileRepository) TouchConsentCheck(profileID models.ProfileID, at time.Time) error {
	query := `
		UPDATE family_profiles
		SET last_consent_check_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, at, profileID); err != nil {
		return fmt.Errorf("failed to touch consent check: %w", err)
	}
	return nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableAlumniID(v *models.AlumniRecordID) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
