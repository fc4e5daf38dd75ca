package repository

import (
	"database/sql"
	"fmt"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
)

// AlumniRepository reads the alumni source registry. Rows are written only
// by the offline import command; runtime user actions never touch them.
type AlumniRepository struct {
	db *database.DB
}

// NewAlumniRepository creates a new alumni repository
func NewAlumniRepository(db *database.DB) *AlumniRepository {
	return &AlumniRepository{db: db}
}

const alumniColumns = `id, email, first_name, last_name, graduation_batch, birth_date, created_at`

func scanAlumni(row interface{ Scan(...interface{}) error }) (*models.AlumniRecord, error) {
	rec := &models.AlumniRecord{}
	var birthDate sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.Email, &rec.FirstName, &rec.LastName,
		&rec.GraduationBatch, &birthDate, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		t := birthDate.Time
		rec.BirthDate = &t
	}
	return rec, nil
}

// GetByEmail returns every alumni record registered under an email. Several
// family members can share one email, so zero, one or many rows come back.
func (r *AlumniRepository) GetByEmail(email string) ([]models.AlumniRecord, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni_records WHERE email = ? ORDER BY id ASC`
	rows, err := r.db.Query(query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query alumni records: %w", err)
	}
	defer rows.Close()

	var records []models.AlumniRecord
	for rows.Next() {
		rec, err := scanAlumni(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alumni record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetByID retrieves one alumni record
func (r *AlumniRepository) GetByID(id models.AlumniRecordID) (*models.AlumniRecord, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni_records WHERE id = ?`
	rec, err := scanAlumni(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alumni record: %w", err)
	}
	return rec, nil
}

// Search returns a page of alumni records matching the term against name,
// email or batch, plus the total match count for pagination.
func (r *AlumniRepository) Search(term string, offset, limit int) ([]models.AlumniRecord, int, error) {
	where := ""
	args := []interface{}{}
	if term != "" {
		like := "%" + term + "%"
		where = `WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR graduation_batch LIKE ?`
		args = append(args, like, like, like, like)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM alumni_records ` + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alumni records: %w", err)
	}

	query := `SELECT ` + alumniColumns + ` FROM alumni_records ` + where + ` ORDER BY id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search alumni records: %w", err)
	}
	defer rows.Close()

	var records []models.AlumniRecord
	for rows.Next() {
		rec, err := scanAlumni(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alumni record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

// Insert adds an imported alumni record. Only the import command calls this.
func (r *AlumniRepository) Insert(q database.Queryer, rec *models.AlumniRecord) (*models.AlumniRecord, error) {
	query := `
		INSERT INTO alumni_records (email, first_name, last_name, graduation_batch, birth_date)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		rec.Email, rec.FirstName, rec.LastName, rec.GraduationBatch, nullableTime(rec.BirthDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert alumni record: %w", err)
	}

	inserted := *rec
	inserted.ID = models.AlumniRecordID(id)
	return &inserted, nil
}
