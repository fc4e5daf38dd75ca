package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"alumnihub/internal/models"
	"alumnihub/internal/repository"
)

const (
	maxSearchTermLength = 100
	defaultPageSize     = 50
	maxPageSize         = 200
	exportPageSize      = 500
)

// AlumniService exposes the alumni registry to the admin surface: paged
// search and CSV export. The registry itself is populated offline by the
// import command.
type AlumniService struct {
	alumniRepo *repository.AlumniRepository
}

// NewAlumniService creates a new alumni service
func NewAlumniService(alumniRepo *repository.AlumniRepository) *AlumniService {
	return &AlumniService{alumniRepo: alumniRepo}
}

// Search runs a paged registry search. The term is truncated to a sane
// length and page bounds are clamped rather than rejected.
func (s *AlumniService) Search(term string, offset, limit int) ([]models.AlumniRecord, int, error) {
	if len(term) > maxSearchTermLength {
		term = term[:maxSearchTermLength]
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.alumniRepo.Search(term, offset, limit)
}

// ExportCSV streams the whole registry as CSV, paging through the
// repository so the full table never sits in memory at once.
func (s *AlumniService) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "email", "first_name", "last_name", "graduation_batch", "birth_date"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	offset := 0
	for {
		records, _, err := s.alumniRepo.Search("", offset, exportPageSize)
		if err != nil {
			return fmt.Errorf("failed to page alumni records: %w", err)
		}
		for _, rec := range records {
			birthDate := ""
			if rec.BirthDate != nil {
				birthDate = rec.BirthDate.Format("2006-01-02")
			}
			row := []string{
				strconv.FormatInt(int64(rec.ID), 10),
				rec.Email,
				rec.FirstName,
				rec.LastName,
				rec.GraduationBatch,
				birthDate,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
		if len(records) < exportPageSize {
			break
		}
		offset += exportPageSize
	}

	cw.Flush()
	return cw.Error()
}
