package models

import "time"

// AlumniRecord is a reference row imported from the alumni CSV pipeline.
// Several records may share one email (family members graduating in different
// years). Runtime code only reads these rows; the import command writes them.
type AlumniRecord struct {
	ID              AlumniRecordID
	Email           string
	FirstName       string
	LastName        string
	GraduationBatch string // free-form in the source data, not always numeric
	BirthDate       *time.Time
	CreatedAt       time.Time
}
