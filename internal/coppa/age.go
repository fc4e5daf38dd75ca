// Package coppa holds the pure age-resolution and access-level rules that
// gate platform access for family profiles. Nothing in here touches the
// database or the clock; callers pass "now" in so results are reproducible.
package coppa

import (
	"strconv"
	"strings"
	"time"
)

// Basis records which source of birth information an age was derived from.
type Basis string

const (
	BasisBirthDate     Basis = "birth_date"
	BasisYearOfBirth   Basis = "year_of_birth"
	BasisBatchEstimate Basis = "batch_estimate"
	BasisUnknown       Basis = "unknown"
)

// Typical graduation age used to estimate a birth year from a batch year.
const batchGraduationAge = 22

// Earliest birth year the resolver will accept. Anything older is treated as
// bad data rather than a 120+ year old member.
const minBirthYear = 1900

// AgeInput carries whatever birth material is available for one person.
// All fields are optional; resolution picks the most authoritative one.
type AgeInput struct {
	BirthDate       *time.Time
	YearOfBirth     *int
	GraduationBatch string
}

// AgeResult is a tagged resolution outcome. Age is only meaningful when
// Known() reports true.
type AgeResult struct {
	Age   int
	Basis Basis
}

// Known reports whether an age could be derived at all.
func (r AgeResult) Known() bool {
	return r.Basis != BasisUnknown
}

// ResolveAge derives an age from the best available birth information,
// in priority order: exact birth date, explicit year of birth, then a
// graduation-batch estimate. It never fails; when nothing usable is
// present the result carries BasisUnknown and callers must treat the
// person as blocked until a year of birth is collected.
//
// Year-only sources are anchored at December 31 of the birth year. That
// yields the smallest possible age for a given "now", so a person is only
// ever classified as older once every birthday that year has certainly
// passed. The anchoring is a compliance decision and must not be changed
// to January 1 or mid-year.
func ResolveAge(in AgeInput, now time.Time) AgeResult {
	if in.BirthDate != nil {
		if age, ok := ageAt(*in.BirthDate, now); ok {
			return AgeResult{Age: age, Basis: BasisBirthDate}
		}
		return AgeResult{Basis: BasisUnknown}
	}

	if in.YearOfBirth != nil {
		if age, ok := ageFromYear(*in.YearOfBirth, now); ok {
			return AgeResult{Age: age, Basis: BasisYearOfBirth}
		}
		return AgeResult{Basis: BasisUnknown}
	}

	if year, ok := birthYearFromBatch(in.GraduationBatch, now); ok {
		if age, ok := ageFromYear(year, now); ok {
			return AgeResult{Age: age, Basis: BasisBatchEstimate}
		}
	}

	return AgeResult{Basis: BasisUnknown}
}

// ageAt computes completed years between birth and now. Future birth dates
// are rejected rather than producing a negative age.
func ageAt(birth, now time.Time) (int, bool) {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// ageFromYear applies the Dec-31 anchoring rule to a bare birth year.
func ageFromYear(year int, now time.Time) (int, bool) {
	if year < minBirthYear || year > now.Year() {
		return 0, false
	}
	anchor := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return ageAt(anchor, now)
}

// birthYearFromBatch estimates a birth year from a graduation batch. Batches
// in the source data are free-form ("2009", "B8", "Batch 8"); only a plain
// numeric year within a plausible range is usable, anything else falls
// through to unknown instead of producing garbage arithmetic.
func birthYearFromBatch(batch string, now time.Time) (int, bool) {
	batch = strings.TrimSpace(batch)
	if batch == "" {
		return 0, false
	}
	year, err := strconv.Atoi(batch)
	if err != nil {
		return 0, false
	}
	estimated := year - batchGraduationAge
	if estimated < minBirthYear || estimated > now.Year() {
		return 0, false
	}
	return estimated, true
}
