package coppa

import (
	"testing"
	"time"
)

// Fixed reference date so age arithmetic is reproducible.
var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int {
	return &v
}

func TestResolveAgeBirthDate(t *testing.T) {
	tests := []struct {
		name    string
		birth   *time.Time
		wantAge int
	}{
		{name: "birthday already passed this year", birth: datePtr(2000, time.January, 10), wantAge: 26},
		{name: "birthday later this year", birth: datePtr(2000, time.December, 1), wantAge: 25},
		{name: "birthday today", birth: datePtr(2010, time.June, 15), wantAge: 16},
		{name: "birthday tomorrow", birth: datePtr(2010, time.June, 16), wantAge: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAge(AgeInput{BirthDate: tt.birth}, testNow)
			if got.Basis != BasisBirthDate {
				t.Fatalf("basis = %q, want %q", got.Basis, BasisBirthDate)
			}
			if got.Age != tt.wantAge {
				t.Errorf("age = %d, want %d", got.Age, tt.wantAge)
			}
		})
	}
}

func TestResolveAgeFutureBirthDate(t *testing.T) {
	got := ResolveAge(AgeInput{BirthDate: datePtr(2030, time.January, 1)}, testNow)
	if got.Basis != BasisUnknown {
		t.Errorf("basis = %q, want %q for a future birth date", got.Basis, BasisUnknown)
	}
}

func TestResolveAgeYearOfBirthAnchoring(t *testing.T) {
	// A bare birth year must behave exactly like Dec 31 of that year: the
	// smallest possible age for the given "now".
	for year := 1990; year <= 2026; year++ {
		fromYear := ResolveAge(AgeInput{YearOfBirth: intPtr(year)}, testNow)
		fromDate := ResolveAge(AgeInput{BirthDate: datePtr(year, time.December, 31)}, testNow)

		if fromYear.Basis != BasisYearOfBirth {
			t.Fatalf("year %d: basis = %q, want %q", year, fromYear.Basis, BasisYearOfBirth)
		}
		if fromYear.Age != fromDate.Age {
			t.Errorf("year %d: age from year = %d, age from Dec 31 date = %d", year, fromYear.Age, fromDate.Age)
		}
	}
}

func TestResolveAgeYearOfBirthBounds(t *testing.T) {
	tests := []struct {
		name string
		year int
	}{
		{name: "future year", year: 2027},
		{name: "implausibly old", year: 1850},
		{name: "zero", year: 0},
		{name: "negative", year: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAge(AgeInput{YearOfBirth: intPtr(tt.year)}, testNow)
			if got.Basis != BasisUnknown {
				t.Errorf("basis = %q, want %q", got.Basis, BasisUnknown)
			}
		})
	}
}

func TestResolveAgeBatchEstimate(t *testing.T) {
	// Batch 2009 -> estimated birth year 1987, Dec-31 anchored: 38 at the
	// fixed test date.
	got := ResolveAge(AgeInput{GraduationBatch: "2009"}, testNow)
	if got.Basis != BasisBatchEstimate {
		t.Fatalf("basis = %q, want %q", got.Basis, BasisBatchEstimate)
	}
	if got.Age != 38 {
		t.Errorf("age = %d, want 38", got.Age)
	}
}

func TestResolveAgeBatchRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		batch string
	}{
		{name: "letter prefix", batch: "B8"},
		{name: "words", batch: "Batch 8"},
		{name: "empty", batch: ""},
		{name: "whitespace", batch: "   "},
		{name: "small number underflows", batch: "8"},
		{name: "future batch", batch: "2090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAge(AgeInput{GraduationBatch: tt.batch}, testNow)
			if got.Basis != BasisUnknown {
				t.Errorf("batch %q: basis = %q, want %q", tt.batch, got.Basis, BasisUnknown)
			}
			if got.Age != 0 {
				t.Errorf("batch %q: age = %d, want 0", tt.batch, got.Age)
			}
		})
	}
}

func TestResolveAgePriorityOrder(t *testing.T) {
	// Birth date wins over year of birth, which wins over the batch estimate.
	in := AgeInput{
		BirthDate:       datePtr(2008, time.January, 1),
		YearOfBirth:     intPtr(1990),
		GraduationBatch: "2009",
	}
	got := ResolveAge(in, testNow)
	if got.Basis != BasisBirthDate || got.Age != 18 {
		t.Errorf("got %+v, want 18 via birth_date", got)
	}

	in.BirthDate = nil
	got = ResolveAge(in, testNow)
	if got.Basis != BasisYearOfBirth || got.Age != 35 {
		t.Errorf("got %+v, want 35 via year_of_birth", got)
	}

	in.YearOfBirth = nil
	got = ResolveAge(in, testNow)
	if got.Basis != BasisBatchEstimate {
		t.Errorf("got %+v, want batch_estimate basis", got)
	}
}

func TestResolveAgeNothingAvailable(t *testing.T) {
	got := ResolveAge(AgeInput{}, testNow)
	if got.Known() {
		t.Errorf("empty input resolved to %+v, want unknown", got)
	}
}
