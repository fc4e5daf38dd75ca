package validation

import (
	"testing"
	"time"

	"alumnihub/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "parent@example.com", wantErr: false},
		{name: "valid with plus", email: "parent+tag@example.com", wantErr: false},
		{name: "surrounding spaces", email: "  parent@example.com  ", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "parentexample.com", wantErr: true},
		{name: "missing tld", email: "parent@example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("expected error for empty password")
	}
	if err := ValidatePassword("long-enough-password"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRelationship(t *testing.T) {
	for _, rel := range []models.Relationship{
		models.RelationshipSelf,
		models.RelationshipParent,
		models.RelationshipChild,
		models.RelationshipOther,
	} {
		if err := ValidateRelationship(rel); err != nil {
			t.Errorf("ValidateRelationship(%q) = %v, want nil", rel, err)
		}
	}

	if err := ValidateRelationship(models.Relationship("cousin")); err == nil {
		t.Error("expected error for unrecognized relationship")
	}
	if err := ValidateRelationship(models.Relationship("")); err == nil {
		t.Error("expected error for empty relationship")
	}
}

func TestValidateYearOfBirth(t *testing.T) {
	current := time.Now().Year()

	tests := []struct {
		name    string
		year    int
		wantErr bool
	}{
		{name: "reasonable year", year: current - 30, wantErr: false},
		{name: "current year newborn", year: current, wantErr: false},
		{name: "lower bound", year: 1900, wantErr: false},
		{name: "next year", year: current + 1, wantErr: true},
		{name: "nineteenth century", year: 1880, wantErr: true},
		{name: "zero", year: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYearOfBirth(tt.year)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateYearOfBirth(%d) error = %v, wantErr %v", tt.year, err, tt.wantErr)
			}
		})
	}
}

func TestErrorMessageIncludesField(t *testing.T) {
	err := ValidateEmail("")
	var verr Error
	if e, ok := err.(Error); ok {
		verr = e
	} else {
		t.Fatalf("expected validation.Error, got %T", err)
	}
	if verr.Field != "email" {
		t.Errorf("Field = %q, want %q", verr.Field, "email")
	}
}
