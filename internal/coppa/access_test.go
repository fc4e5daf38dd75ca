package coppa

import (
	"testing"

	"alumnihub/internal/models"
)

func TestCalculateAccessThresholds(t *testing.T) {
	tests := []struct {
		name        string
		age         int
		known       bool
		wantLevel   models.AccessLevel
		wantStatus  models.ProfileStatus
		wantAccess  bool
		wantConsent bool
	}{
		{name: "unknown age", age: 0, known: false, wantLevel: models.AccessBlocked, wantStatus: models.StatusBlocked},
		{name: "toddler", age: 3, known: true, wantLevel: models.AccessBlocked, wantStatus: models.StatusBlocked},
		{name: "just under threshold", age: 13, known: true, wantLevel: models.AccessBlocked, wantStatus: models.StatusBlocked},
		{name: "threshold minor", age: 14, known: true, wantLevel: models.AccessSupervised, wantStatus: models.StatusPendingConsent, wantConsent: true},
		{name: "older minor", age: 17, known: true, wantLevel: models.AccessSupervised, wantStatus: models.StatusPendingConsent, wantConsent: true},
		{name: "just adult", age: 18, known: true, wantLevel: models.AccessFull, wantStatus: models.StatusActive, wantAccess: true},
		{name: "adult", age: 45, known: true, wantLevel: models.AccessFull, wantStatus: models.StatusActive, wantAccess: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAccess(tt.age, tt.known)
			if got.AccessLevel != tt.wantLevel {
				t.Errorf("AccessLevel = %q, want %q", got.AccessLevel, tt.wantLevel)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.CanAccessPlatform != tt.wantAccess {
				t.Errorf("CanAccessPlatform = %v, want %v", got.CanAccessPlatform, tt.wantAccess)
			}
			if got.RequiresParentConsent != tt.wantConsent {
				t.Errorf("RequiresParentConsent = %v, want %v", got.RequiresParentConsent, tt.wantConsent)
			}
		})
	}
}

func TestCalculateAccessBlockedForAllUnderFourteen(t *testing.T) {
	for age := 0; age < ConsentMinAge; age++ {
		got := CalculateAccess(age, true)
		if got.CanAccessPlatform || got.Status != models.StatusBlocked {
			t.Errorf("age %d: got %+v, want blocked with no access", age, got)
		}
	}
}

func TestCalculateAccessIdempotent(t *testing.T) {
	for _, age := range []int{5, 14, 17, 18, 60} {
		first := CalculateAccess(age, true)
		second := CalculateAccess(age, true)
		if first != second {
			t.Errorf("age %d: repeated calls differ: %+v vs %+v", age, first, second)
		}
	}
}

func TestWithConsent(t *testing.T) {
	t.Run("pending minor becomes active but stays supervised", func(t *testing.T) {
		d := CalculateAccess(15, true).WithConsent()
		if d.Status != models.StatusActive {
			t.Errorf("Status = %q, want %q", d.Status, models.StatusActive)
		}
		if !d.CanAccessPlatform {
			t.Error("CanAccessPlatform = false, want true")
		}
		if d.AccessLevel != models.AccessSupervised {
			t.Errorf("AccessLevel = %q, want it to stay %q", d.AccessLevel, models.AccessSupervised)
		}
	})

	t.Run("no effect on blocked child", func(t *testing.T) {
		d := CalculateAccess(10, true)
		if got := d.WithConsent(); got != d {
			t.Errorf("WithConsent changed a blocked decision: %+v", got)
		}
	})

	t.Run("no effect on adult", func(t *testing.T) {
		d := CalculateAccess(30, true)
		if got := d.WithConsent(); got != d {
			t.Errorf("WithConsent changed an adult decision: %+v", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once := CalculateAccess(16, true).WithConsent()
		twice := once.WithConsent()
		if once != twice {
			t.Errorf("override not idempotent: %+v vs %+v", once, twice)
		}
	})
}
