package coppa

import "alumnihub/internal/models"

// COPPA age thresholds. These are legally motivated and exact: under 14 is
// blocked outright, 14-17 needs verifiable parental consent, 18+ is an adult.
const (
	ConsentMinAge = 14
	AdultAge      = 18
)

// Decision is the computed access state for one profile. It is a pure value;
// persistence belongs to the profile store.
type Decision struct {
	AccessLevel           models.AccessLevel
	Status                models.ProfileStatus
	CanAccessPlatform     bool
	RequiresParentConsent bool
}

// CalculateAccess maps an age onto the access decision table. An unknown age
// (known == false) is always blocked: the platform never assumes adult.
func CalculateAccess(age int, known bool) Decision {
	switch {
	case !known, age < ConsentMinAge:
		return Decision{
			AccessLevel: models.AccessBlocked,
			Status:      models.StatusBlocked,
		}
	case age < AdultAge:
		return Decision{
			AccessLevel:           models.AccessSupervised,
			Status:                models.StatusPendingConsent,
			RequiresParentConsent: true,
		}
	default:
		return Decision{
			AccessLevel:       models.AccessFull,
			Status:            models.StatusActive,
			CanAccessPlatform: true,
		}
	}
}

// WithConsent applies the parental-consent override to a pending decision.
// A consented minor becomes active and may access the platform, but the
// access level stays supervised: supervised-with-consent is a distinct tier
// from adult-full so features can be gated differently later. Applying the
// override to anything other than a pending decision is a no-op, which makes
// re-running it on every login safe.
func (d Decision) WithConsent() Decision {
	if !d.RequiresParentConsent || d.Status != models.StatusPendingConsent {
		return d
	}
	d.Status = models.StatusActive
	d.CanAccessPlatform = true
	return d
}
