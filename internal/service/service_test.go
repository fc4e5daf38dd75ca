package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"alumnihub/internal/database"
	"alumnihub/internal/models"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
)

type testEnv struct {
	db           *database.DB
	accounts     *repository.AccountRepository
	alumni       *repository.AlumniRepository
	signer       *security.TokenSigner
	profiles     *ProfileService
	auth         *AuthService
	invitations  *InvitationService
	registration *RegistrationService
	consent      *ConsentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	consentRepo := repository.NewConsentRepository(db)
	alumniRepo := repository.NewAlumniRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	signer := security.NewTokenSigner("test-invitation-secret", "test-profile-secret")

	emails, err := NewEmailService("", "", "", "http://localhost:8080")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	profiles := NewProfileService(db, profileRepo, consentRepo, signer, 12*time.Hour)
	invitations := NewInvitationService(invitationRepo, accountRepo, emails, signer, 72*time.Hour)

	return &testEnv{
		db:           db,
		accounts:     accountRepo,
		alumni:       alumniRepo,
		signer:       signer,
		profiles:     profiles,
		auth:         NewAuthService(accountRepo, time.Hour, "", "", ""),
		invitations:  invitations,
		registration: NewRegistrationService(db, accountRepo, alumniRepo, invitationRepo, invitations, profiles, emails),
		consent:      NewConsentService(profiles),
	}
}

func (e *testEnv) createAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	acct, err := e.accounts.CreateAccount(e.db, email, hash, false)
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	return acct
}

func (e *testEnv) createProfile(t *testing.T, accountID models.AccountID, in NewProfileInput) *models.FamilyProfile {
	t.Helper()
	p, err := e.profiles.CreateProfile(e.db, accountID, in)
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	return p
}

// birthYearForAge picks a year of birth whose resolved age lands on target
// under the end-of-year anchoring rule.
func birthYearForAge(target int) *int {
	y := time.Now().Year() - target - 1
	return &y
}

func TestRegistrationCreatesOnlySelectedProfiles(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAccount(t, "admin@example.com", "admin-password")

	rec1, err := env.alumni.Insert(env.db, &models.AlumniRecord{
		Email: "family@example.com", FirstName: "Maya", LastName: "Iyer", GraduationBatch: "2005",
	})
	if err != nil {
		t.Fatalf("Failed to insert alumni record: %v", err)
	}
	if _, err := env.alumni.Insert(env.db, &models.AlumniRecord{
		Email: "family@example.com", FirstName: "Rohan", LastName: "Iyer", GraduationBatch: "2015",
	}); err != nil {
		t.Fatalf("Failed to insert alumni record: %v", err)
	}

	_, token, err := env.invitations.Invite(context.Background(), "family@example.com", admin.ID)
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}

	preview, err := env.registration.PreviewInvitation(token)
	if err != nil {
		t.Fatalf("Failed to preview invitation: %v", err)
	}
	if len(preview.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(preview.Candidates))
	}

	account, err := env.registration.CompleteRegistration(RegistrationInput{
		Token:    token,
		Password: "family-password",
		Members: []RegistrationMember{
			{AlumniRecordID: &rec1.ID, Relationship: models.RelationshipSelf},
		},
		PrimaryIndex: 0,
	})
	if err != nil {
		t.Fatalf("Failed to complete registration: %v", err)
	}

	list, err := env.profiles.ListProfilesForAccount(account.ID)
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected exactly the selected profile, got %d", len(list))
	}
	p := list[0]
	if p.AlumniRecordID == nil || *p.AlumniRecordID != rec1.ID {
		t.Error("Profile is not linked to the selected alumni record")
	}
	if p.FirstName != "Maya" {
		t.Errorf("Expected first name from alumni record, got %q", p.FirstName)
	}
	if !p.IsPrimaryContact {
		t.Error("Selected member should be the primary contact")
	}
	if account.PrimaryProfileID == nil || *account.PrimaryProfileID != p.ID {
		t.Error("Account primary profile not set")
	}

	// Batch 2005 puts the graduate well past adulthood.
	if p.Status != models.StatusActive || p.AccessLevel != models.AccessFull {
		t.Errorf("Expected active/full for an adult graduate, got %s/%s", p.Status, p.AccessLevel)
	}

	// The invitation is consumed.
	if _, err := env.registration.CompleteRegistration(RegistrationInput{
		Token:    token,
		Password: "another-password",
		Members:  []RegistrationMember{{FirstName: "X", LastName: "Y", Relationship: models.RelationshipSelf}},
	}); !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Errorf("Expected ErrTokenAlreadyUsed on reuse, got %v", err)
	}
}

func TestReinviteInvalidatesEarlierToken(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAccount(t, "admin@example.com", "admin-password")

	_, token1, err := env.invitations.Invite(context.Background(), "guest@example.com", admin.ID)
	if err != nil {
		t.Fatalf("Failed to invite: %v", err)
	}
	_, token2, err := env.invitations.Invite(context.Background(), "guest@example.com", admin.ID)
	if err != nil {
		t.Fatalf("Failed to re-invite: %v", err)
	}

	if _, err := env.invitations.VerifyToken(token1); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected superseded token to be invalid, got %v", err)
	}
	if _, err := env.invitations.VerifyToken(token2); err != nil {
		t.Errorf("Expected fresh token to verify, got %v", err)
	}
}

func TestInviteExistingEmailRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAccount(t, "admin@example.com", "admin-password")
	env.createAccount(t, "member@example.com", "member-password")

	if _, _, err := env.invitations.Invite(context.Background(), "member@example.com", admin.ID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestSelectionNeedsAgeThenConsent(t *testing.T) {
	env := newTestEnv(t)
	acct := env.createAccount(t, "parent@example.com", "parent-password")
	p := env.createProfile(t, acct.ID, NewProfileInput{
		FirstName: "Asha", LastName: "Iyer", Relationship: models.RelationshipChild,
	})

	sel, err := env.profiles.SelectProfile(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("SelectProfile failed: %v", err)
	}
	if sel.Outcome != OutcomeNeedsAge {
		t.Fatalf("Expected needs_age without birth material, got %s", sel.Outcome)
	}

	if _, err := env.profiles.UpdateBirthInformation(acct.ID, p.ID, UpdateBirthInput{
		YearOfBirth: birthYearForAge(15),
	}); err != nil {
		t.Fatalf("UpdateBirthInformation failed: %v", err)
	}

	sel, err = env.profiles.SelectProfile(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("SelectProfile failed: %v", err)
	}
	if sel.Outcome != OutcomeNeedsConsent {
		t.Fatalf("Expected needs_consent for an unconsented minor, got %s", sel.Outcome)
	}
	if sel.Token != "" {
		t.Error("No token should be issued before consent")
	}

	sel, err = env.consent.RecordConsent(p.ID, acct.ID)
	if err != nil {
		t.Fatalf("RecordConsent failed: %v", err)
	}
	if sel.Outcome != OutcomeActive {
		t.Fatalf("Expected active after consent, got %s", sel.Outcome)
	}
	if sel.Profile.AccessLevel != models.AccessSupervised {
		t.Errorf("Consent must keep the minor supervised, got %s", sel.Profile.AccessLevel)
	}

	claims, err := env.signer.VerifyProfileToken(sel.Token)
	if err != nil {
		t.Fatalf("Profile token does not verify: %v", err)
	}
	if claims.AccountID != int64(acct.ID) || claims.ProfileID != int64(p.ID) {
		t.Error("Profile token is bound to the wrong identity")
	}

	history, err := env.consent.History(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Action != models.ConsentGranted {
		t.Errorf("Expected one granted audit row, got %+v", history)
	}
}

func TestConsentOnAdultFails(t *testing.T) {
	env := newTestEnv(t)
	acct := env.createAccount(t, "adult@example.com", "adult-password")
	p := env.createProfile(t, acct.ID, NewProfileInput{
		FirstName: "Dev", LastName: "Nair", Relationship: models.RelationshipSelf,
		YearOfBirth: birthYearForAge(25),
	})

	if _, err := env.consent.RecordConsent(p.ID, acct.ID); !errors.Is(err, ErrConsentNotAllowed) {
		t.Fatalf("Expected ErrConsentNotAllowed for an adult, got %v", err)
	}

	reloaded, err := env.profiles.GetOwnedProfile(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("Failed to reload profile: %v", err)
	}
	if reloaded.ParentConsentGiven || reloaded.Status != models.StatusActive {
		t.Error("Failed consent attempt must not change profile state")
	}

	history, err := env.consent.History(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected no audit rows after a rejected grant, got %d", len(history))
	}
}

func TestConsentOnYoungChildFails(t *testing.T) {
	env := newTestEnv(t)
	acct := env.createAccount(t, "parent@example.com", "parent-password")
	p := env.createProfile(t, acct.ID, NewProfileInput{
		FirstName: "Kiran", LastName: "Nair", Relationship: models.RelationshipChild,
		YearOfBirth: birthYearForAge(8),
	})

	sel, err := env.profiles.SelectProfile(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("SelectProfile failed: %v", err)
	}
	if sel.Outcome != OutcomeBlocked {
		t.Fatalf("Expected blocked under the consent age, got %s", sel.Outcome)
	}

	if _, err := env.profiles.GrantParentalConsent(p.ID, acct.ID); !errors.Is(err, ErrConsentNotAllowed) {
		t.Errorf("Expected ErrConsentNotAllowed under 14, got %v", err)
	}
}

func TestCrossAccountSelectForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createAccount(t, "owner@example.com", "owner-password")
	other := env.createAccount(t, "other@example.com", "other-password")
	p := env.createProfile(t, owner.ID, NewProfileInput{
		FirstName: "Lena", LastName: "Roy", Relationship: models.RelationshipSelf,
		YearOfBirth: birthYearForAge(30),
	})

	if _, err := env.profiles.SelectProfile(other.ID, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for cross-account selection, got %v", err)
	}
	if _, err := env.profiles.UpdateBirthInformation(other.ID, p.ID, UpdateBirthInput{YearOfBirth: birthYearForAge(12)}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for cross-account edit, got %v", err)
	}
	if _, err := env.profiles.SelectProfile(owner.ID, models.ProfileID(9999)); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestNoAutomaticDowngradeOnBirthEdit(t *testing.T) {
	env := newTestEnv(t)
	acct := env.createAccount(t, "adult@example.com", "adult-password")
	p := env.createProfile(t, acct.ID, NewProfileInput{
		FirstName: "Omar", LastName: "Shah", Relationship: models.RelationshipSelf,
		YearOfBirth: birthYearForAge(25),
	})
	if p.Status != models.StatusActive {
		t.Fatalf("Expected active adult profile, got %s", p.Status)
	}

	updated, err := env.profiles.UpdateBirthInformation(acct.ID, p.ID, UpdateBirthInput{
		YearOfBirth: birthYearForAge(15),
	})
	if err != nil {
		t.Fatalf("UpdateBirthInformation failed: %v", err)
	}
	if updated.Status != models.StatusActive || !updated.CanAccessPlatform {
		t.Error("Birth edit must not downgrade an active profile")
	}
	if updated.YearOfBirth == nil || *updated.YearOfBirth != *birthYearForAge(15) {
		t.Error("New birth material must still persist")
	}

	// The stored status stays, but a fresh selection check sees the minor.
	sel, err := env.profiles.SelectProfile(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("SelectProfile failed: %v", err)
	}
	if sel.Outcome != OutcomeNeedsConsent {
		t.Errorf("Expected needs_consent on fresh check, got %s", sel.Outcome)
	}
}

func TestAdminBlockAndRevoke(t *testing.T) {
	env := newTestEnv(t)
	acct := env.createAccount(t, "parent@example.com", "parent-password")
	admin := env.createAccount(t, "admin@example.com", "admin-password")

	p := env.createProfile(t, acct.ID, NewProfileInput{
		FirstName: "Tara", LastName: "Bose", Relationship: models.RelationshipChild,
		YearOfBirth: birthYearForAge(15),
	})

	if _, err := env.profiles.GrantParentalConsent(p.ID, acct.ID); err != nil {
		t.Fatalf("GrantParentalConsent failed: %v", err)
	}

	revoked, err := env.profiles.RevokeParentalConsent(p.ID, admin.ID)
	if err != nil {
		t.Fatalf("RevokeParentalConsent failed: %v", err)
	}
	if revoked.Status != models.StatusPendingConsent || revoked.ParentConsentGiven {
		t.Errorf("Expected pending_consent after revocation, got %s", revoked.Status)
	}

	history, err := env.consent.History(acct.ID, p.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[1].Action != models.ConsentRevoked {
		t.Errorf("Expected granted then revoked audit rows, got %+v", history)
	}

	blocked, err := env.profiles.AdminBlockProfile(p.ID)
	if err != nil {
		t.Fatalf("AdminBlockProfile failed: %v", err)
	}
	if blocked.Status != models.StatusBlocked || blocked.CanAccessPlatform {
		t.Error("Expected blocked profile after admin action")
	}
}

func TestLoginAndSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "member@example.com", "member-password")

	if _, _, err := env.auth.Login("member@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := env.auth.Login("nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	account, session, err := env.auth.Login("Member@Example.com", "member-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	resolved, err := env.auth.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if resolved.ID != account.ID {
		t.Error("Session resolved to the wrong account")
	}

	if err := env.auth.Logout(session.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := env.auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after logout, got %v", err)
	}

	_, session, err = env.auth.Login("member@example.com", "member-password")
	if err != nil {
		t.Fatalf("Second login failed: %v", err)
	}
	if err := env.auth.DeactivateAccount(account.ID); err != nil {
		t.Fatalf("DeactivateAccount failed: %v", err)
	}
	if _, err := env.auth.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected deactivated account session to stop resolving, got %v", err)
	}
	if _, _, err := env.auth.Login("member@example.com", "member-password"); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("Expected ErrAccountDisabled on login, got %v", err)
	}
	if err := env.auth.DeactivateAccount(models.AccountID(9999)); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for missing account, got %v", err)
	}
}

func TestAlumniSearchAndExport(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAlumniService(env.alumni)

	for _, rec := range []models.AlumniRecord{
		{Email: "a@example.com", FirstName: "Anita", LastName: "Kumar", GraduationBatch: "1999"},
		{Email: "b@example.com", FirstName: "Binod", LastName: "Kumar", GraduationBatch: "2004"},
		{Email: "c@example.com", FirstName: "Chitra", LastName: "Menon", GraduationBatch: "2010"},
	} {
		r := rec
		if _, err := env.alumni.Insert(env.db, &r); err != nil {
			t.Fatalf("Failed to insert alumni record: %v", err)
		}
	}

	results, total, err := svc.Search("Kumar", 0, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Errorf("Expected 2 Kumar matches, got total=%d len=%d", total, len(results))
	}

	results, total, err = svc.Search("", 1, 1)
	if err != nil {
		t.Fatalf("Paged search failed: %v", err)
	}
	if total != 3 || len(results) != 1 {
		t.Errorf("Expected total=3 with one page row, got total=%d len=%d", total, len(results))
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("Expected header plus 3 rows, got %d lines", len(lines))
	}
}
