package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"alumnihub/internal/metrics"
	"alumnihub/internal/models"
	"alumnihub/internal/service"
)

// ProfileHandler handles family profile HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
	consentService *service.ConsentService
	collector      *metrics.Collector
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService, consentService *service.ConsentService, collector *metrics.Collector) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		consentService: consentService,
		collector:      collector,
	}
}

type profileResponse struct {
	ID                    models.ProfileID     `json:"id"`
	FirstName             string               `json:"first_name"`
	LastName              string               `json:"last_name"`
	DisplayName           string               `json:"display_name,omitempty"`
	Relationship          models.Relationship  `json:"relationship"`
	YearOfBirth           *int                 `json:"year_of_birth,omitempty"`
	CurrentAge            *int                 `json:"current_age,omitempty"`
	AccessLevel           models.AccessLevel   `json:"access_level"`
	Status                models.ProfileStatus `json:"status"`
	CanAccessPlatform     bool                 `json:"can_access_platform"`
	RequiresParentConsent bool                 `json:"requires_parent_consent"`
	ParentConsentGiven    bool                 `json:"parent_consent_given"`
	IsPrimaryContact      bool                 `json:"is_primary_contact"`
}

func newProfileResponse(p *models.FamilyProfile) profileResponse {
	return profileResponse{
		ID:                    p.ID,
		FirstName:             p.FirstName,
		LastName:              p.LastName,
		DisplayName:           p.DisplayName,
		Relationship:          p.Relationship,
		YearOfBirth:           p.YearOfBirth,
		CurrentAge:            p.CurrentAge,
		AccessLevel:           p.AccessLevel,
		Status:                p.Status,
		CanAccessPlatform:     p.CanAccessPlatform,
		RequiresParentConsent: p.RequiresParentConsent,
		ParentConsentGiven:    p.ParentConsentGiven,
		IsPrimaryContact:      p.IsPrimaryContact,
	}
}

type selectionResponse struct {
	Outcome service.Outcome `json:"outcome"`
	Token   string          `json:"token,omitempty"`
	Profile profileResponse `json:"profile"`
}

func newSelectionResponse(sel *service.Selection) selectionResponse {
	return selectionResponse{
		Outcome: sel.Outcome,
		Token:   sel.Token,
		Profile: newProfileResponse(sel.Profile),
	}
}

// profileIDFromPath parses the {id} path value
func profileIDFromPath(r *http.Request) (models.ProfileID, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return models.ProfileID(id), true
}

// List returns the account's family profiles, primary first
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	profiles, err := h.profileService.ListProfilesForAccount(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load profiles", "ListProfilesForAccount failed", err)
		return
	}

	out := make([]profileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, newProfileResponse(&profiles[i]))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profiles": out})
}

// Select attempts to bind a profile to the session. needs_age, needs_consent
// and blocked come back as 200 responses with their outcome; only ownership
// and lookup problems are errors.
func (h *ProfileHandler) Select(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	var req struct {
		ProfileID models.ProfileID `json:"profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProfileID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	sel, err := h.profileService.SelectProfile(account.ID, req.ProfileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.collector.RecordSelection(string(sel.Outcome))
	respondJSON(w, http.StatusOK, newSelectionResponse(sel))
}

// UpdateBirthInfo updates birth material and recomputes access
func (h *ProfileHandler) UpdateBirthInfo(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	profileID, ok := profileIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id", "", nil)
		return
	}

	var req struct {
		YearOfBirth *int   `json:"year_of_birth"`
		BirthDate   string `json:"birth_date"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	in := service.UpdateBirthInput{
		YearOfBirth: req.YearOfBirth,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid birth date, expected YYYY-MM-DD", "", nil)
			return
		}
		in.BirthDate = &bd
	}

	p, err := h.profileService.UpdateBirthInformation(account.ID, profileID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newProfileResponse(p))
}

// Consent records a parental consent grant and re-runs the selection check
func (h *ProfileHandler) Consent(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	profileID, ok := profileIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id", "", nil)
		return
	}

	sel, err := h.consentService.RecordConsent(profileID, account.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.collector.RecordConsentEvent(string(models.ConsentGranted))
	respondJSON(w, http.StatusOK, newSelectionResponse(sel))
}

// ConsentHistory returns the profile's consent audit trail
func (h *ProfileHandler) ConsentHistory(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	profileID, ok := profileIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id", "", nil)
		return
	}

	records, err := h.consentService.History(account.ID, profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	type consentEntry struct {
		Action    models.ConsentAction `json:"action"`
		GrantedBy models.AccountID     `json:"granted_by"`
		CreatedAt time.Time            `json:"created_at"`
	}
	out := make([]consentEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, consentEntry{Action: rec.Action, GrantedBy: rec.GrantedBy, CreatedAt: rec.CreatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"history": out})
}
