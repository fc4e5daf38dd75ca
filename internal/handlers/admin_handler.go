package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"alumnihub/internal/metrics"
	"alumnihub/internal/models"
	"alumnihub/internal/service"
)

// AdminHandler handles the admin surface: invitations, profile moderation
// and the alumni registry.
type AdminHandler struct {
	invitationService *service.InvitationService
	profileService    *service.ProfileService
	alumniService     *service.AlumniService
	authService       *service.AuthService
	collector         *metrics.Collector
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(invitationService *service.InvitationService, profileService *service.ProfileService, alumniService *service.AlumniService, authService *service.AuthService, collector *metrics.Collector) *AdminHandler {
	return &AdminHandler{
		invitationService: invitationService,
		profileService:    profileService,
		alumniService:     alumniService,
		authService:       authService,
		collector:         collector,
	}
}

type invitationResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	InviterName string     `json:"inviter_name,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}

func newInvitationResponse(inv *models.Invitation) invitationResponse {
	return invitationResponse{
		ID:          inv.ID,
		Email:       inv.Email,
		InviterName: inv.InviterName,
		IssuedAt:    inv.IssuedAt,
		ExpiresAt:   inv.ExpiresAt,
		UsedAt:      inv.UsedAt,
	}
}

// Invite issues an invitation, replacing any earlier one for the email. The
// token is returned so an admin can pass the link along manually when mail
// delivery is not an option.
func (h *AdminHandler) Invite(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	inv, token, err := h.invitationService.Invite(r.Context(), req.Email, account.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.collector.RecordInvitationIssued()

	resp := struct {
		invitationResponse
		Token string `json:"token"`
	}{newInvitationResponse(inv), token}
	respondJSON(w, http.StatusCreated, resp)
}

// ListInvitations returns every invitation, newest first
func (h *AdminHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitationService.ListInvitations()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load invitations", "ListInvitations failed", err)
		return
	}

	out := make([]invitationResponse, 0, len(invitations))
	for i := range invitations {
		out = append(out, newInvitationResponse(&invitations[i]))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"invitations": out})
}

// ResetInvitation deletes the invitations for an email so a fresh one can be
// issued. Account and profile state stay untouched.
func (h *AdminHandler) ResetInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	if err := h.invitationService.Reset(req.Email); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to reset invitation", "Reset failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BlockProfile forces a profile into the blocked state
func (h *AdminHandler) BlockProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id", "", nil)
		return
	}

	p, err := h.profileService.AdminBlockProfile(profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newProfileResponse(p))
}

// RevokeConsent withdraws a previously granted parental consent
func (h *AdminHandler) RevokeConsent(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r)

	profileID, ok := profileIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id", "", nil)
		return
	}

	p, err := h.profileService.RevokeParentalConsent(profileID, account.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.collector.RecordConsentEvent(string(models.ConsentRevoked))
	respondJSON(w, http.StatusOK, newProfileResponse(p))
}

// DeactivateAccount soft-disables an account; its sessions stop resolving
func (h *AdminHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid account id", "", nil)
		return
	}

	if err := h.authService.DeactivateAccount(models.AccountID(id)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchAlumni runs a paged registry search
func (h *AdminHandler) SearchAlumni(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	records, total, err := h.alumniService.Search(q.Get("search"), offset, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to search alumni", "Alumni search failed", err)
		return
	}

	type alumniEntry struct {
		ID              models.AlumniRecordID `json:"id"`
		Email           string                `json:"email"`
		FirstName       string                `json:"first_name"`
		LastName        string                `json:"last_name"`
		GraduationBatch string                `json:"graduation_batch,omitempty"`
	}
	out := make([]alumniEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, alumniEntry{
			ID:              rec.ID,
			Email:           rec.Email,
			FirstName:       rec.FirstName,
			LastName:        rec.LastName,
			GraduationBatch: rec.GraduationBatch,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"records": out, "total": total})
}

// ExportAlumni streams the registry as a CSV download
func (h *AdminHandler) ExportAlumni(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="alumni_records.csv"`)
	if err := h.alumniService.ExportCSV(w); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("Alumni export failed: %v", err)
	}
}
