package handlers

import (
	"encoding/json"
	"net/http"

	"alumnihub/internal/metrics"
	"alumnihub/internal/models"
	"alumnihub/internal/service"
)

// RegistrationHandler handles invitation preview and registration completion
type RegistrationHandler struct {
	registrationService *service.RegistrationService
	collector           *metrics.Collector
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationService *service.RegistrationService, collector *metrics.Collector) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService, collector: collector}
}

type candidateResponse struct {
	ID              models.AlumniRecordID `json:"id"`
	FirstName       string                `json:"first_name"`
	LastName        string                `json:"last_name"`
	GraduationBatch string                `json:"graduation_batch,omitempty"`
}

// Preview verifies the invitation token and lists the alumni candidates the
// registrant can turn into profiles.
func (h *RegistrationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing invitation token", "", nil)
		return
	}

	preview, err := h.registrationService.PreviewInvitation(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	candidates := make([]candidateResponse, 0, len(preview.Candidates))
	for _, c := range preview.Candidates {
		candidates = append(candidates, candidateResponse{
			ID:              c.ID,
			FirstName:       c.FirstName,
			LastName:        c.LastName,
			GraduationBatch: c.GraduationBatch,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"email":      preview.Email,
		"candidates": candidates,
	})
}

// Complete creates the account with its selected family profiles
func (h *RegistrationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
		Members  []struct {
			AlumniRecordID *models.AlumniRecordID `json:"alumni_record_id"`
			FirstName      string                 `json:"first_name"`
			LastName       string                 `json:"last_name"`
			DisplayName    string                 `json:"display_name"`
			Relationship   models.Relationship    `json:"relationship"`
			YearOfBirth    *int                   `json:"year_of_birth"`
		} `json:"members"`
		PrimaryIndex int `json:"primary_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	in := service.RegistrationInput{
		Token:        req.Token,
		Password:     req.Password,
		PrimaryIndex: req.PrimaryIndex,
	}
	for _, m := range req.Members {
		in.Members = append(in.Members, service.RegistrationMember{
			AlumniRecordID: m.AlumniRecordID,
			FirstName:      m.FirstName,
			LastName:       m.LastName,
			DisplayName:    m.DisplayName,
			Relationship:   m.Relationship,
			YearOfBirth:    m.YearOfBirth,
		})
	}

	account, err := h.registrationService.CompleteRegistration(in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.collector.RecordRegistration()
	respondJSON(w, http.StatusCreated, newAccountResponse(account))
}
