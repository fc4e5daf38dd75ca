package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"alumnihub/internal/metrics"
	"alumnihub/internal/models"
	"alumnihub/internal/security"
	"alumnihub/internal/service"
)

const oauthStateCookieName = "oauth_state"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	collector   *metrics.Collector
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, collector *metrics.Collector) *AuthHandler {
	return &AuthHandler{authService: authService, collector: collector}
}

type accountResponse struct {
	ID               models.AccountID  `json:"id"`
	Email            string            `json:"email"`
	IsAdmin          bool              `json:"is_admin"`
	IsFamilyAccount  bool              `json:"is_family_account"`
	PrimaryProfileID *models.ProfileID `json:"primary_profile_id,omitempty"`
}

func newAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		Email:            a.Email,
		IsAdmin:          a.IsAdmin,
		IsFamilyAccount:  a.IsFamilyAccount,
		PrimaryProfileID: a.PrimaryProfileID,
	}
}

// Login handles password login and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	account, session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.collector.RecordLogin(false)
		respondServiceError(w, err)
		return
	}
	h.collector.RecordLogin(true)

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, newAccountResponse(account))
}

// Logout deletes the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to log out", "Logout failed", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// OAuthBegin redirects to the Google consent page with a state cookie
func (h *AuthHandler) OAuthBegin(w http.ResponseWriter, r *http.Request) {
	if !h.authService.OAuthEnabled() {
		respondWithError(w, http.StatusNotFound, "OAuth sign-in is not configured", "", nil)
		return
	}

	state := uuid.New().String()
	http.SetCookie(w, security.CreateSessionCookie(r, oauthStateCookieName, state, time.Now().Add(10*time.Minute)))
	http.Redirect(w, r, h.authService.OAuthLoginURL(state), http.StatusTemporaryRedirect)
}

// OAuthCallback completes the Google sign-in
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "OAuth state mismatch", "", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookieName))

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	_, session, err := h.authService.HandleOAuthCallback(r.Context(), code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
