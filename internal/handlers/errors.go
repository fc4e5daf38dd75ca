package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"alumnihub/internal/service"
	"alumnihub/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]string{"error": userMsg})
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
// Anything unmapped is an internal error and gets logged with its cause,
// never leaked to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	var vErr validation.Error
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, "Not signed in", "", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		respondWithError(w, http.StatusForbidden, "Account is deactivated", "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "You do not have access to this profile", "", nil)
	case errors.Is(err, service.ErrProfileNotFound):
		respondWithError(w, http.StatusNotFound, "Profile not found", "", nil)
	case errors.Is(err, service.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "No account exists for this identity", "", nil)
	case errors.Is(err, service.ErrConsentNotAllowed):
		respondWithError(w, http.StatusConflict, "Parental consent does not apply to this profile", "", nil)
	case errors.Is(err, service.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "Invitation link is not valid", "", nil)
	case errors.Is(err, service.ErrExpiredToken):
		respondWithError(w, http.StatusGone, "Invitation link has expired", "", nil)
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		respondWithError(w, http.StatusConflict, "Invitation link has already been used", "", nil)
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrAlreadyRegistered):
		respondWithError(w, http.StatusConflict, "An account with this email already exists", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Unhandled service error", err)
	}
}
