package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Owujuah/Finatera/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// statusFor maps a domain error to its HTTP status and the message shown to the user.
// Unrecognized errors never leak their text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrAmount):
		return http.StatusBadRequest, models.ErrAmount.Error()
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, models.ErrInsufficientFunds.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, models.ErrInvalidCredentials.Error()
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized, models.ErrAuthentication.Error()
	case errors.Is(err, models.ErrDuplicateEmail):
		return http.StatusConflict, models.ErrDuplicateEmail.Error()
	case errors.Is(err, models.ErrTooManyLoginAttempts):
		return http.StatusTooManyRequests, models.ErrTooManyLoginAttempts.Error()
	case errors.Is(err, models.ErrTransferFailed):
		return http.StatusInternalServerError, models.ErrTransferFailed.Error()
	case errors.Is(err, models.ErrPersistence):
		return http.StatusInternalServerError, models.ErrPersistence.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	writeJSON(w, code, errorResponse{Error: msg})
}
