package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/diewo77/factures-api/i18n"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse is the body of simple acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

// JSON writes payload encoded as JSON with status. A payload that cannot be
// encoded becomes a 500 so clients never see partial JSON.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "status", status, "error", err)
		status, body = http.StatusInternalServerError, []byte(`{"message":"encode_error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Message: msg, Details: details})
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageResponse{Message: msg})
}

// Localized writes {"message": ...} with code translated for the request's language.
func Localized(w http.ResponseWriter, r *http.Request, status int, code string) {
	Message(w, status, i18n.T(i18n.FromRequest(r), code))
}

// LocalizedError is Localized with validation details.
func LocalizedError(w http.ResponseWriter, r *http.Request, status int, code string, details any) {
	JSONError(w, status, i18n.T(i18n.FromRequest(r), code), details)
}
