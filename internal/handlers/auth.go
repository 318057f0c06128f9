package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/factures-api/auth"
	"github.com/diewo77/factures-api/httpx"
	"github.com/diewo77/factures-api/internal/services"
	"github.com/diewo77/factures-api/validation"
)

// Message codes, translated by the i18n package.
const (
	msgRegistered         = "registered"
	msgEmailTaken         = "email_taken"
	msgInvalidData        = "invalid_data"
	msgInvalidCredentials = "invalid_credentials"
	msgInternal           = "internal_error"
)

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Nom        string `json:"nom"`
	Entreprise string `json:"entreprise"`
}

func (req registerRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.MaxLength("email", req.Email, 255, v)
	validation.Required("password", req.Password, v)
	// bcrypt reads at most 72 bytes
	if len(req.Password) > 72 {
		v["password"] = "too_long"
	}
	validation.Required("nom", req.Nom, v)
	validation.MaxLength("nom", req.Nom, 100, v)
	validation.Required("entreprise", req.Entreprise, v)
	validation.MaxLength("entreprise", req.Entreprise, 255, v)
	return v
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenService
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register: POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.LocalizedError(w, r, http.StatusBadRequest, msgInvalidData, nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.LocalizedError(w, r, http.StatusBadRequest, msgInvalidData, v)
		return
	}

	id, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Nom,
		Organization: req.Entreprise,
	})
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		httpx.Localized(w, r, http.StatusConflict, msgEmailTaken)
		return
	case err != nil:
		slog.Error("register failed", "error", err)
		httpx.Localized(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	slog.Info("user registered", "user_id", id)
	httpx.Localized(w, r, http.StatusCreated, msgRegistered)
}

// Login: POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.LocalizedError(w, r, http.StatusBadRequest, msgInvalidData, nil)
		return
	}
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.LocalizedError(w, r, http.StatusBadRequest, msgInvalidData, v)
		return
	}

	id, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.Localized(w, r, http.StatusUnauthorized, msgInvalidCredentials)
		return
	case err != nil:
		slog.Error("login failed", "error", err)
		httpx.Localized(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	token, err := h.tokens.Issue(id)
	if err != nil {
		slog.Error("issue token failed", "user_id", id, "error", err)
		httpx.Localized(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}
