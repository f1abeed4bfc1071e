package controllers

import (
	"net/http"

	"github.com/boiler360/storefront-backend/api/middleware"
	"github.com/boiler360/storefront-backend/api/responses"
	"github.com/boiler360/storefront-backend/api/validators"
	"github.com/boiler360/storefront-backend/internal/identity"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/boiler360/storefront-backend/pkg/types"
)

type registerRequest struct {
	Username string        `json:"username" validate:"required,min=3,max=64"`
	Password string        `json:"password" validate:"required,min=8,max=128"`
	Email    *string       `json:"email" validate:"omitempty,email"`
	Place    types.JSONMap `json:"place"`
}

// AuthRegister creates a local credentialed account.
func AuthRegister(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Register(r.Context(), identity.RegisterInput{
			Username: validators.SanitizeString(payload.Username, 64),
			Password: payload.Password,
			Email:    validators.SanitizeOptional(payload.Email, 254),
			Place:    payload.Place,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAccountResponse(account))
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthLogin exchanges local credentials for an access token.
func AuthLogin(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Authenticate(r.Context(), payload.Username, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, authResponse{
			Token:   result.Token,
			Account: newAccountResponse(result.Account),
		})
	}
}

// AuthGitHubCallback completes the provider redirect and signs the caller in.
func AuthGitHubCallback(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code query parameter is required"))
			return
		}

		result, err := svc.AuthenticateExternal(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, authResponse{
			Token:   result.Token,
			Account: newAccountResponse(result.Account),
		})
	}
}

// AuthMe returns the account behind the presented token.
func AuthMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		account, err := svc.GetAccount(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountResponse(account))
	}
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// AuthUpdatePassword rotates the caller's local credential.
func AuthUpdatePassword(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updatePasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		if err := svc.UpdatePassword(r.Context(), accountID, payload.CurrentPassword, payload.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
