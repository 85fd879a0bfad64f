/*
accounts.go — Alta, consulta, modificación y baja de cuentas

	POST   /v1/accounts          (perm: accounts:create)
	GET    /v1/accounts/{email}  (perm: accounts:read)
	PATCH  /v1/accounts/{email}  (perm: accounts:update)
	DELETE /v1/accounts/{email}  (perm: accounts:delete)

El organizationId sale del token. Excepción: un token provisional
(org vacía) puede crear SOLO la primera cuenta de una organización, y en
ese caso la org viene en el body. El alta y la baja corren el protocolo
del coordinator contra el directorio (ver internal/account).
*/
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/littlejohn/internal/account"
	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/http/middlewares"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/security/password"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

type accountCreateRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	EntityID       string `json:"entityId"`
	RoleID         string `json:"roleId"`
	OrganizationID string `json:"organizationId"` // solo flujo provisional
}

type accountResponse struct {
	Email          string `json:"email"`
	EntityID       string `json:"entityId"`
	OrganizationID string `json:"organizationId"`
	RoleID         string `json:"roleId"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func newAccountResponse(a *core.Account) accountResponse {
	return accountResponse{
		Email:          a.Email,
		EntityID:       a.EntityID,
		OrganizationID: a.OrgID,
		RoleID:         a.RoleID,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func NewAccountCreateHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := middlewares.GetToken(r.Context())
		if tok == nil {
			httpx.WriteError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		var req accountCreateRequest
		if !readStrictJSON(w, r, &req) {
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var errs []httpx.FieldError
		if req.Email == "" {
			errs = append(errs, httpx.FieldError{Field: "email", Error: "required"})
		}
		if len(req.Password) < 8 {
			errs = append(errs, httpx.FieldError{Field: "password", Error: "must be at least 8 characters"})
		}
		if req.EntityID == "" {
			errs = append(errs, httpx.FieldError{Field: "entityId", Error: "required"})
		}
		if req.RoleID == "" {
			errs = append(errs, httpx.FieldError{Field: "roleId", Error: "required"})
		}
		if len(errs) > 0 {
			httpx.WriteValidationError(w, errs...)
			return
		}

		// Resolución de la organización: token primero, body solo para el
		// flujo provisional (primera cuenta).
		orgID := tok.OrgID
		if !tok.HasOrg() {
			orgID = strings.TrimSpace(req.OrganizationID)
			if orgID == "" {
				httpx.WriteValidationError(w, httpx.FieldError{Field: "organizationId", Error: "required with register token"})
				return
			}
			n, err := c.Store.CountAccountsByOrg(r.Context(), orgID)
			if err != nil {
				logger.From(r.Context()).Error("account count failed",
					logger.Component("handler"), logger.OrgID(orgID), logger.Err(err))
				httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if n > 0 {
				httpx.WriteError(w, http.StatusForbidden,
					"Register token can only be used to create the first account. Organization already has accounts.")
				return
			}
		}

		if _, err := c.Store.GetRole(r.Context(), req.RoleID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				httpx.WriteValidationError(w, httpx.FieldError{Field: "roleId", Error: "Role not found"})
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		acc, err := c.Lifecycle.Create(r.Context(), core.AccountDraft{
			Email:    req.Email,
			EntityID: req.EntityID,
			OrgID:    orgID,
			Password: req.Password,
			RoleID:   req.RoleID,
		}, bearerToken(r))
		if err != nil {
			switch {
			case errors.Is(err, account.ErrDependencyUnavailable):
				httpx.WriteError(w, http.StatusServiceUnavailable, "Directory service unavailable, account not created")
			case errors.Is(err, core.ErrConflict):
				httpx.WriteError(w, http.StatusConflict, "Account with this email already exists")
			default:
				logger.From(r.Context()).Error("account create failed",
					logger.Component("handler"), logger.OrgID(orgID), logger.Err(err))
				httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		httpx.WriteSuccess(w, http.StatusCreated, "Account created successfully", newAccountResponse(acc))
	}
}

func NewAccountGetHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := middlewares.GetToken(r.Context())
		if tok == nil || !tok.HasOrg() {
			httpx.WriteError(w, http.StatusForbidden, "Organization context required")
			return
		}

		email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
		acc, err := c.Store.GetAccountByEmail(r.Context(), tok.OrgID, email)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "Account not found")
				return
			}
			logger.From(r.Context()).Error("account lookup failed",
				logger.Component("handler"), logger.OrgID(tok.OrgID), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, "Account retrieved successfully", newAccountResponse(acc))
	}
}

type accountUpdateRequest struct {
	Password string `json:"password"`
	RoleID   string `json:"roleId"`
}

// NewAccountUpdateHandler: update parcial (password y/o rol). No toca el
// directorio: hasAccount no cambia con un update.
func NewAccountUpdateHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := middlewares.GetToken(r.Context())
		if tok == nil || !tok.HasOrg() {
			httpx.WriteError(w, http.StatusForbidden, "Organization context required")
			return
		}

		var req accountUpdateRequest
		if !readStrictJSON(w, r, &req) {
			return
		}
		if req.Password == "" && req.RoleID == "" {
			httpx.WriteValidationError(w, httpx.FieldError{Field: "body", Error: "at least one of password, roleId is required"})
			return
		}
		if req.Password != "" && len(req.Password) < 8 {
			httpx.WriteValidationError(w, httpx.FieldError{Field: "password", Error: "must be at least 8 characters"})
			return
		}

		if req.RoleID != "" {
			if _, err := c.Store.GetRole(r.Context(), req.RoleID); err != nil {
				if errors.Is(err, core.ErrNotFound) {
					httpx.WriteValidationError(w, httpx.FieldError{Field: "roleId", Error: "Role not found"})
					return
				}
				httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		var ch core.AccountChanges
		ch.RoleID = req.RoleID
		if req.Password != "" {
			hash, err := password.Hash(req.Password)
			if err != nil {
				logger.From(r.Context()).Error("password hash failed",
					logger.Component("handler"), logger.OrgID(tok.OrgID), logger.Err(err))
				httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			ch.PasswordHash = hash
		}

		email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
		acc, err := c.Store.UpdateAccount(r.Context(), tok.OrgID, email, ch)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "Account not found")
				return
			}
			logger.From(r.Context()).Error("account update failed",
				logger.Component("handler"), logger.OrgID(tok.OrgID), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, "Account updated successfully", newAccountResponse(acc))
	}
}

func NewAccountDeleteHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := middlewares.GetToken(r.Context())
		if tok == nil || !tok.HasOrg() {
			httpx.WriteError(w, http.StatusForbidden, "Organization context required")
			return
		}

		email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
		if err := c.Lifecycle.Delete(r.Context(), tok.OrgID, email, bearerToken(r)); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "Account not found")
				return
			}
			logger.From(r.Context()).Error("account delete failed",
				logger.Component("handler"), logger.OrgID(tok.OrgID), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, "Account deleted successfully", nil)
	}
}
