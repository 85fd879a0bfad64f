/*
auth_login.go — Login password + emisión del token de sesión

	POST /v1/auth/login

Recibe {email, password, organizationId} y, si valida:
- Busca la cuenta por (organizationId, email) en el store
- Chequea el password hash (bcrypt)
- Resuelve el snapshot rol/permisos (con cache TTL)
- Emite el JWT RS256 de sesión

Errores:
- 400 campos faltantes
- 401 credenciales inválidas (email desconocido y password incorrecto
  son indistinguibles a propósito)
- 500 fallas de store/emisión
*/
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/account"
	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
)

type loginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organizationId"`
}

// tokenResult es el shape mínimo de respuesta: los claims van adentro
// del JWT, el cliente los decodifica.
type tokenResult struct {
	TokenType string `json:"tokenType"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

func newTokenResult(t jwtx.Token) tokenResult {
	return tokenResult{TokenType: t.Type, Token: t.Value, ExpiresAt: t.ExpiresAtRFC3339()}
}

func NewAuthLoginHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !readStrictJSON(w, r, &req) {
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.OrganizationID = strings.TrimSpace(req.OrganizationID)

		var errs []httpx.FieldError
		if req.Email == "" {
			errs = append(errs, httpx.FieldError{Field: "email", Error: "required"})
		}
		if req.Password == "" {
			errs = append(errs, httpx.FieldError{Field: "password", Error: "required"})
		}
		if req.OrganizationID == "" {
			errs = append(errs, httpx.FieldError{Field: "organizationId", Error: "required"})
		}
		if len(errs) > 0 {
			httpx.WriteValidationError(w, errs...)
			return
		}

		tok, err := c.Authn.Login(r.Context(), req.OrganizationID, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				metrics.IncLogin("invalid_credentials")
				httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials.")
				return
			}
			metrics.IncLogin("error")
			logger.From(r.Context()).Error("login failed",
				logger.Component("handler"), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		metrics.IncLogin("ok")
		metrics.IncTokenIssued("session")
		httpx.WriteSuccess(w, http.StatusOK, "Token issued.", newTokenResult(tok))
	}
}
