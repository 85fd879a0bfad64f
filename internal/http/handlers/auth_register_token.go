/*
auth_register_token.go — Token provisional de bootstrap

	POST /v1/auth/register-token

Emite un token de vida corta para arrancar una organización nueva:
organizationId vacío, permisos fijos {accounts:create,
organizations:create}. Con él se puede crear exactamente la primera
cuenta de la organización (el create lo valida contra el conteo).
*/
package handlers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
)

type registerTokenRequest struct {
	Email string `json:"email"`
}

func NewRegisterTokenHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerTokenRequest
		if !readStrictJSON(w, r, &req) {
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" {
			httpx.WriteValidationError(w, httpx.FieldError{Field: "email", Error: "required"})
			return
		}

		tok, err := c.Issuer.IssueProvisional(jwtx.ProvisionalClaims{Subject: req.Email})
		if err != nil {
			logger.From(r.Context()).Error("register token issue failed",
				logger.Component("handler"), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		metrics.IncTokenIssued("provisional")
		httpx.WriteSuccess(w, http.StatusOK, "Register token issued.", newTokenResult(tok))
	}
}
