package middlewares

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/authz"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
)

// =================================================================================
// AUTHENTICATION / AUTHORIZATION MIDDLEWARES
// =================================================================================

// RequireAuth valida Authorization: Bearer <JWT> y guarda el token
// decodificado en el contexto. Header ausente ⇒ no autenticado; prefijo
// malformado ⇒ rechazado ANTES de intentar verificar. El kind del fallo se
// loguea pero no se expone verbatim al cliente.
func RequireAuth(verifier *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			if !strings.HasPrefix(ah, "Bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format. Expected 'Bearer <token>'")
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Token is required")
				return
			}

			decoded, err := verifier.Verify(raw)
			if err != nil {
				msg := "Invalid token"
				if ve := jwtx.AsVerification(err); ve != nil {
					metrics.IncTokenReject(ve.Kind.String())
					logger.From(r.Context()).Info("token rejected",
						logger.Component("middleware"),
						logger.Op(ve.Kind.String()),
					)
					if ve.Kind == jwtx.KindExpired {
						msg = "Token has expired"
					}
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), decoded)))
		})
	}
}

// RequirePermissions chequea el set requerido contra el token ya
// autenticado. Debe usarse después de RequireAuth. 403 con el subset
// faltante exacto, preservando el orden de la lista requerida.
func RequirePermissions(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decoded := GetToken(r.Context())
			if decoded == nil {
				writeError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			if err := authz.Authorize(decoded, required); err != nil {
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError: envelope mínimo local para no importar el package http padre
// (evita el ciclo routes→middlewares→routes).
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"code":    code,
		"message": message,
		"data":    nil,
		"errors":  nil,
		"meta":    nil,
	})
}
