package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/littlejohn/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
)

// RouterDeps recibe los handlers ya construidos (wiring en main) para no
// importar el package handlers desde acá.
type RouterDeps struct {
	Verifier *jwtx.Verifier

	Login         stdhttp.Handler
	RegisterToken stdhttp.Handler
	JWKS          stdhttp.Handler
	AccountCreate stdhttp.Handler
	AccountGet    stdhttp.Handler
	AccountUpdate stdhttp.Handler
	AccountDelete stdhttp.Handler
	Readyz        stdhttp.Handler
	Metrics       stdhttp.Handler // opcional
}

func NewRouter(d RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithMetrics())

	// Públicas
	r.Method(stdhttp.MethodPost, "/v1/auth/login", d.Login)
	r.Method(stdhttp.MethodPost, "/v1/auth/register-token", d.RegisterToken)
	r.Method(stdhttp.MethodGet, "/v1/auth/jwks", d.JWKS)
	r.Method(stdhttp.MethodHead, "/v1/auth/jwks", d.JWKS)
	// Alias estándar para discovery.
	r.Method(stdhttp.MethodGet, "/.well-known/jwks.json", d.JWKS)
	r.Method(stdhttp.MethodHead, "/.well-known/jwks.json", d.JWKS)

	// Salud / operación
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		WriteSuccess(w, stdhttp.StatusOK, "Service is healthy", map[string]any{
			"service": "littlejohn",
			"status":  "operational",
		})
	})
	r.Method(stdhttp.MethodGet, "/readyz", d.Readyz)
	if d.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", d.Metrics)
	}

	// Protegidas: Bearer + permiso puntual por operación.
	r.Route("/v1/accounts", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Verifier))
		r.With(mw.RequirePermissions("accounts:create")).Method(stdhttp.MethodPost, "/", d.AccountCreate)
		r.With(mw.RequirePermissions("accounts:read")).Method(stdhttp.MethodGet, "/{email}", d.AccountGet)
		r.With(mw.RequirePermissions("accounts:update")).Method(stdhttp.MethodPatch, "/{email}", d.AccountUpdate)
		r.With(mw.RequirePermissions("accounts:delete")).Method(stdhttp.MethodDelete, "/{email}", d.AccountDelete)
	})

	return r
}
