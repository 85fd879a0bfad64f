/*
jwks.go — Publicación de llaves públicas

	GET /v1/auth/jwks
	GET /.well-known/jwks.json (alias)

Expone el JWKS para que los resource servers verifiquen firmas RS256.
Solo material público; el cliente cachea por kid y refresca ante un kid
desconocido. Soporta HEAD para discovery barato.
*/
package handlers

import (
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
)

func NewJWKSHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := c.Keys.JWKSJSON()
		if err != nil {
			logger.From(r.Context()).Error("jwks unavailable",
				logger.Component("handler"), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		// no-store: ante rotación de llaves no queremos caches intermedias
		// sirviendo un set viejo.
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
