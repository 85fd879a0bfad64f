// readyz.go — readiness probe: base alcanzable + material de firma cargado.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/app"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
)

func NewReadyzHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := c.Store.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("readyz: store unreachable", logger.Err(err))
			httpx.WriteError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
		if _, err := c.Keys.Active(); err != nil {
			logger.From(r.Context()).Warn("readyz: signing keys unavailable", logger.Err(err))
			httpx.WriteError(w, http.StatusServiceUnavailable, "signing keys unavailable")
			return
		}

		httpx.WriteSuccess(w, http.StatusOK, "ready", nil)
	}
}
