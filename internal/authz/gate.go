// Package authz evalúa permisos sobre un token ya verificado.
// La composición es del caller: primero Verifier.Verify, después Authorize.
// Este paquete nunca toca el verificador.
package authz

import (
	"strings"

	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
)

// Denied indica permisos faltantes. Missing preserva el orden de la lista
// requerida (no el orden de iteración de un set) para mensajes
// determinísticos y testeables.
type Denied struct {
	Missing []string
}

func (d *Denied) Error() string {
	return "Missing required permission(s): " + strings.Join(d.Missing, ", ")
}

// Authorize calcula required − held. Vacío ⇒ nil; si falta algo, *Denied con
// el subset exacto. Asume que decoded ya pasó la verificación de firma.
func Authorize(decoded *jwtx.DecodedToken, required []string) error {
	if len(required) == 0 {
		return nil
	}
	held := make(map[string]struct{}, len(decoded.Permissions))
	for _, p := range decoded.Permissions {
		held[p] = struct{}{}
	}
	var missing []string
	for _, p := range required {
		if _, ok := held[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &Denied{Missing: missing}
	}
	return nil
}
