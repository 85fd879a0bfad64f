// json.go — parser estricto de request bodies (no es un handler).
//
// Política: Content-Type application/json obligatorio, body limitado a
// 64KB, campos desconocidos rechazados (fail-fast ante payloads
// inesperados o typos del cliente).
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httpx "github.com/dropDatabas3/littlejohn/internal/http"
)

// readStrictJSON decodifica el body en dst. Si algo falla escribe la
// respuesta de error y devuelve false.
func readStrictJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(ct, "application/json") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return false
	}

	// No debe haber datos extra después del objeto.
	if dec.More() {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// bearerToken extrae el JWT crudo del header Authorization ("" si no hay).
// Los handlers lo reenvían al directorio tal cual lo recibieron.
func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimSpace(ah[len("Bearer "):])
	}
	return ""
}
