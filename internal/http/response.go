package http

import (
	"encoding/json"
	"net/http"
)

// Envelope estándar de la API: mismo shape para éxito y error, así los
// clientes parsean una sola forma.
type APIResponse struct {
	Status  string `json:"status"` // "success" | "error"
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Errors  any    `json:"errors"`
	Meta    any    `json:"meta"`
}

func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	writeEnvelope(w, APIResponse{Status: "success", Code: code, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, code int, message string) {
	writeEnvelope(w, APIResponse{Status: "error", Code: code, Message: message})
}

// FieldError es un item de la lista "errors" del envelope.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// WriteValidationError: 400 con detalle por campo.
func WriteValidationError(w http.ResponseWriter, errs ...FieldError) {
	writeEnvelope(w, APIResponse{
		Status:  "error",
		Code:    http.StatusBadRequest,
		Message: "Validation error",
		Errors:  errs,
	})
}

// WriteJSON: respuesta JSON cruda. El envelope pasa por acá; también sirve
// para payloads sin envelope.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, resp APIResponse) {
	WriteJSON(w, resp.Code, resp)
}
