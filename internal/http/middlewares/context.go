package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
)

type requestIDKey struct{}
type tokenKey struct{}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// GetRequestID devuelve el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithToken inyecta el token verificado en el contexto.
// Solo RequireAuth debería llamarlo: aguas abajo, un token en el contexto
// implica verificación exitosa.
func WithToken(ctx context.Context, t *jwtx.DecodedToken) context.Context {
	return context.WithValue(ctx, tokenKey{}, t)
}

// GetToken extrae el token verificado (nil si el request no está
// autenticado).
func GetToken(ctx context.Context) *jwtx.DecodedToken {
	if v, ok := ctx.Value(tokenKey{}).(*jwtx.DecodedToken); ok {
		return v
	}
	return nil
}
