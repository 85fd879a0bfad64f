package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Dos clases de token comparten el mismo payload firmado: el de sesión
// (cuenta persistida, org y permisos reales) y el de registro (bootstrap de
// la primera cuenta de una org nueva, sin org todavía). Se modelan como
// variantes explícitas que proyectan a MapClaims, en vez de repartir el
// "organizationId vacío" como discriminante por todo el código.

// SessionClaims es el payload de un token de sesión.
type SessionClaims struct {
	Subject     string // Account.EntityID
	OrgID       string
	Roles       []string
	Permissions []string
}

func (c SessionClaims) project(iss, aud, jti string, iat, exp time.Time) jwtv5.MapClaims {
	return projectClaims(c.Subject, c.OrgID, c.Roles, c.Permissions, iss, aud, jti, iat, exp)
}

// ProvisionalClaims es el payload de un token de registro: org vacía,
// sin roles, permisos fijos de bootstrap. Un consumidor que otorga acceso
// org-scoped DEBE tratar org vacía como "sin tenant", nunca como comodín.
type ProvisionalClaims struct {
	Subject string // hint del caller, no referencia una cuenta persistida
}

// BootstrapPermissions es el set fijo que lleva un token de registro:
// crear la primera cuenta y los recursos iniciales de la organización.
var BootstrapPermissions = []string{"accounts:create", "organizations:create"}

func (c ProvisionalClaims) project(iss, aud, jti string, iat, exp time.Time) jwtv5.MapClaims {
	perms := make([]string, len(BootstrapPermissions))
	copy(perms, BootstrapPermissions)
	return projectClaims(c.Subject, "", []string{}, perms, iss, aud, jti, iat, exp)
}

func projectClaims(sub, org string, roles, perms []string, iss, aud, jti string, iat, exp time.Time) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"sub":            sub,
		"organizationId": org,
		"iss":            iss,
		"aud":            aud,
		"iat":            iat.Unix(),
		"exp":            exp.Unix(),
		"jti":            jti,
		"roles":          roles,
		"permissions":    perms,
	}
}

// DecodedToken es la proyección verificada y confiable de las claims.
// Solo lo produce Verifier.Verify; nunca se construye desde input crudo.
type DecodedToken struct {
	Subject     string
	OrgID       string // "" en tokens de registro
	Issuer      string
	Audience    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	TokenID     string
	Roles       []string
	Permissions []string
}

// HasOrg reporta si el token está atado a un tenant.
func (d *DecodedToken) HasOrg() bool {
	return d.OrgID != ""
}
