package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrIssue envuelve fallos de firma. El único origen real es el keystore;
// nunca incluye material de clave en el mensaje.
var ErrIssue = errors.New("token_issue_failed")

// Token es el resultado listo para el wire.
type Token struct {
	Value     string
	Type      string // siempre "Bearer"
	ExpiresAt time.Time
}

// ExpiresAtRFC3339 formatea la expiración como la espera el cliente.
func (t Token) ExpiresAtRFC3339() string {
	return t.ExpiresAt.UTC().Format(time.RFC3339)
}

// Issuer firma tokens con la clave activa del keystore.
type Issuer struct {
	Iss         string
	Aud         string
	Keys        *Keystore
	SessionTTL  time.Duration // largo (días)
	RegisterTTL time.Duration // corto (minutos)

	// now permite congelar el reloj en tests. Nil ⇒ time.Now.
	now func() time.Time
}

func NewIssuer(iss, aud string, ks *Keystore, sessionTTL, registerTTL time.Duration) *Issuer {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	if registerTTL <= 0 {
		registerTTL = 15 * time.Minute
	}
	return &Issuer{Iss: iss, Aud: aud, Keys: ks, SessionTTL: sessionTTL, RegisterTTL: registerTTL}
}

// WithClock fija el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) clock() time.Time {
	if i.now != nil {
		return i.now()
	}
	return time.Now()
}

// IssueSession emite el token de una cuenta persistida. Los permisos son un
// snapshot al momento de emisión: no se re-evalúan por request.
func (i *Issuer) IssueSession(c SessionClaims) (Token, error) {
	return i.sign(c.project, i.SessionTTL)
}

// IssueProvisional emite un token de registro (bootstrap de la primera
// cuenta de una organización nueva). TTL corto, org vacía, permisos fijos.
func (i *Issuer) IssueProvisional(c ProvisionalClaims) (Token, error) {
	return i.sign(c.project, i.RegisterTTL)
}

func (i *Issuer) sign(project func(iss, aud, jti string, iat, exp time.Time) jwtv5.MapClaims, ttl time.Duration) (Token, error) {
	ks, err := i.Keys.Active()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrIssue, err)
	}

	now := i.clock().UTC()
	exp := now.Add(ttl)

	// jti UUIDv7: único y ordenable por tiempo de creación.
	jti, err := uuid.NewV7()
	if err != nil {
		return Token{}, fmt.Errorf("%w: jti: %v", ErrIssue, err)
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, project(i.Iss, i.Aud, jti.String(), now, exp))
	// kid en el header para que el verificador elija la pública correcta
	// tras una rotación.
	tk.Header["kid"] = ks.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(ks.Priv)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrIssue, err)
	}
	return Token{Value: signed, Type: "Bearer", ExpiresAt: exp}, nil
}
