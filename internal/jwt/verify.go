package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Verifier valida tokens contra las públicas del keystore. Sin side effects:
// función pura de (token, reloj, claves).
type Verifier struct {
	Iss  string
	Aud  string
	Keys *Keystore

	// now permite congelar el reloj en tests. Nil ⇒ time.Now.
	now func() time.Time
}

func NewVerifier(iss, aud string, ks *Keystore) *Verifier {
	return &Verifier{Iss: iss, Aud: aud, Keys: ks}
}

// WithClock fija el reloj (tests).
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) clock() time.Time {
	if v.now != nil {
		return v.now()
	}
	return time.Now()
}

// Verify valida en orden: kid→clave, firma, exp, iss, aud, claims
// requeridas. Cada paso es terminal con su kind; el primero que falla corta.
//
// La firma se chequea sobre el signing string crudo, ANTES de decodificar el
// payload: cualquier byte alterado del payload reporta BadSignature, nunca
// MalformedClaims. MalformedClaims queda para tokens sin estructura JWT o
// con claims requeridas ausentes.
func (v *Verifier) Verify(raw string) (*DecodedToken, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, &VerificationError{Kind: KindMalformedClaims}
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, &VerificationError{Kind: KindMalformedClaims, err: err}
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, &VerificationError{Kind: KindMalformedClaims, err: err}
	}

	if header.Kid == "" {
		return nil, &VerificationError{Kind: KindUnknownKey}
	}
	pub, err := v.Keys.PublicKeyByKID(header.Kid)
	if err != nil {
		if ve := AsVerification(err); ve != nil {
			return nil, ve
		}
		// el keystore no pudo cargar material: no hay con qué verificar
		return nil, &VerificationError{Kind: KindUnknownKey, err: err}
	}

	// Solo RS256; un alg ajeno equivale a una firma que no podemos validar.
	if header.Alg != "RS256" {
		return nil, &VerificationError{Kind: KindBadSignature}
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, &VerificationError{Kind: KindBadSignature, err: err}
	}
	if err := jwtv5.SigningMethodRS256.Verify(parts[0]+"."+parts[1], sig, pub); err != nil {
		return nil, &VerificationError{Kind: KindBadSignature, err: err}
	}

	// Firma OK: recién acá se mira el contenido.
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, &VerificationError{Kind: KindMalformedClaims, err: err}
	}
	claims := jwtv5.MapClaims{}
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, &VerificationError{Kind: KindMalformedClaims, err: err}
	}

	// exp > now (solo cuando exp está presente; la presencia se exige más
	// abajo con el resto de las requeridas).
	expAt, hasExp := claimUnix(claims, "exp")
	if hasExp && !expAt.After(v.clock()) {
		return nil, &VerificationError{Kind: KindExpired}
	}

	// iss y aud: igualdad exacta, sin comodines ni subsets.
	if claimString(claims, "iss") != v.Iss {
		return nil, &VerificationError{Kind: KindBadIssuer}
	}
	if claimString(claims, "aud") != v.Aud {
		return nil, &VerificationError{Kind: KindBadAudience}
	}

	sub := claimString(claims, "sub")
	jti := claimString(claims, "jti")
	iatAt, hasIat := claimUnix(claims, "iat")
	if sub == "" || jti == "" || !hasIat || !hasExp {
		return nil, &VerificationError{Kind: KindMalformedClaims}
	}

	// organizationId/roles/permissions defaultean a vacío: los tokens de
	// registro viajan sin org y tienen que poder round-trippear.
	return &DecodedToken{
		Subject:     sub,
		OrgID:       claimString(claims, "organizationId"),
		Issuer:      v.Iss,
		Audience:    v.Aud,
		IssuedAt:    iatAt,
		ExpiresAt:   expAt,
		TokenID:     jti,
		Roles:       claimStrings(claims, "roles"),
		Permissions: claimStrings(claims, "permissions"),
	}, nil
}

// ---- helpers de extracción ----

func claimString(c jwtv5.MapClaims, key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case []any:
		// aud puede venir como lista de un elemento; más de uno no es
		// igualdad exacta.
		if len(v) == 1 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func claimUnix(c jwtv5.MapClaims, key string) (time.Time, bool) {
	switch v := c[key].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	}
	return time.Time{}, false
}

func claimStrings(c jwtv5.MapClaims, key string) []string {
	out := []string{}
	if list, ok := c[key].([]any); ok {
		for _, it := range list {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
