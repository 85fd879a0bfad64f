package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
)

// ----- JWKS (serialización) -----

type JWK struct {
	Kty string `json:"kty"` // "RSA"
	Kid string `json:"kid"`
	Use string `json:"use"` // "sig"
	Alg string `json:"alg"` // "RS256"
	N   string `json:"n"`   // base64url(modulus)
	E   string `json:"e"`   // base64url(exponent)
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicKeySet deriva el JWKS de la clave activa. Solo material público;
// determinístico dado el KeySet. Una clave por ahora: el overlap de rotación
// (activa + en retiro) es un punto de extensión, no está implementado.
func (k *Keystore) PublicKeySet() (*JWKS, error) {
	ks, err := k.Active()
	if err != nil {
		return nil, err
	}
	return &JWKS{Keys: []JWK{{
		Kty: "RSA",
		Kid: ks.KID,
		Use: "sig",
		Alg: ks.Alg,
		N:   base64.RawURLEncoding.EncodeToString(ks.Pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(ks.Pub.E)).Bytes()),
	}}}, nil
}

// JWKSJSON devuelve el JWKS serializado (para el endpoint público).
func (k *Keystore) JWKSJSON() ([]byte, error) {
	set, err := k.PublicKeySet()
	if err != nil {
		return nil, err
	}
	return json.Marshal(set)
}
