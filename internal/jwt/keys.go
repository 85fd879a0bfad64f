package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrKeyLoad envuelve cualquier fallo al decodificar el material de clave.
// Sin clave válida no hay servicio: el main debe tratarlo como fatal.
var ErrKeyLoad = errors.New("key_load_failed")

// KeySet mantiene el par RSA activo. Inmutable una vez cargado: la rotación
// es un deploy con nuevo KID, no una mutación en caliente.
type KeySet struct {
	Priv *rsa.PrivateKey
	Pub  *rsa.PublicKey
	KID  string
	Alg  string // "RS256"
}

// ParseRSAKeyPair decodifica un par de claves PEM codificadas en base64
// (formato del .env del servicio). Acepta PKCS#8 o PKCS#1 para la privada
// y PKIX o PKCS#1 para la pública.
func ParseRSAKeyPair(privB64, pubB64, kid, alg string) (*KeySet, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: kid vacío", ErrKeyLoad)
	}
	priv, err := parsePrivatePEM(privB64)
	if err != nil {
		return nil, fmt.Errorf("%w: private: %v", ErrKeyLoad, err)
	}
	pub, err := parsePublicPEM(pubB64)
	if err != nil {
		return nil, fmt.Errorf("%w: public: %v", ErrKeyLoad, err)
	}
	if alg == "" {
		alg = "RS256"
	}
	return &KeySet{Priv: priv, Pub: pub, KID: kid, Alg: alg}, nil
}

func decodePEMBlock(b64 string) (*pem.Block, error) {
	if b64 == "" {
		return nil, errors.New("material vacío")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("base64: %v", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("PEM inválido")
	}
	return block, nil
}

func parsePrivatePEM(b64 string) (*rsa.PrivateKey, error) {
	block, err := decodePEMBlock(b64)
	if err != nil {
		return nil, err
	}
	if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("la clave no es RSA")
		}
		return rk, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func parsePublicPEM(b64 string) (*rsa.PublicKey, error) {
	block, err := decodePEMBlock(b64)
	if err != nil {
		return nil, err
	}
	if k, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("la clave no es RSA")
		}
		return rk, nil
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}
