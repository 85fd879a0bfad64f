// Package password: hashing one-way con salt por llamada (bcrypt).
// Dos hashes del mismo plaintext nunca coinciden; ambos verifican.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost por defecto de bcrypt. Subirlo es un deploy, no una migración:
// los hashes viejos siguen verificando con su cost embebido.
const Cost = bcrypt.DefaultCost

// Hash genera un hash bcrypt con salt fresco. bcrypt solo mira los primeros
// 72 bytes; truncamos explícito para no fallar con passwords largos.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}
	b := []byte(plain)
	if len(b) > 72 {
		b = b[:72]
	}
	h, err := bcrypt.GenerateFromPassword(b, Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify compara plaintext contra un hash almacenado.
func Verify(plain, hash string) bool {
	b := []byte(plain)
	if len(b) > 72 {
		b = b[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), b) == nil
}
