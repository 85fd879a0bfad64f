package jwt

import (
	"crypto/rsa"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Keystore memoiza el KeySet por la vida del proceso. La primera carga pasa
// por singleflight: N requests simultáneos convergen en UN solo decode; el
// resto lee el cache sin bloquear.
type Keystore struct {
	load func() (*KeySet, error)

	mu sync.RWMutex
	ks *KeySet

	group singleflight.Group
}

// NewKeystore recibe la función de carga (normalmente un closure sobre la
// config). No decodifica nada hasta el primer uso.
func NewKeystore(load func() (*KeySet, error)) *Keystore {
	return &Keystore{load: load}
}

// Active devuelve el KeySet cargado, cargándolo la primera vez.
// La primera carga exitosa gana; los errores NO se memoizan, así un arranque
// con material corregido por env puede reintentar.
func (k *Keystore) Active() (*KeySet, error) {
	k.mu.RLock()
	if k.ks != nil {
		defer k.mu.RUnlock()
		return k.ks, nil
	}
	k.mu.RUnlock()

	v, err, _ := k.group.Do("load", func() (any, error) {
		k.mu.RLock()
		if k.ks != nil {
			defer k.mu.RUnlock()
			return k.ks, nil
		}
		k.mu.RUnlock()

		ks, err := k.load()
		if err != nil {
			return nil, err
		}
		k.mu.Lock()
		k.ks = ks
		k.mu.Unlock()
		return ks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeySet), nil
}

// PublicKeyByKID resuelve la pública para un kid. Una sola clave activa por
// proceso: kid desconocido ⇒ no hay con qué verificar.
func (k *Keystore) PublicKeyByKID(kid string) (*rsa.PublicKey, error) {
	ks, err := k.Active()
	if err != nil {
		return nil, err
	}
	if kid != ks.KID {
		return nil, &VerificationError{Kind: KindUnknownKey}
	}
	return ks.Pub, nil
}
