// Package cache define el contrato mínimo de cache que usa el core
// (snapshot del grafo rol→permisos en el login). Backends: memory (dev) y
// redis (prod), elegidos por config.
package cache

import "time"

type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
}
