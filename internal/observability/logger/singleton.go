package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger singleton con la configuración dada.
// Es idempotente: solo la primera llamada tiene efecto.
// Debe llamarse al inicio de la aplicación (main.go).
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea un logger por defecto (dev, info).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Sync hace flush de los buffers pendientes. Llamar en defer desde main.
func Sync() {
	if instance != nil {
		_ = instance.Sync()
	}
}

// SetForTesting reemplaza el singleton (solo para tests).
func SetForTesting(l *zap.Logger) {
	once.Do(func() {})
	instance = l
}
