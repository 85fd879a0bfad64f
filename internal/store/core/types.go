package core

import "time"

// Account es la cuenta local de un empleado dentro de una organización.
// (Email, OrgID) es único; EntityID es la identidad estable cross-service
// y es lo que viaja en el claim "sub" del token.
type Account struct {
	Email        string
	EntityID     string // UUID, empleado en el directorio de Organizations
	OrgID        string // UUID, partición de tenant
	PasswordHash string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountDraft: datos de entrada para crear una cuenta (todavía sin hash).
type AccountDraft struct {
	Email    string
	EntityID string
	OrgID    string
	Password string
	RoleID   string
}

// AccountChanges: campos a modificar en un update parcial. Vacío = sin
// cambios para ese campo.
type AccountChanges struct {
	PasswordHash string
	RoleID       string
}

type Role struct {
	ID   string
	Name string
}

// Permission es un string plano "recurso:acción" (ej: "accounts:read").
type Permission struct {
	ID   string
	Name string
}
