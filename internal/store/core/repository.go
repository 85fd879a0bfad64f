package core

import "context"

// Repository es el contrato mínimo de persistencia que consume el core.
// El esquema (unique (org_id, email), FK role→permission) vive en
// migrations/postgres y lo garantiza la base, no este paquete.
type Repository interface {
	Ping(ctx context.Context) error

	// Accounts
	GetAccountByEmail(ctx context.Context, orgID, email string) (*Account, error)
	CountAccountsByOrg(ctx context.Context, orgID string) (int64, error)
	InsertAccount(ctx context.Context, a *Account) error
	UpdateAccount(ctx context.Context, orgID, email string, ch AccountChanges) (*Account, error)
	DeleteAccountByEmail(ctx context.Context, orgID, email string) (*Account, error)

	// RBAC (grafo rol→permisos, plano, sin ciclos)
	GetRole(ctx context.Context, roleID string) (*Role, error)
	GetRolePermissions(ctx context.Context, roleID string) ([]string, error)
}
