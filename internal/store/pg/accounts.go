package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// ---------- LECTURAS ----------

// GetAccountByEmail busca por la clave natural (org, email).
func (s *Store) GetAccountByEmail(ctx context.Context, orgID, email string) (*core.Account, error) {
	const q = `
SELECT email, entity_id, organization_id, password_hash, role_id, created_at, updated_at
FROM account
WHERE organization_id = $1 AND email = $2;`
	var a core.Account
	err := s.pool.QueryRow(ctx, q, orgID, strings.ToLower(email)).Scan(
		&a.Email, &a.EntityID, &a.OrgID, &a.PasswordHash, &a.RoleID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CountAccountsByOrg: usado por el flujo de register-token (la org nueva
// solo puede crear su PRIMERA cuenta con un token provisional).
func (s *Store) CountAccountsByOrg(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM account WHERE organization_id = $1`, orgID).Scan(&n)
	return n, err
}

// ---------- ESCRITURAS ----------

// InsertAccount inserta la fila. La unicidad de (organization_id, email) la
// garantiza la constraint; acá solo la traducimos a core.ErrConflict.
func (s *Store) InsertAccount(ctx context.Context, a *core.Account) error {
	const q = `
INSERT INTO account (email, entity_id, organization_id, password_hash, role_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := s.pool.Exec(ctx, q,
		strings.ToLower(a.Email), a.EntityID, a.OrgID, a.PasswordHash, a.RoleID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

// UpdateAccount aplica un update parcial (password y/o rol) y devuelve la
// fila resultante. Campos vacíos quedan como estaban.
func (s *Store) UpdateAccount(ctx context.Context, orgID, email string, ch core.AccountChanges) (*core.Account, error) {
	const q = `
UPDATE account
SET password_hash = COALESCE(NULLIF($3, ''), password_hash),
    role_id       = COALESCE(NULLIF($4, '')::uuid, role_id),
    updated_at    = now()
WHERE organization_id = $1 AND email = $2
RETURNING email, entity_id, organization_id, password_hash, role_id, created_at, updated_at;`
	var a core.Account
	err := s.pool.QueryRow(ctx, q, orgID, strings.ToLower(email), ch.PasswordHash, ch.RoleID).Scan(
		&a.Email, &a.EntityID, &a.OrgID, &a.PasswordHash, &a.RoleID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// DeleteAccountByEmail borra y devuelve la fila borrada (el coordinador
// necesita el entity_id para el PATCH al directorio).
func (s *Store) DeleteAccountByEmail(ctx context.Context, orgID, email string) (*core.Account, error) {
	const q = `
DELETE FROM account
WHERE organization_id = $1 AND email = $2
RETURNING email, entity_id, organization_id, password_hash, role_id, created_at, updated_at;`
	var a core.Account
	err := s.pool.QueryRow(ctx, q, orgID, strings.ToLower(email)).Scan(
		&a.Email, &a.EntityID, &a.OrgID, &a.PasswordHash, &a.RoleID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
