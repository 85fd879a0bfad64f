package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// GetRole: lookup plano por ID.
func (s *Store) GetRole(ctx context.Context, roleID string) (*core.Role, error) {
	var r core.Role
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM role WHERE id = $1`, roleID).Scan(&r.ID, &r.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// GetRolePermissions: set efectivo del rol (unión de sus permisos
// asignados; el grafo es plano, sin ciclos).
func (s *Store) GetRolePermissions(ctx context.Context, roleID string) ([]string, error) {
	const q = `
SELECT p.name
FROM role_permission rp
JOIN permission p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.name;`
	rows, err := s.pool.Query(ctx, q, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
