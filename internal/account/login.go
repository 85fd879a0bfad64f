package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/security/password"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// ErrInvalidCredentials: email desconocido o password incorrecto.
// Indistinguibles a propósito: el borde responde 401 genérico.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator valida credenciales y emite el token de sesión con el
// snapshot de rol/permisos al momento del login.
type Authenticator struct {
	store    core.Repository
	cache    cache.Cache
	issuer   *jwtx.Issuer
	cacheTTL time.Duration
}

func NewAuthenticator(store core.Repository, c cache.Cache, issuer *jwtx.Issuer, cacheTTL time.Duration) *Authenticator {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &Authenticator{store: store, cache: c, issuer: issuer, cacheTTL: cacheTTL}
}

// Login autentica (email, password) dentro de una organización y devuelve
// el token de sesión firmado.
func (a *Authenticator) Login(ctx context.Context, orgID, email, plain string) (jwtx.Token, error) {
	acc, err := a.store.GetAccountByEmail(ctx, orgID, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return jwtx.Token{}, ErrInvalidCredentials
		}
		return jwtx.Token{}, err
	}
	if !password.Verify(plain, acc.PasswordHash) {
		return jwtx.Token{}, ErrInvalidCredentials
	}

	roleName, perms, err := a.rolePermissions(ctx, acc.RoleID)
	if err != nil {
		return jwtx.Token{}, err
	}

	tok, err := a.issuer.IssueSession(jwtx.SessionClaims{
		Subject:     acc.EntityID,
		OrgID:       acc.OrgID,
		Roles:       []string{roleName},
		Permissions: perms,
	})
	if err != nil {
		return jwtx.Token{}, err
	}

	logger.From(ctx).Info("session token issued",
		logger.Component("account"),
		logger.OrgID(acc.OrgID),
		logger.AccountID(acc.EntityID),
	)
	return tok, nil
}

type roleSnapshot struct {
	Name  string   `json:"name"`
	Perms []string `json:"perms"`
}

// rolePermissions resuelve nombre + set efectivo del rol, con cache TTL
// para no pegarle al grafo en cada login.
func (a *Authenticator) rolePermissions(ctx context.Context, roleID string) (string, []string, error) {
	key := "role:snapshot:" + roleID
	if b, ok := a.cache.Get(key); ok {
		var snap roleSnapshot
		if json.Unmarshal(b, &snap) == nil {
			return snap.Name, snap.Perms, nil
		}
	}

	role, err := a.store.GetRole(ctx, roleID)
	if err != nil {
		return "", nil, err
	}
	perms, err := a.store.GetRolePermissions(ctx, roleID)
	if err != nil {
		return "", nil, err
	}

	if b, err := json.Marshal(roleSnapshot{Name: role.Name, Perms: perms}); err == nil {
		a.cache.Set(key, b, a.cacheTTL)
	}
	return role.Name, perms, nil
}
