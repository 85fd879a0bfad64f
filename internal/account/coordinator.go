// Package account orquesta el alta/baja de cuentas contra el store local y
// el directorio de Organizations. No es una saga real: dos pasos manuales
// con manejo de fallas asimétrico.
//
// Alta:  primero el directorio, después la fila local. Si el directorio
// falla se aborta: una cuenta local que el directorio no conoce es
// inaceptable.
//
// Baja:  primero la fila local, después el directorio. Si el directorio
// falla NO se deshace: un flag "hasAccount" viejo es staleness tolerable;
// se loguea un warning de reconciliación y el caller recibe éxito.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/security/password"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// ErrDependencyUnavailable: el directorio no pudo confirmar el alta.
// Mapea a 503 en el borde; el estado local quedó intacto, reintentar el
// alta completa es seguro.
var ErrDependencyUnavailable = errors.New("directory unavailable")

// Syncer es el contrato mínimo del directory client.
type Syncer interface {
	SetEmployeeHasAccount(ctx context.Context, orgID, employeeID string, hasAccount bool, authToken string) error
}

// Coordinator ejecuta el protocolo de consistencia. No es dueño del storage:
// la unicidad de (email, org) la garantiza la constraint de la base.
type Coordinator struct {
	store core.Repository
	dir   Syncer
}

func NewCoordinator(store core.Repository, dir Syncer) *Coordinator {
	return &Coordinator{store: store, dir: dir}
}

// Create da de alta una cuenta. El orden favorece la correctitud del
// directorio por sobre la creación: sync primero, insert después.
func (c *Coordinator) Create(ctx context.Context, draft core.AccountDraft, callerToken string) (*core.Account, error) {
	log := logger.From(ctx).With(
		logger.Component("account"),
		logger.OrgID(draft.OrgID),
		logger.EmployeeID(draft.EntityID),
	)

	if err := c.dir.SetEmployeeHasAccount(ctx, draft.OrgID, draft.EntityID, true, callerToken); err != nil {
		// Abort: sin fila local, el caller puede reintentar el alta entera.
		metrics.IncDirectorySync("create", "error")
		log.Warn("create aborted, directory sync failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	metrics.IncDirectorySync("create", "ok")

	hash, err := password.Hash(draft.Password)
	if err != nil {
		c.compensateCreate(ctx, draft, callerToken, log)
		return nil, err
	}

	now := time.Now().UTC()
	acc := &core.Account{
		Email:        draft.Email,
		EntityID:     draft.EntityID,
		OrgID:        draft.OrgID,
		PasswordHash: hash,
		RoleID:       draft.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.InsertAccount(ctx, acc); err != nil {
		// El directorio ya dice hasAccount=true pero el insert falló.
		// Compensamos con un PATCH de rollback best-effort; si también
		// falla queda drift hasta reconciliación externa.
		c.compensateCreate(ctx, draft, callerToken, log)
		return nil, err
	}

	log.Info("account created", logger.Email(draft.Email))
	return acc, nil
}

func (c *Coordinator) compensateCreate(ctx context.Context, draft core.AccountDraft, callerToken string, log *zap.Logger) {
	// WithoutCancel: la compensación corre aunque el request original ya
	// se haya cancelado.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.dir.SetEmployeeHasAccount(rctx, draft.OrgID, draft.EntityID, false, callerToken); err != nil {
		metrics.IncDirectorySync("rollback", "error")
		metrics.IncReconciliationWarning()
		log.Warn("reconciliation needed: directory rollback failed after aborted create", logger.Err(err))
		return
	}
	metrics.IncDirectorySync("rollback", "ok")
}

// Delete da de baja una cuenta: fila local primero, directorio después.
// Not-found es terminal (core.ErrNotFound), no un error de protocolo.
func (c *Coordinator) Delete(ctx context.Context, orgID, email, callerToken string) error {
	log := logger.From(ctx).With(
		logger.Component("account"),
		logger.OrgID(orgID),
		logger.Email(email),
	)

	acc, err := c.store.DeleteAccountByEmail(ctx, orgID, email)
	if err != nil {
		return err
	}

	// La fila ya no existe: el PATCH corre aunque el caller cancele, para
	// minimizar drift permanente.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.dir.SetEmployeeHasAccount(sctx, orgID, acc.EntityID, false, callerToken); err != nil {
		// Exactamente un warning de reconciliación; el caller ve éxito.
		metrics.IncDirectorySync("delete", "error")
		metrics.IncReconciliationWarning()
		log.Warn("reconciliation needed: directory sync failed after local delete",
			logger.EmployeeID(acc.EntityID), logger.Err(err))
		return nil
	}
	metrics.IncDirectorySync("delete", "ok")

	log.Info("account deleted", logger.EmployeeID(acc.EntityID))
	return nil
}
