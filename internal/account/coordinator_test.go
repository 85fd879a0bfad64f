package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// ---- fakes ----

type fakeStore struct {
	accounts map[string]*core.Account // key: org + "/" + email

	insertErr error
	deleteErr error

	roleCalls int
	permCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: map[string]*core.Account{}}
}

func (f *fakeStore) key(org, email string) string { return org + "/" + strings.ToLower(email) }

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) GetAccountByEmail(ctx context.Context, orgID, email string) (*core.Account, error) {
	if a, ok := f.accounts[f.key(orgID, email)]; ok {
		return a, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) CountAccountsByOrg(ctx context.Context, orgID string) (int64, error) {
	var n int64
	for k := range f.accounts {
		if strings.HasPrefix(k, orgID+"/") {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertAccount(ctx context.Context, a *core.Account) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	k := f.key(a.OrgID, a.Email)
	if _, ok := f.accounts[k]; ok {
		return core.ErrConflict
	}
	f.accounts[k] = a
	return nil
}

func (f *fakeStore) UpdateAccount(ctx context.Context, orgID, email string, ch core.AccountChanges) (*core.Account, error) {
	a, ok := f.accounts[f.key(orgID, email)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if ch.PasswordHash != "" {
		a.PasswordHash = ch.PasswordHash
	}
	if ch.RoleID != "" {
		a.RoleID = ch.RoleID
	}
	return a, nil
}

func (f *fakeStore) DeleteAccountByEmail(ctx context.Context, orgID, email string) (*core.Account, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	k := f.key(orgID, email)
	a, ok := f.accounts[k]
	if !ok {
		return nil, core.ErrNotFound
	}
	delete(f.accounts, k)
	return a, nil
}

func (f *fakeStore) GetRole(ctx context.Context, roleID string) (*core.Role, error) {
	f.roleCalls++
	return &core.Role{ID: roleID, Name: "admin"}, nil
}

func (f *fakeStore) GetRolePermissions(ctx context.Context, roleID string) ([]string, error) {
	f.permCalls++
	return []string{"accounts:delete", "accounts:read"}, nil
}

type syncCall struct {
	orgID, employeeID string
	hasAccount        bool
}

type fakeSyncer struct {
	calls []syncCall
	// fail decide por llamada; nil ⇒ siempre ok
	fail func(call syncCall) error
}

func (f *fakeSyncer) SetEmployeeHasAccount(ctx context.Context, orgID, employeeID string, hasAccount bool, authToken string) error {
	c := syncCall{orgID: orgID, employeeID: employeeID, hasAccount: hasAccount}
	f.calls = append(f.calls, c)
	if f.fail != nil {
		return f.fail(c)
	}
	return nil
}

// observedCtx inyecta un logger observable en el contexto y devuelve los
// logs capturados.
func observedCtx(t *testing.T) (context.Context, *observer.ObservedLogs) {
	t.Helper()
	obsCore, logs := observer.New(zap.DebugLevel)
	return logger.ToContext(context.Background(), zap.New(obsCore)), logs
}

func warnsContaining(logs *observer.ObservedLogs, substr string) int {
	n := 0
	for _, e := range logs.FilterLevelExact(zap.WarnLevel).All() {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func draft() core.AccountDraft {
	return core.AccountDraft{
		Email:    "ana@acme.test",
		EntityID: "emp-1",
		OrgID:    "org-1",
		Password: "hunter2hunter2",
		RoleID:   "role-1",
	}
}

// ---- create ----

func TestCreate_SyncFirstThenInsert(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	sy := &fakeSyncer{}
	co := NewCoordinator(st, sy)
	ctx, _ := observedCtx(t)

	acc, err := co.Create(ctx, draft(), "caller-token")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if acc.PasswordHash == "" || acc.PasswordHash == "hunter2hunter2" {
		t.Fatal("password sin hashear")
	}
	if len(sy.calls) != 1 || !sy.calls[0].hasAccount {
		t.Fatalf("sync calls = %+v", sy.calls)
	}
	if _, err := st.GetAccountByEmail(ctx, "org-1", "ana@acme.test"); err != nil {
		t.Fatalf("fila local ausente: %v", err)
	}
	if acc.CreatedAt.IsZero() || !acc.UpdatedAt.Equal(acc.CreatedAt) {
		t.Fatalf("timestamps: %v / %v", acc.CreatedAt, acc.UpdatedAt)
	}
}

func TestCreate_DirectoryDown_Aborts(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	sy := &fakeSyncer{fail: func(syncCall) error { return errors.New("connection refused") }}
	co := NewCoordinator(st, sy)
	ctx, _ := observedCtx(t)

	_, err := co.Create(ctx, draft(), "tok")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
	// abort limpio: ninguna fila local
	if n, _ := st.CountAccountsByOrg(ctx, "org-1"); n != 0 {
		t.Fatalf("cuentas = %d", n)
	}
	// un solo intento, sin retry interno
	if len(sy.calls) != 1 {
		t.Fatalf("sync calls = %d", len(sy.calls))
	}
}

func TestCreate_InsertFails_CompensatesDirectory(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	st.insertErr = core.ErrConflict
	sy := &fakeSyncer{}
	co := NewCoordinator(st, sy)
	ctx, logs := observedCtx(t)

	_, err := co.Create(ctx, draft(), "tok")
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
	// patch de ida (true) + rollback best-effort (false)
	if len(sy.calls) != 2 {
		t.Fatalf("sync calls = %+v", sy.calls)
	}
	if !sy.calls[0].hasAccount || sy.calls[1].hasAccount {
		t.Fatalf("secuencia de patches = %+v", sy.calls)
	}
	// rollback exitoso: sin warning de reconciliación
	if n := warnsContaining(logs, "reconciliation needed"); n != 0 {
		t.Fatalf("warnings de reconciliación = %d", n)
	}
}

func TestCreate_CompensationFails_WarnsOnce(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	st.insertErr = errors.New("disk full")
	sy := &fakeSyncer{fail: func(c syncCall) error {
		if !c.hasAccount {
			return errors.New("directory down")
		}
		return nil
	}}
	co := NewCoordinator(st, sy)
	ctx, logs := observedCtx(t)

	_, err := co.Create(ctx, draft(), "tok")
	if err == nil {
		t.Fatal("Create debía fallar")
	}
	if n := warnsContaining(logs, "reconciliation needed"); n != 1 {
		t.Fatalf("warnings de reconciliación = %d, want 1", n)
	}
}

// ---- delete ----

func TestDelete_LocalFirstThenSync(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	sy := &fakeSyncer{}
	co := NewCoordinator(st, sy)
	ctx, _ := observedCtx(t)

	if _, err := co.Create(ctx, draft(), "tok"); err != nil {
		t.Fatal(err)
	}
	sy.calls = nil

	if err := co.Delete(ctx, "org-1", "ana@acme.test", "tok"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := st.CountAccountsByOrg(ctx, "org-1"); n != 0 {
		t.Fatalf("cuentas = %d", n)
	}
	if len(sy.calls) != 1 || sy.calls[0].hasAccount || sy.calls[0].employeeID != "emp-1" {
		t.Fatalf("sync calls = %+v", sy.calls)
	}
}

func TestDelete_NotFound_Terminal(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	sy := &fakeSyncer{}
	co := NewCoordinator(st, sy)
	ctx, _ := observedCtx(t)

	err := co.Delete(ctx, "org-1", "nadie@acme.test", "tok")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	// sin fila no hay nada que sincronizar
	if len(sy.calls) != 0 {
		t.Fatalf("sync calls = %+v", sy.calls)
	}
}

func TestDelete_SyncFails_SuccessWithOneWarning(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	sy := &fakeSyncer{}
	co := NewCoordinator(st, sy)
	ctx, logs := observedCtx(t)

	if _, err := co.Create(ctx, draft(), "tok"); err != nil {
		t.Fatal(err)
	}
	sy.fail = func(c syncCall) error {
		if !c.hasAccount {
			return errors.New("timeout")
		}
		return nil
	}

	// asimetría: la baja local gana, el drift del directorio es tolerable
	if err := co.Delete(ctx, "org-1", "ana@acme.test", "tok"); err != nil {
		t.Fatalf("Delete debía reportar éxito: %v", err)
	}
	if n, _ := st.CountAccountsByOrg(ctx, "org-1"); n != 0 {
		t.Fatal("la fila local debía estar borrada")
	}
	if n := warnsContaining(logs, "reconciliation needed"); n != 1 {
		t.Fatalf("warnings de reconciliación = %d, want 1", n)
	}
}

// El coordinator usa WithoutCancel para el patch post-delete: el ctx que
// recibe el syncer sigue vivo aunque el del caller ya esté cancelado.
func TestDelete_SyncRunsDetachedFromCallerCancel(t *testing.T) {
	t.Parallel()
	st := newFakeStore()
	var sawLiveCtx bool
	spy := &ctxSpySyncer{inner: &fakeSyncer{}, alive: &sawLiveCtx}
	co := NewCoordinator(st, spy)
	base, _ := observedCtx(t)

	if _, err := co.Create(base, draft(), "tok"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(base)
	cancel()
	if err := co.Delete(ctx, "org-1", "ana@acme.test", "tok"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !sawLiveCtx {
		t.Fatal("el sync post-delete corrió con el contexto cancelado")
	}
}

type ctxSpySyncer struct {
	inner Syncer
	alive *bool
}

func (s *ctxSpySyncer) SetEmployeeHasAccount(ctx context.Context, orgID, employeeID string, hasAccount bool, authToken string) error {
	if !hasAccount && ctx.Err() == nil {
		*s.alive = true
	}
	return s.inner.SetEmployeeHasAccount(ctx, orgID, employeeID, hasAccount, authToken)
}
