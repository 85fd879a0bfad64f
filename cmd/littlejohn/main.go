package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/littlejohn/internal/account"
	"github.com/dropDatabas3/littlejohn/internal/app"
	"github.com/dropDatabas3/littlejohn/internal/cache"
	memcache "github.com/dropDatabas3/littlejohn/internal/cache/memory"
	redcache "github.com/dropDatabas3/littlejohn/internal/cache/redis"
	"github.com/dropDatabas3/littlejohn/internal/config"
	"github.com/dropDatabas3/littlejohn/internal/directory"
	httpserver "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/http/handlers"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	pgdriver "github.com/dropDatabas3/littlejohn/internal/store/pg"
)

func main() {
	var (
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env (opcional)")
		flagConfig  = flag.String("config", "", "ruta a config.yaml (opcional, env pisa todo)")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	cfg, err := config.Load(configPath(*flagConfig))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "littlejohn"})
	defer logger.Sync()
	l := logger.L()

	ctx := context.Background()

	// Store (postgres)
	store, err := pgdriver.New(ctx, cfg.Storage.DSN, pgdriver.Config{
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		l.Fatal("store init failed", logger.Err(err))
	}
	defer store.Close()

	// Keystore: carga perezosa del par RSA desde config, con single-flight
	// en el primer uso. El Active() de abajo memoiza el resultado y hace que
	// material malformado mate el boot en vez del primer login.
	keys := jwtx.NewKeystore(func() (*jwtx.KeySet, error) {
		return jwtx.ParseRSAKeyPair(cfg.JWT.PrivateKey, cfg.JWT.PublicKey, cfg.JWT.KID, cfg.JWT.Alg)
	})
	if _, err := keys.Active(); err != nil {
		l.Fatal("signing keys unavailable", logger.Err(err))
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, keys, cfg.SessionTTL(), cfg.RegisterTTL())
	verifier := jwtx.NewVerifier(cfg.JWT.Issuer, cfg.JWT.Audience, keys)

	// Cache para snapshots de rol/permisos
	var ch cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		ch = redcache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
	default:
		ttl, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
		ch = memcache.New(ttl)
	}

	dir := directory.New(cfg.Directory.BaseURL, cfg.DirectoryTimeout())

	c := &app.Container{
		Store:     store,
		Keys:      keys,
		Issuer:    issuer,
		Verifier:  verifier,
		Authn:     account.NewAuthenticator(store, ch, issuer, 0),
		Lifecycle: account.NewCoordinator(store, dir),
	}

	metricsHandler, err := metrics.Handler()
	if err != nil {
		l.Fatal("metrics init failed", logger.Err(err))
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Verifier:      verifier,
		Login:         handlers.NewAuthLoginHandler(c),
		RegisterToken: handlers.NewRegisterTokenHandler(c),
		JWKS:          handlers.NewJWKSHandler(c),
		AccountCreate: handlers.NewAccountCreateHandler(c),
		AccountGet:    handlers.NewAccountGetHandler(c),
		AccountUpdate: handlers.NewAccountUpdateHandler(c),
		AccountDelete: handlers.NewAccountDeleteHandler(c),
		Readyz:        handlers.NewReadyzHandler(c),
		Metrics:       metricsHandler,
	})

	srv := httpserver.NewServer(cfg.Server.Addr, router)

	// Apagado graceful: SIGINT/SIGTERM drenan requests en vuelo.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	l.Info("server started", logger.Component("main"), logger.Path(cfg.Server.Addr))

	select {
	case err := <-errCh:
		if err != nil {
			l.Fatal("server failed", logger.Err(err))
		}
	case sig := <-stop:
		l.Info("shutting down", logger.Op(sig.String()))
		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			l.Warn("shutdown incomplete", logger.Err(err))
		}
	}
}

func configPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	for _, p := range []string{"configs/config.yaml", "configs/config.example.yaml"} {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}
