package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"market-cutover/pkg/api"
	"market-cutover/pkg/auth"
	"market-cutover/pkg/config"
	"market-cutover/pkg/db"
	"market-cutover/pkg/freezer"
	"market-cutover/pkg/legacy"
	"market-cutover/pkg/migration"
	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
	"market-cutover/pkg/target"
	"market-cutover/pkg/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	flag.StringVar(&cfg.AuthToken, "token", cfg.AuthToken, "static operator token (optional)")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "store backend: memory|sqlite|consul (requires build tag consul)|mysql")
	flag.StringVar(&cfg.ConsulAddr, "consul-addr", cfg.ConsulAddr, "consul address (when store=consul)")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "state file (when store=sqlite)")
	flag.StringVar(&cfg.LegacySource, "legacy", cfg.LegacySource, "legacy data source: file|mysql")
	flag.StringVar(&cfg.LegacyFile, "legacy-file", cfg.LegacyFile, "legacy dataset YAML (when legacy=file)")
	flag.StringVar(&cfg.CatalogFile, "catalog", cfg.CatalogFile, "replacement catalog YAML (embedded default when empty)")
	flag.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "TLS cert path (enables HTTPS if set with --tls-key)")
	flag.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "TLS key path (enables HTTPS if set with --tls-cert)")
	flag.StringVar(&cfg.ClientCA, "client-ca", cfg.ClientCA, "require and verify client certs using this CA (optional)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("controller stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	var controllerDB *gorm.DB
	st, closeStore, err := openStore(cfg, &controllerDB)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := openLegacy(cfg, logger)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	mgr, err := target.NewManager(catalog, nil, st, logger.Named("target"))
	if err != nil {
		return err
	}
	frz, err := freezer.New(st, provider, freezer.Keys{Admin: cfg.AdminKey, Master: cfg.MasterKey}, logger.Named("freezer"))
	if err != nil {
		return err
	}
	hub := api.NewEventHub(logger.Named("ws"))
	orch, err := migration.New(migration.Deps{
		Store:               st,
		Provider:            provider,
		Freezer:             frz,
		Target:              mgr,
		MasterKey:           cfg.MasterKey,
		ActivationThreshold: cfg.ActivationThreshold,
		StepDelay:           cfg.StepDelay,
		Logger:              logger.Named("migration"),
		Notifier:            hub,
	})
	if err != nil {
		return err
	}

	issuer := auth.NewIssuer(cfg.JWTSecret)
	mux := http.NewServeMux()
	(&api.Handler{
		Orchestrator: orch,
		Freezer:      frz,
		Target:       mgr,
		Store:        st,
		Hub:          hub,
		Token:        cfg.AuthToken,
		Issuer:       issuer,
		Logger:       logger.Named("api"),
	}).RegisterRoutes(mux)
	if controllerDB != nil && issuer.Enabled() {
		(&api.AuthHandler{DB: controllerDB, Issuer: issuer, Logger: logger.Named("auth")}).RegisterRoutes(mux)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if cfg.TLSCert != "" {
		tlsCfg, err := api.ServerTLSConfig(cfg.TLSCert, cfg.TLSKey, cfg.ClientCA)
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsCfg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("controller listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("store", cfg.Store),
			zap.String("legacy", cfg.LegacySource),
			zap.Bool("tls", srv.TLSConfig != nil),
			zap.String("build", version.Build))
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func openStore(cfg config.Config, controllerDB **gorm.DB) (store.Store, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case "memory":
		return store.NewMemoryStore(), noop, nil
	case "sqlite":
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "consul":
		s, err := store.NewConsulStore(cfg.ConsulAddr, cfg.ConsulPrefix)
		return s, noop, err
	case "mysql":
		gdb, err := db.Init(cfg.MySQL)
		if err != nil {
			return nil, noop, fmt.Errorf("mysql store: %w", err)
		}
		*controllerDB = gdb
		return db.NewKVStore(gdb), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported store type: %s", cfg.Store)
	}
}

func openLegacy(cfg config.Config, logger *zap.Logger) (legacy.Provider, error) {
	switch cfg.LegacySource {
	case "mysql":
		gdb, err := db.OpenLegacy(cfg.LegacyMySQLDSN)
		if err != nil {
			return nil, err
		}
		return legacy.NewGormProvider(gdb, logger.Named("legacy")), nil
	default:
		return legacy.NewFileProvider(cfg.LegacyFile, logger.Named("legacy")), nil
	}
}

func loadCatalog(path string) (model.Catalog, error) {
	if path == "" {
		return target.DefaultCatalog()
	}
	return target.LoadCatalog(path)
}
