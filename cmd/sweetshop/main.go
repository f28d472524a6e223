package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/sweet_shop/internal/config"
	"github.com/Skotchmaster/sweet_shop/internal/httpserver"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/search"
	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/pkg/cache"
	pkgcfg "github.com/Skotchmaster/sweet_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/sweet_shop/pkg/db"
	"github.com/Skotchmaster/sweet_shop/pkg/events"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
	middleware "github.com/Skotchmaster/sweet_shop/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/sweet_shop/pkg/middleware/logging"
)

const purgeInterval = time.Hour

func main() {
	pkgcfg.LoadDotEnv(".env", "cmd/sweetshop/.env")

	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	if err := migrate(r, cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)
	store := openCache(cfg, logger)

	authSvc := &service.AuthService{
		Repo:      r,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTExpiration,
		Events:    publisher,
	}
	sweetSvc := &service.SweetService{
		Repo:   r,
		Cache:  store,
		Events: publisher,
	}
	if idx := openSearch(cfg, r, logger); idx != nil {
		sweetSvc.Search = idx
	}

	if cfg.Admin.Enabled() {
		seedCtx := logging.IntoContext(context.Background(), logger)
		if err := authSvc.SeedAdmin(seedCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			httpserver.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{httpserver.HeaderReplayed},
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:      &httpserver.AuthHTTP{Svc: authSvc},
		SweetHandler:     &httpserver.SweetHTTP{Svc: sweetSvc},
		OrderHandler:     &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Events: publisher}},
		InventoryHandler: &httpserver.InventoryHTTP{Svc: &service.InventoryService{Repo: r}},
		Auth:             middleware.NewJWTAuth(cfg.JWTSecret, r),
		Ready: func(ctx context.Context) error {
			return pkgdb.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	purgeCtx, stopPurge := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go purgeRevocations(purgeCtx, r)

	go func() {
		logger.Info("sweetshop listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopPurge()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Warn("publisher close", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Warn("cache close", "error", err)
	}
	pkgdb.Close(db)

	logger.Info("sweetshop stopped")
}

// migrate creates the tables and then normalises roles on accounts that predate them.
func migrate(r *repo.GormRepo, dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.AutoMigrate(ctx); err != nil {
		return err
	}

	sqlDB, err := pkgdb.OpenSQL(ctx, dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return pkgdb.Migrate(ctx, sqlDB, pkgdb.RoleMigrations)
}

func openCache(cfg config.Config, logger *slog.Logger) cache.Store {
	if cfg.RedisAddr == "" {
		return cache.Noop{}
	}

	rs := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "error", err)
		_ = rs.Close()
		return cache.Noop{}
	}
	return rs
}

// openSearch returns nil when search is not configured or unreachable; the database serves search then.
func openSearch(cfg config.Config, r *repo.GormRepo, logger *slog.Logger) *search.ESIndex {
	if cfg.ESURL == "" {
		return nil
	}

	es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("elasticsearch unavailable, using database search", "error", err)
		return nil
	}
	idx := search.NewESIndex(es, cfg.ESIndex)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("elasticsearch index setup failed", "index", cfg.ESIndex, "error", err)
		return nil
	}
	items, err := r.ListSweets(ctx)
	if err != nil {
		logger.Warn("cannot load sweets for reindex", "error", err)
		return idx
	}
	if err := idx.Reindex(ctx, items); err != nil {
		logger.Warn("reindex failed", "error", err)
	}
	return idx
}

func purgeRevocations(ctx context.Context, r *repo.GormRepo) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := r.PurgeExpiredRevocations(ctx, now)
			if err != nil {
				logging.FromContext(ctx).Warn("purge_revocations_error", "error", err)
				continue
			}
			if n > 0 {
				logging.FromContext(ctx).Info("purge_revocations", "removed", n)
			}
		}
	}
}
