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

	"tokenup/internal/config"
	"tokenup/internal/db"
	"tokenup/internal/logging"
	"tokenup/internal/router"
	"tokenup/internal/services"
	"tokenup/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	objects, err := services.NewObjectStorage(cfg.Storage)
	if err != nil {
		return err
	}

	users := services.NewUserService(st, log, cfg.Auth.AllowSelfPromote)
	certs := services.NewCertificateService(st, log)

	if n, err := users.EnsureAdmins(ctx, cfg.Auth.AdminUsernames); err != nil {
		return fmt.Errorf("promote configured admins: %w", err)
	} else if n > 0 {
		log.Info().Int("count", n).Msg("configured admins promoted")
	}
	if cfg.Tokens.ReconcileOnStart {
		if _, err := certs.Reconcile(ctx); err != nil {
			// not fatal: the admin endpoint can run it again
			log.Error().Err(err).Msg("startup reconciliation failed")
		}
	}

	gin.SetMode(cfg.Server.Mode)
	engine := router.New(router.Deps{
		Config:       cfg,
		Store:        st,
		Certificates: certs,
		Engagement:   services.NewEngagementService(st, log),
		Reporter: services.NewReporter(st, log, services.ReporterOptions{
			DefaultLimit: cfg.Leaderboard.DefaultLimit,
			MaxLimit:     cfg.Leaderboard.MaxLimit,
			Days:         cfg.Analytics.Days,
			Location:     cfg.Analytics.Location(),
		}),
		Users:   users,
		Uploads: services.NewUploadService(objects, cfg.Storage.MaxUploadSize, log),
		Log:     log,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("TokenUp server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg config.DatabaseConfig, log zerolog.Logger) (store.Store, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return store.NewMemoryStore(), func() {}, nil
	}
	gdb, err := db.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return store.NewGormStore(gdb), closeFn, nil
}
