package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"inventory-management/internal/auth"
	"inventory-management/internal/backup"
	apphttp "inventory-management/internal/http"
	"inventory-management/internal/ratelimit"
	"inventory-management/internal/repository/sqlite"
	"inventory-management/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Applies pending migrations, starts the HTTP API and, when configured, the backup scheduler.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer a.closeDatabase(db)

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	if err != nil {
		return fmt.Errorf("setup tokens: %w", err)
	}

	revoked, closeRevoked, err := a.revocationStore(ctx)
	if err != nil {
		return err
	}
	defer closeRevoked()

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.Rate = rate.Limit(cfg.RateLimit.LoginRate)
	limiterCfg.Burst = cfg.RateLimit.LoginBurst
	limiter := ratelimit.New(limiterCfg)

	userService := service.NewUserService(sqlite.NewUserRepository(db))

	var backups backup.Manager
	if cfg.Backup.Bucket != "" {
		backups, err = a.backupManager(ctx, db)
		if err != nil {
			return err
		}
	} else {
		logger.Info("backup bucket not configured, backups disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("configure router: %w", err)
	}
	handler := apphttp.NewHandler(userService, tokens, revoked, limiter, db, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	if backups != nil {
		if err := backups.Start(gctx); err != nil {
			return fmt.Errorf("start backups: %w", err)
		}
		defer backups.Shutdown()
	}

	g.Go(func() error {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("bye")
	return nil
}

// revocationStore picks Redis when configured so replicas share logouts.
func (a *app) revocationStore(ctx context.Context) (auth.RevocationStore, func(), error) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Info("redis not configured, token revocations kept in memory")
		return auth.NewMemoryRevocationStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", a.cfg.Redis.Addr, err)
	}
	a.logger.Infof("token revocations stored in redis at %s", a.cfg.Redis.Addr)
	return auth.NewRedisRevocationStore(client), func() {
		if err := client.Close(); err != nil {
			a.logger.Warnf("close redis: %v", err)
		}
	}, nil
}
