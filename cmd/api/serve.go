package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
	"github.com/Likio3000/pomodoroAPP/internal/config"
	"github.com/Likio3000/pomodoroAPP/internal/router"
	"github.com/Likio3000/pomodoroAPP/internal/schema"
	"github.com/Likio3000/pomodoroAPP/internal/setting"
	"github.com/Likio3000/pomodoroAPP/internal/stats"
	"github.com/Likio3000/pomodoroAPP/internal/timer"
	"github.com/Likio3000/pomodoroAPP/internal/user"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
	"github.com/Likio3000/pomodoroAPP/pkg/utilities"
)

const tokenIssuer = "pomodoro-api"

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	return cmd
}

func serve(migrate bool) error {
	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate || dbCfg.IsSQLite() {
		if err := schema.Ensure(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, tokenIssuer, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}

	clock := clockwork.NewRealClock()
	uow := database.NewUnitOfWork(db)
	timerSvc := timer.NewService(db, uow, timer.Options{
		Clock:           clock,
		PointsPerMinute: cfg.PointsPerMinute,
		GracePeriod:     cfg.GracePeriod,
		ConsistencyGap:  cfg.ConsistencyGap,
		MultiplierCap:   cfg.MultiplierCap,
	}, sugar.Named("timer"))
	userSvc := user.NewUserService(db, nil)
	statsSvc := stats.NewService(db, clock)

	handler := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		Tokens:   tokens,
		Timer:    timer.NewHandler(timerSvc, sugar.Named("timer")),
		Users:    user.NewHandler(userSvc, tokens, sugar.Named("user")),
		Stats:    stats.NewHandler(statsSvc, sugar.Named("stats")),
		Settings: setting.NewHandler(cfg, sugar),
		DB:       db,
		Limiter:  router.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", cfg.HTTPAddr, "driver", db.DriverName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}
