package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/innkeeper/internal/config"
	"github.com/MrJamesThe3rd/innkeeper/internal/database"
	"github.com/MrJamesThe3rd/innkeeper/internal/events"
	"github.com/MrJamesThe3rd/innkeeper/internal/expiry"
	innkeeperHttp "github.com/MrJamesThe3rd/innkeeper/internal/http"
	inventoryHandler "github.com/MrJamesThe3rd/innkeeper/internal/http/inventory"
	"github.com/MrJamesThe3rd/innkeeper/internal/http/ratelimit"
	reservationHandler "github.com/MrJamesThe3rd/innkeeper/internal/http/reservation"
	"github.com/MrJamesThe3rd/innkeeper/internal/inventory"
	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
	"github.com/MrJamesThe3rd/innkeeper/internal/reservation/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.App.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	var opts []reservation.Option

	if cfg.AMQP.URL != "" {
		publisher, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		defer publisher.Close()

		opts = append(opts, reservation.WithPublisher(publisher))
		slog.Info("publishing reservation events", "queue", cfg.AMQP.Queue)
	}

	var limiter *ratelimit.Limiter

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, rate limiting fails open", "addr", cfg.Redis.Addr, "error", err)
		}

		limiter = ratelimit.New(ratelimit.NewRedisCounter(rdb), cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	rs := store.New(db)

	var (
		reservationService = reservation.NewService(rs, opts...)
		inventoryService   = inventory.NewService(rs)
	)

	if cfg.Sweeper.Enabled {
		sched, err := expiry.NewSweeper(reservationService, cfg.Reservation.PaymentWindow).
			Start(ctx, cfg.Sweeper.Interval)
		if err != nil {
			return fmt.Errorf("starting sweeper: %w", err)
		}

		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("failed to stop sweeper", "error", err)
			}
		}()
	}

	router := innkeeperHttp.New(
		reservationHandler.NewHandler(reservationService),
		inventoryHandler.NewHandler(inventoryService),
		limiter,
		cfg.CORS.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
