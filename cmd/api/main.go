package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "hotel_review/internal/adapters/amqp"
	server "hotel_review/internal/adapters/http_server"
	"hotel_review/internal/adapters/observability"
	redisad "hotel_review/internal/adapters/redis"
	"hotel_review/internal/app"
	"hotel_review/internal/domain"
	"hotel_review/internal/shared"
	"hotel_review/internal/storage/memory"
	mysqlrepo "hotel_review/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// store
	var repo domain.HotelRepository
	switch cfg.Store {
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on restart")
		repo = memory.New()
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	// cache
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; public reads fall through to the store")
	}

	// events
	var events domain.EventPublisher = amqpad.Noop{}
	if cfg.AMQPURL != "" {
		pub := amqpad.New(cfg.AMQPURL, cfg.AMQPQueue)
		defer pub.Close()
		events = pub
	} else {
		log.Info().Msg("AMQP_URL empty; review events are not published")
	}

	cmd := app.NewReviewService(repo, cache, events)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(log.Logger)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Cmd:       cmd,
		Q:         q,
		JWTSecret: cfg.JWTSecret,
		Limiter:   server.NewActorLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
