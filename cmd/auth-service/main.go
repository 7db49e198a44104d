package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/rpc"
	"github.com/99minutos/auth-service/internal/core/service"
	mongostore "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/transport/redisrpc"
	"github.com/99minutos/auth-service/internal/pkg/config"
	"github.com/99minutos/auth-service/pkg/logger"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.RPC.Service,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("auth-service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongostore.Disconnect(context.Background(), mongoClient); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Core ---
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accounts := service.NewAccountService(users, tokens, log)

	router := rpc.NewRouter(log)
	rpc.RegisterAccountCommands(router, accounts)

	// --- Transports ---
	claims := redisstore.NewClaimStore(rdb, instanceID(), cfg.RPC.ClaimTTL)
	rpcServer := redisrpc.NewServer(rdb, router, claims, redisrpc.ServerConfig{
		Service:        cfg.RPC.Service,
		Workers:        cfg.RPC.Workers,
		HandlerTimeout: cfg.RPC.HandlerTimeout,
	}, log)

	e := api.NewRouter(api.Deps{
		Router: router,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: log,
	})

	errCh := make(chan error, 2)
	rpcDone := make(chan struct{})
	go func() {
		defer close(rpcDone)
		if err := rpcServer.Serve(ctx); err != nil {
			errCh <- fmt.Errorf("redis rpc: %w", err)
		}
	}()
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	select {
	case <-rpcDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("redis rpc handlers still running at shutdown timeout")
	}

	return runErr
}

// instanceID names this replica in request claims.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "auth-service"
	}
	return host + "-" + uuid.NewString()
}
