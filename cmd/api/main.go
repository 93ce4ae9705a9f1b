package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/aman-zulfiqar/amm-validator/internal/audit"
	"github.com/aman-zulfiqar/amm-validator/internal/config"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/profiles"
	"github.com/aman-zulfiqar/amm-validator/internal/server"
)

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	fs := pflag.NewFlagSet("api", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	// load .env BEFORE anything reads the environment
	envFile, _ := fs.GetString("env-file")
	envLoaded := config.LoadEnv(envFile)

	cfgFile, _ := fs.GetString("config")
	cfg, err := config.Load(cfgFile, fs)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	if envLoaded {
		logger.WithField("file", envFile).Info("loaded env file")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	h := &server.Handlers{
		Engine:  engine.NewEngine(cfg.Security, engine.WithLogger(logger)),
		DevMode: cfg.API.DevMode,
		Logger:  logger,
	}

	var sinks audit.Fanout
	if cfg.Redis.Enabled {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}

		store, err := profiles.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create profile store")
		}
		h.Profiles = store
		// PubSub owns the client and closes it on shutdown
		sinks = append(sinks, audit.NewPubSub(rclient, logger))
	}
	if cfg.ClickHouse.Enabled {
		ch, err := audit.NewClickHouseStore(ctx, audit.ClickHouseOptions{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		}, logger)
		if err != nil {
			// the trail is best effort; validation keeps working without it
			logger.WithError(err).Warn("clickhouse audit store unavailable")
		} else {
			sinks = append(sinks, ch)
		}
	}
	if len(sinks) > 0 {
		h.Audit = sinks
		defer func() {
			if err := sinks.Close(); err != nil {
				logger.WithError(err).Warn("failed to close audit sinks")
			}
		}()
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.API.Addr,
			DevMode: cfg.API.DevMode,
			APIKey:  cfg.API.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("shutdown did not complete cleanly")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr":       cfg.API.Addr,
		"redis":      cfg.Redis.Enabled,
		"clickhouse": cfg.ClickHouse.Enabled,
	}).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("wait for shutdown")
	}
}
