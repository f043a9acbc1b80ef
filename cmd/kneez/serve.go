package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	anthropicAdapter "github.com/kneez/intake/internal/adapters/anthropic"
	httpAdapter "github.com/kneez/intake/internal/adapters/http"
	"github.com/kneez/intake/internal/adapters/memory"
	"github.com/kneez/intake/internal/adapters/postgres"
	redisAdapter "github.com/kneez/intake/internal/adapters/redis"
	"github.com/kneez/intake/internal/config"
	"github.com/kneez/intake/internal/engine"
	"github.com/kneez/intake/internal/intake"
	"github.com/kneez/intake/internal/logging"
	"github.com/kneez/intake/internal/observability"
	"github.com/kneez/intake/internal/tree"
	"github.com/kneez/intake/pkg/ports"
	"github.com/kneez/intake/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the intake and assessment HTTP server",
	Long:  `Starts the JSON API: the chat intake gate (when Anthropic credentials are configured) and the assessment-tree session endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		return runServe(configFile)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	trees := []*tree.Tree{tree.Default()}
	if cfg.TreesDir != "" {
		extra, err := tree.LoadDir(cfg.TreesDir)
		if err != nil {
			return err
		}
		trees = append(trees, extra...)
	}
	registry, err := tree.NewRegistry(trees...)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.New(reg)

	// Stores: Redis when configured, in-memory otherwise. Conversations
	// move to PostgreSQL when a DSN is set.
	var (
		sessionStore      ports.SessionStore
		conversationStore ports.ConversationStore
		locker            ports.DistributedLocker
	)
	if cfg.Redis.Addr != "" {
		client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		store := redisAdapter.NewFromClient(client,
			redisAdapter.WithTTL(time.Duration(cfg.SessionTTL)*time.Second))
		defer store.Close()
		sessionStore = store
		locker = redisAdapter.NewLocker(client, "kneez:")
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		sessionStore = memory.NewSessionStore()
	}
	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("failed to ensure postgres schema: %w", err)
		}
		conversationStore = store
		logger.Info("using postgres conversation store")
	} else {
		conversationStore = memory.NewConversationStore()
	}

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	sessionLocks := session.NewManager(managerOpts...)
	conversationLocks := session.NewManager(managerOpts...)

	eng := engine.New(registry, sessionStore, sessionLocks,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)

	serverOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
	if cfg.Anthropic.APIKey != "" {
		nlu := anthropicAdapter.New(cfg.Anthropic.APIKey, cfg.Anthropic.Model,
			anthropicAdapter.WithLogger(logger))
		gate := intake.NewGate(conversationStore, nlu, nlu, nlu, eng, conversationLocks,
			intake.WithLogger(logger),
			intake.WithMetrics(metrics),
		)
		serverOpts = append(serverOpts, httpAdapter.WithGate(gate))
	} else {
		logger.Warn("no anthropic api key configured, chat endpoint disabled")
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpAdapter.NewHandler(eng, registry, serverOpts...),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "tree_versions", registry.Versions())
		serverErrors <- srv.ListenAndServe()
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			logger.Info("starting metrics server", "addr", cfg.MetricsAddr)
			serverErrors <- http.ListenAndServe(cfg.MetricsAddr, mux)
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete, closing", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}
		logger.Info("server stopped")
	}
	return nil
}
