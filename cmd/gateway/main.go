package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ircgateway/internal/api"
	"ircgateway/internal/config"
	"ircgateway/internal/handler"
	"ircgateway/internal/oauth"
	"ircgateway/internal/service"
	"ircgateway/internal/session"
	"ircgateway/internal/storage"

	"go.uber.org/zap"
)

func main() {
	// Load configuration first so LOG_LEVEL picks the logger
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting IRC gateway",
		zap.String("auth_mode", string(cfg.AuthMode)),
		zap.String("credential_backend", cfg.CredentialBackend),
	)

	repo, closeStore, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open credential store", zap.Error(err))
	}
	defer closeStore()

	// Remote service access
	consumer := oauth.Consumer{Key: cfg.ConsumerKey, Secret: cfg.ConsumerSecret}
	apiService := api.NewService(consumer, cfg.APIBaseURL, cfg.HTTPTimeout,
		oauth.WithCompression(cfg.EnableCompression),
		oauth.WithEndpoints(oauth.DefaultEndpoints(cfg.OAuthBaseURL)),
	)
	flows := func() service.OAuthFlow { return apiService.NewSigner() }

	// Sessions and authentication
	sessions := session.NewRegistry(apiService, repo, logger)
	defer sessions.Close()

	auth, err := service.NewAuthenticator(cfg.AuthMode, apiService, repo, logger)
	if err != nil {
		logger.Fatal("Failed to create authenticator", zap.Error(err))
	}
	controller := service.NewAuthController(auth, flows, repo, sessions, cfg.CredentialKey, cfg.HTTPTimeout, logger)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("addr", cfg.ListenAddr), zap.Error(err))
	}

	server := handler.NewServer(controller, sessions, handler.Options{
		ServerName:  cfg.ServerName,
		RejectDelay: cfg.RejectDelay,
		Created:     time.Now(),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	waitForShutdown(sigChan, done, cancel, logger)

	logger.Info("Gateway stopped gracefully")
}

// waitForShutdown blocks until a signal arrives or the server stops on its
// own, then cancels ctx and waits for Serve to return exactly once.
func waitForShutdown(sigChan <-chan os.Signal, done <-chan error, cancel context.CancelFunc, logger *zap.Logger) {
	stopped := false
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping gateway...")
	case err := <-done:
		stopped = true
		if err != nil {
			logger.Error("Server stopped", zap.Error(err))
		}
	}

	cancel()
	if !stopped {
		<-done
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
