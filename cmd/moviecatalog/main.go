package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviecatalog/internal/adapter/amqp"
	adapthttp "moviecatalog/internal/adapter/http"
	"moviecatalog/internal/app"
	"moviecatalog/internal/config"
	"moviecatalog/internal/logging"
	"moviecatalog/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "moviecatalog:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("store close", "error", err)
		}
	}()
	log.Info("store ready", "store", store.Kind)

	secret := []byte(cfg.Auth.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		log.Warn("TOKEN_SECRET not set; sessions will not survive a restart")
	}
	authSvc := app.NewAuthService(store.Users, app.NewTokenSigner(secret, cfg.Auth.TokenTTL))
	catalogSvc := app.NewCatalogService(store.Movies)

	if cfg.Events.AMQPURL != "" {
		pub, err := amqp.Dial(cfg.Events.AMQPURL, log)
		if err != nil {
			return fmt.Errorf("connect events broker: %w", err)
		}
		defer pub.Close() //nolint:errcheck
		catalogSvc.WithEvents(pub, log)
	}

	var oidcCfg *adapthttp.OIDCConfig
	if cfg.OIDC.Enabled() {
		oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return fmt.Errorf("oidc discovery: %w", err)
		}
		log.Info("sso enabled", "issuer", cfg.OIDC.Issuer)
	}

	api := adapthttp.New(authSvc, catalogSvc, adapthttp.Options{
		WebDir:            cfg.Server.WebDir,
		SecureCookie:      cfg.Server.SecureCookie,
		VerifyTokens:      cfg.Gate.VerifyTokens,
		AuthRatePerMinute: cfg.Server.AuthRatePerMinute,
		Ready:             store.Ping,
		OIDC:              oidcCfg,
		Logger:            log,
	})
	defer api.Close() //nolint:errcheck

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}
