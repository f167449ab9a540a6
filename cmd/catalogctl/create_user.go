package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"moviecatalog/internal/app"
	"moviecatalog/internal/config"
	"moviecatalog/internal/logging"
	"moviecatalog/internal/storage"
)

func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	admin := fs.Bool("admin", false, "grant admin rights")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("-username and -email are required")
	}

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, "text")
	if err != nil {
		return err
	}

	password, err := promptPassword(os.Stderr, os.Stdin, "Password: ")
	if err != nil {
		return err
	}
	if isTerminal(int(os.Stdin.Fd())) {
		again, err := promptPassword(os.Stderr, os.Stdin, "Repeat password: ")
		if err != nil {
			return err
		}
		if again != password {
			return errors.New("passwords do not match")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(ctx) //nolint:errcheck

	// No session is opened, so the signer is never used.
	auth := app.NewAuthService(store.Users, app.NewTokenSigner([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL))
	u, err := auth.CreateUser(ctx, *username, *email, password, *admin)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (%s) id=%s admin=%v\n", u.Username, u.Email, u.ID, u.IsAdmin)
	return nil
}
