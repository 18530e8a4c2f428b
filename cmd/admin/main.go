// Command admin edits stored gateway credentials.
//
//	admin reset-password <account>
//	admin clear-token <account>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ircgateway/internal/config"
	"ircgateway/internal/cryptox"
	"ircgateway/internal/repository"
	"ircgateway/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// readPassword is replaced in tests
var readPassword = term.ReadPassword

const usage = `usage:
  admin reset-password <account>
  admin clear-token <account>`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, w io.Writer) error {
	if len(args) != 2 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	repo, closeStore, err := storage.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return dispatch(ctx, repo, args[0], args[1], w)
}

func dispatch(ctx context.Context, repo repository.CredentialRepository, command, account string, w io.Writer) error {
	switch command {
	case "reset-password":
		password, err := promptPassword(w)
		if err != nil {
			return err
		}
		if err := resetPassword(ctx, repo, account, password); err != nil {
			return err
		}
		fmt.Fprintf(w, "password of %s updated\n", account)
	case "clear-token":
		if err := clearToken(ctx, repo, account); err != nil {
			return err
		}
		fmt.Fprintf(w, "token of %s cleared; the next login starts OAuth setup\n", account)
	default:
		return errors.New(usage)
	}
	return nil
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "New password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

// resetPassword replaces the local password hash and keeps the token pair
func resetPassword(ctx context.Context, repo repository.CredentialRepository, account, password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("password must not be empty")
	}

	cred, err := repo.Load(ctx, account)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	cred.LocalPasswordHash = hash

	return repo.Save(ctx, account, cred)
}

// clearToken removes both halves of the token pair
func clearToken(ctx context.Context, repo repository.CredentialRepository, account string) error {
	cred, err := repo.Load(ctx, account)
	if err != nil {
		return err
	}
	cred.OAuthAccessToken = ""
	cred.OAuthTokenSecret = ""

	return repo.Save(ctx, account, cred)
}
