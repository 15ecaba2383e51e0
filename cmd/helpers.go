package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/config"
	"github.com/harshithareddy1810/SmartDocQ/internal/db"
	"github.com/harshithareddy1810/SmartDocQ/internal/session"
)

// loadConfig loads and validates the config, applying flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "config.yml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newSession creates the credential store and an API client bound to
// it. Any 401 anywhere clears the stored session.
func newSession(cfg *config.Config) (*session.Store, *api.Client, error) {
	store, err := session.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening credential store: %w", err)
	}

	httpClient := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := api.New(cfg.APIBase,
		api.WithTokenSource(store),
		api.WithHTTPClient(httpClient),
		api.WithUnauthorizedHook(func() {
			store.Logout()
			fmt.Fprintln(os.Stderr, "Session expired. Run `smartdocq login` to sign in again.")
		}),
	)
	return store, client, nil
}

// requireAuth bootstraps the session and rejects guests with a hint to
// sign in.
func requireAuth(ctx context.Context, store *session.Store, client *api.Client) error {
	if store.Bootstrap(ctx, client) != session.StateAuthenticated {
		return fmt.Errorf("you are not signed in; run `smartdocq login`")
	}
	return nil
}

// openHistory opens the local share-history database. Failures are
// reported but never block the command that asked for it.
func openHistory(cfg *config.Config) *db.DB {
	database, err := db.Open(filepath.Join(cfg.DataDir, "smartdocq.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: local history unavailable: %v\n", err)
		return nil
	}
	return database
}
