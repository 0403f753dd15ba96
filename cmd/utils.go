package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/calltime/slate/pkg/config"
	"github.com/calltime/slate/pkg/saved"
	"github.com/calltime/slate/pkg/storage"
)

// openStore loads the configuration and opens the slate database.
func openStore(configPath string) (*config.Config, *storage.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(dbPath(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return cfg, store, nil
}

func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.StorageDir, "slate.db")
}

// identityFromConfig builds the caller identity for saved-search scoping.
func identityFromConfig(cfg *config.Config) saved.Identity {
	return saved.Identity{
		User:         cfg.Identity.User,
		Email:        cfg.Identity.Email,
		Organization: cfg.Identity.Organization,
	}
}
