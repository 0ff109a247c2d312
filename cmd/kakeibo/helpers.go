package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/config"
	"github.com/fumisaki/kakeibo/internal/storage"
)

// initStore opens the configured database, runs migrations and seeds the
// default categories on first run.
func initStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.NewStore(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		common.LogError(err, "migration failed", common.Fields{"db": store.Path()})
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := store.CreateDefaultCategories(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed default categories: %w", err)
	}

	return store, nil
}

// renderError prefixes domain errors with their kind and hints a retry when
// a database failure is transient.
func renderError(err error) error {
	var typed *common.Error
	if !errors.As(err, &typed) {
		return err
	}
	if typed.Kind == common.KindDatabase && typed.Retryable {
		return fmt.Errorf("%s error (retry may succeed): %w", typed.Kind, err)
	}
	return fmt.Errorf("%s error: %w", typed.Kind, err)
}
