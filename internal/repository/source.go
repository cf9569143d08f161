package repository

import (
	"context"
	"fmt"

	"elifsite/internal/config"
	"elifsite/internal/db"
	"elifsite/internal/model"
	"elifsite/internal/pricing"
)

// LoadCatalog returns the catalog named by cfg.CatalogSource, validated.
func LoadCatalog(ctx context.Context, cfg *config.Config) (model.Catalog, error) {
	c := pricing.Default()
	if cfg.CatalogSource == config.CatalogPostgres {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return model.Catalog{}, err
		}
		defer pool.Close()

		if c, err = (&CatalogRepository{DB: pool}).Load(ctx); err != nil {
			return model.Catalog{}, err
		}
	}
	if err := pricing.Validate(c); err != nil {
		return model.Catalog{}, fmt.Errorf("%s catalog: %w", cfg.CatalogSource, err)
	}
	return c, nil
}
