package migrate

import (
	"context"
	"fmt"

	"github.com/drinkroute/distribution-backend/pkg/config"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at API startup, but only in the dev
// environment with DISTRO_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	if !cfg.App.IsDev() {
		logg.Warn(ctx, "auto migrate ignored outside dev")
		return nil
	}

	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	logg.Info(ctx, "applying migrations at startup")
	if err := Run(ctx, pool, DefaultDir, "up"); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logg.Info(ctx, "migrations applied")
	return nil
}
