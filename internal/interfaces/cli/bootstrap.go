// Package cli holds the setup shared by the lnsubs subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/orris-inc/lnsubs/internal/infrastructure/config"
	"github.com/orris-inc/lnsubs/internal/infrastructure/database"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// Bootstrap loads configuration for env, initializes logging and the business
// timezone, and opens the database. Callers must call database.Close.
func Bootstrap(env string) (*config.Config, logger.Interface, error) {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = GinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, log, nil
}

// GinMode maps an environment name onto a gin mode.
func GinMode(environment string) string {
	switch environment {
	case "production", "prod", constants.EnvProduction:
		return constants.EnvProduction
	case constants.EnvTest, "testing":
		return constants.EnvTest
	default:
		return constants.EnvDebug
	}
}
