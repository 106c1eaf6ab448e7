package migration

import (
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return models.All()
}
