package postgres

import (
	"log"

	"github.com/LavaJover/storefront-attribution-service/internal/config"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/migrate"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.AttributionConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.AttributionDB.Dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.AttributionDB.AutoMigrate {
		if err := db.AutoMigrate(AllModels()...); err != nil {
			log.Fatalf("failed to auto-migrate: %v\n", err)
		}
		return db
	}

	if err := migrate.RunMigrations(db, cfg.AttributionDB.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v\n", err)
	}
	return db
}

// AllModels lists the tables owned by the service.
func AllModels() []any {
	return []any{
		&models.ProductModel{},
		&models.AffiliateModel{},
		&models.InstagramCampaignModel{},
		&models.AffiliateClickModel{},
		&models.CampaignClickModel{},
	}
}
