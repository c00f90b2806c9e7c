package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AIchemizt/dance-analysis-server/internal/config"
	logging "github.com/AIchemizt/dance-analysis-server/internal/logging"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

var DB *gorm.DB

// Init opens the analysis-run store and migrates its schema. Only called
// when persistence is enabled in the configuration.
func Init(log *zap.Logger) error {
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established successfully.")
	return runMigrations(log)
}

func runMigrations(log *zap.Logger) error {
	if err := DB.AutoMigrate(&models.AnalysisRun{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// AutoMigrate does not create custom indexes; listings sort on
	// created_at, so ensure one exists.
	listIndex := `CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs (created_at DESC);`
	if err := DB.Exec(listIndex).Error; err != nil {
		return fmt.Errorf("failed to create index on analysis_runs: %w", err)
	}

	log.Info("Database migrations completed successfully.")
	return nil
}
