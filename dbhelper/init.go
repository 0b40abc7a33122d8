package dbhelper

import (
	"capsulifyapi/models"
	"capsulifyapi/services"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dsn() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		services.GetEnv("DB_USERNAME", ""),
		services.GetEnv("DB_PASSWORD", ""),
		services.GetEnv("DB_HOST", ""),
		services.GetEnv("DB_PORT", "5432"),
		services.GetEnv("DB_NAME", ""),
	)
}

// OpenDB connects and migrates every model.
func OpenDB() (*gorm.DB, error) {
	logLevel := logger.Warn
	if services.GetEnv("ENV", "dev") == "dev" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	for _, model := range []interface{}{
		&models.UserAccount{},
		&models.UserPushToken{},
		&models.ClothingVariant{},
		&models.UserClothingVariant{},
		&models.Clothing{},
		&models.OutfitFavourite{},
	} {
		if err := db.AutoMigrate(model); err != nil {
			return nil, fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return db, nil
}

func SetupDB() *gorm.DB {
	db, err := OpenDB()
	if err != nil {
		zap.L().Fatal("database setup failed", zap.Error(err))
	}
	return db
}

func setTestEnv() {
	os.Setenv("DB_USERNAME", services.GetEnv("TEST_DB_USERNAME", "capsulify"))
	os.Setenv("DB_PASSWORD", services.GetEnv("TEST_DB_PASSWORD", "capsulify"))
	os.Setenv("DB_HOST", services.GetEnv("TEST_DB_HOST", "localhost"))
	os.Setenv("DB_NAME", services.GetEnv("TEST_DB_NAME", "capsulify_test"))
	os.Setenv("DB_PORT", services.GetEnv("TEST_DB_PORT", "5432"))
	os.Setenv("ENV", "test")
}

// OpenTestDB connects to the local test database. Tests skip when it fails.
func OpenTestDB() (*gorm.DB, error) {
	setTestEnv()
	return OpenDB()
}

func SetupTestDB() *gorm.DB {
	setTestEnv()
	return SetupDB()
}
