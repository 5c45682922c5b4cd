// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// gen_random_uuid() lives in pgcrypto before PostgreSQL 13
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Transporter{},
		&models.Vehicle{},
		&models.LicenseRequest{},
		&models.Transaction{},
		&models.Notification{},
		&models.AuditLog{},
		&models.CNPJRecord{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Vehicle indexes
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_owner_plate ON vehicles(owner_id, plate) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_vehicles_type ON vehicles(type)",

		// License request indexes
		"CREATE INDEX IF NOT EXISTS idx_license_requests_user_draft ON license_requests(user_id, is_draft)",
		"CREATE INDEX IF NOT EXISTS idx_license_requests_status ON license_requests(status) WHERE is_draft = false",
		"CREATE INDEX IF NOT EXISTS idx_license_requests_submitted_at ON license_requests(submitted_at DESC)",
		// Membership lookups for the staff queue's per-state filter
		"CREATE INDEX IF NOT EXISTS idx_license_requests_states ON license_requests USING GIN(states)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_status ON transactions(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read, created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// CNPJ cache sweeper scans by age
		"CREATE INDEX IF NOT EXISTS idx_cnpj_records_fetched_at ON cnpj_records(fetched_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create a default staff user so the processing queue is reachable on a
	// fresh install. Identity still comes from the external provider; this
	// row only carries the role.
	var staffCount int64
	db.Model(&models.User{}).Where("user_type IN ?", []models.UserType{models.UserTypeStaff, models.UserTypeAdmin}).Count(&staffCount)

	if staffCount == 0 {
		staff := &models.User{
			Name:     "Equipe Operacional",
			Email:    "operacoes@rodoaet.com.br",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
		}

		if err := db.Create(staff).Error; err != nil {
			return fmt.Errorf("failed to create staff user: %w", err)
		}

		log.Println("Default staff user created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
