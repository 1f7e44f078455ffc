package services

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"school_ledger_echo/internal/models"
)

// InitDB initializes the database connection with connection pooling.
// TranslateError is on so unique-index violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors; the payment
// service relies on that to detect duplicate cycle payments.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models and seeds the
// invoice counter row the sequence generator increments.
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.Class{},
		&models.Student{},
		&models.Payment{},
		&models.PaymentHistoryEntry{},
		&models.PromotionHistoryEntry{},
		&models.PaymentBatch{},
		&models.InvoiceCounter{},
		&models.ScheduledTask{},
		&models.ScheduledTaskHistory{},
	)
	if err != nil {
		return err
	}

	seed := models.InvoiceCounter{Name: InvoiceCounterName}
	if err := db.Where(models.InvoiceCounter{Name: InvoiceCounterName}).
		FirstOrCreate(&seed).Error; err != nil {
		return err
	}

	log.Println("Database migrations completed")
	return nil
}
