package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"school_ledger_echo/internal/models"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory database with the full schema,
// including the partial unique index the duplicate tests rely on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

// newTestCache backs a RedisCache with an in-process redis.
func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client)
}

func newTestPaymentService(t *testing.T) (*PaymentService, *gorm.DB, *CollectionsCache) {
	t.Helper()

	db := newTestDB(t)
	collections := NewCollectionsCache(newTestCache(t), db)
	svc := NewPaymentService(db, collections, NewInvoiceSequence())
	return svc, db, collections
}

func seedClass(t *testing.T, db *gorm.DB, name string, fee float64, sections ...string) models.Class {
	t.Helper()

	class := models.Class{ClassName: name, Fee: fee, Sections: sections}
	require.NoError(t, db.Create(&class).Error)
	return class
}

func seedStudent(t *testing.T, db *gorm.DB, name string, class models.Class, section string, tuitionFee float64) models.Student {
	t.Helper()

	student := models.Student{
		Name:       name,
		ClassID:    class.ID,
		ClassName:  class.ClassName,
		Section:    section,
		TuitionFee: tuitionFee,
		FeeType:    models.PaymentTypeStandard,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}
