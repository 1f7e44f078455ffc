package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/billing"
	"school_ledger_echo/internal/models"
)

func TestCycleCollectionReport(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	reports := NewReportService(db)
	ctx := context.Background()

	grade1 := seedClass(t, db, "Grade 1", 1000, "A", "B")
	grade2 := seedClass(t, db, "Grade 2", 1500, "A")

	a1 := seedStudent(t, db, "Asha Verma", grade1, "A", 1000)
	seedStudent(t, db, "Bilal Khan", grade1, "A", 1000)
	seedStudent(t, db, "Chitra Rao", grade1, "B", 1000)
	d1 := seedStudent(t, db, "Dev Patel", grade2, "A", 1500)

	_, err := svc.CreateRegularPayment(ctx, a1.ID, "cashier-1")
	require.NoError(t, err)
	_, err = svc.CreateRegularPayment(ctx, d1.ID, "cashier-1")
	require.NoError(t, err)

	report, err := reports.CycleCollectionReport(ctx, billing.CurrentTag())
	require.NoError(t, err)

	assert.Equal(t, 4, report.StudentCount)
	assert.Equal(t, 2, report.PaidCount)
	assert.Equal(t, 4500.0, report.RevenueTarget)
	assert.Equal(t, 2500.0, report.RevenueCollected)

	require.Len(t, report.Classes, 2)
	g1 := report.Classes[0]
	assert.Equal(t, "Grade 1", g1.ClassName)
	assert.Equal(t, 3, g1.StudentCount)
	assert.Equal(t, 1, g1.PaidCount)
	assert.Equal(t, 3000.0, g1.RevenueTarget)
	assert.Equal(t, 1000.0, g1.RevenueCollected)
	require.Len(t, g1.Sections, 2)
	assert.Equal(t, "A", g1.Sections[0].Section)
	assert.Equal(t, 2, g1.Sections[0].StudentCount)
	assert.Equal(t, 1, g1.Sections[0].PaidCount)
	assert.Equal(t, "B", g1.Sections[1].Section)
	assert.Equal(t, 0, g1.Sections[1].PaidCount)

	g2 := report.Classes[1]
	assert.Equal(t, "Grade 2", g2.ClassName)
	assert.Equal(t, 1500.0, g2.RevenueCollected)
}

func TestCycleCollectionReportIgnoresDeletedAndCustom(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	reports := NewReportService(db)
	ctx := context.Background()

	grade1 := seedClass(t, db, "Grade 1", 1000, "A")
	a1 := seedStudent(t, db, "Asha Verma", grade1, "A", 1000)
	b1 := seedStudent(t, db, "Bilal Khan", grade1, "A", 1000)

	paid, err := svc.CreateRegularPayment(ctx, a1.ID, "cashier-1")
	require.NoError(t, err)
	_, err = svc.DeletePayment(ctx, paid.ID)
	require.NoError(t, err)

	// A same-tag custom payment does not mark the cycle as paid.
	_, err = svc.CreateCustomPayment(ctx, b1.ID, billing.CurrentTag(), models.PaymentTypeCustom, "cashier-1")
	require.NoError(t, err)

	report, err := reports.CycleCollectionReport(ctx, billing.CurrentTag())
	require.NoError(t, err)
	assert.Equal(t, 2, report.StudentCount)
	assert.Equal(t, 0, report.PaidCount)
	assert.Equal(t, 0.0, report.RevenueCollected)
}

func TestCycleCollectionReportInvalidTag(t *testing.T) {
	reports := NewReportService(newTestDB(t))

	_, err := reports.CycleCollectionReport(context.Background(), "1326")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestMonthlyCashReport(t *testing.T) {
	db := newTestDB(t)
	reports := NewReportService(db)
	ctx := context.Background()

	grade1 := seedClass(t, db, "Grade 1", 1000, "A")
	student := seedStudent(t, db, "Asha Verma", grade1, "A", 1000)

	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	currentTag := billing.TagAt(first)
	arrearTag := billing.TagAt(first.AddDate(0, -1, 0))
	advanceTag := billing.TagAt(first.AddDate(0, 1, 0))

	seedPayment := func(tag string, amount float64, paymentType models.PaymentType) {
		require.NoError(t, db.Create(&models.Payment{
			StudentID:   student.ID,
			ClassID:     grade1.ID,
			StudentName: student.Name,
			ClassName:   grade1.ClassName,
			Section:     student.Section,
			Amount:      amount,
			PayID:       tag,
			PaymentType: paymentType,
			PaymentDate: now,
		}).Error)
	}

	seedPayment(currentTag, 100, models.PaymentTypeStandard)
	seedPayment(currentTag, 50, models.PaymentTypeCustom)
	seedPayment(arrearTag, 30, models.PaymentTypeCustom)
	seedPayment(advanceTag, 20, models.PaymentTypeCustom)

	report, err := reports.MonthlyCashReport(ctx, now.Year(), now.Month())
	require.NoError(t, err)

	assert.Equal(t, CashBucket{Count: 1, Amount: 100}, report.Regular)
	assert.Equal(t, CashBucket{Count: 1, Amount: 50}, report.OutOfCycle)
	assert.Equal(t, CashBucket{Count: 1, Amount: 30}, report.Arrear)
	assert.Equal(t, CashBucket{Count: 1, Amount: 20}, report.Advance)
	assert.Equal(t, CashBucket{Count: 4, Amount: 200}, report.Total)
}

func TestMonthlyCashReportMonthBoundaries(t *testing.T) {
	db := newTestDB(t)
	reports := NewReportService(db)
	ctx := context.Background()

	grade1 := seedClass(t, db, "Grade 1", 1000, "A")
	student := seedStudent(t, db, "Asha Verma", grade1, "A", 1000)

	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	seedAt := func(createdAt time.Time, amount float64) {
		require.NoError(t, db.Create(&models.Payment{
			CreatedAt:   createdAt,
			StudentID:   student.ID,
			ClassID:     grade1.ID,
			Amount:      amount,
			PayID:       billing.TagAt(createdAt),
			PaymentType: models.PaymentTypeStandard,
			PaymentDate: createdAt,
		}).Error)
	}

	// First instant of the month is in; the instant before is out.
	// Boundaries are drawn in the same location the timestamps carry.
	seedAt(first, 100)
	seedAt(first.Add(-time.Second), 30)

	report, err := reports.MonthlyCashReport(ctx, now.Year(), now.Month())
	require.NoError(t, err)
	assert.Equal(t, CashBucket{Count: 1, Amount: 100}, report.Total)
}

func TestMonthlyCashReportValidation(t *testing.T) {
	reports := NewReportService(newTestDB(t))
	ctx := context.Background()

	_, err := reports.MonthlyCashReport(ctx, 1999, time.January)
	assert.True(t, apperrors.IsValidation(err))

	_, err = reports.MonthlyCashReport(ctx, 2026, time.Month(13))
	assert.True(t, apperrors.IsValidation(err))
}

func TestClassPaymentStatus(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	reports := NewReportService(db)
	ctx := context.Background()

	grade1 := seedClass(t, db, "Grade 1", 1000, "A")
	a1 := seedStudent(t, db, "Asha Verma", grade1, "A", 1000)
	seedStudent(t, db, "Bilal Khan", grade1, "A", 1000)

	payment, err := svc.CreateRegularPayment(ctx, a1.ID, "cashier-1")
	require.NoError(t, err)

	rows, err := reports.ClassPaymentStatus(ctx, "Grade 1", billing.CurrentTag())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byName := make(map[string]StudentPaymentStatus, len(rows))
	for _, row := range rows {
		byName[row.Name] = row
	}
	require.True(t, byName["Asha Verma"].Paid)
	require.NotNil(t, byName["Asha Verma"].PaymentID)
	assert.Equal(t, payment.ID, *byName["Asha Verma"].PaymentID)
	assert.False(t, byName["Bilal Khan"].Paid)
	assert.Nil(t, byName["Bilal Khan"].PaymentID)
}
