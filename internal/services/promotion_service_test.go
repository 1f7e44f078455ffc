package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/models"
)

func TestPromoteStudents(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)
	ctx := context.Background()

	grade5 := seedClass(t, db, "Grade 5", 1300, "A", "B")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A", "B")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "A", 1300)
	s2 := seedStudent(t, db, "Bilal Khan", grade5, "B", 1300)

	promoted, err := svc.PromoteStudents(ctx, []uint{s1.ID, s2.ID}, grade6.ID, "A")
	require.NoError(t, err)
	assert.Len(t, promoted, 2)

	for _, id := range []uint{s1.ID, s2.ID} {
		var st models.Student
		require.NoError(t, db.First(&st, id).Error)
		assert.Equal(t, grade6.ID, st.ClassID)
		assert.Equal(t, "Grade 6", st.ClassName)
		assert.Equal(t, "A", st.Section)
		assert.Equal(t, 1500.0, st.TuitionFee)
	}

	var entries []models.PromotionHistoryEntry
	require.NoError(t, db.Where("student_id = ?", s2.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "Grade 5", entries[0].PreviousClassName)
	assert.Equal(t, "B", entries[0].PreviousSection)
	assert.Equal(t, 1300.0, entries[0].OldTuitionFee)
	assert.Equal(t, 1500.0, entries[0].NewTuitionFee)
}

func TestPromoteStudentsDifferentClasses(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	grade5 := seedClass(t, db, "Grade 5", 1300, "A")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A")
	grade7 := seedClass(t, db, "Grade 7", 1700, "A")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "A", 1300)
	s2 := seedStudent(t, db, "Bilal Khan", grade6, "A", 1500)

	_, err := svc.PromoteStudents(context.Background(), []uint{s1.ID, s2.ID}, grade7.ID, "A")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPromoteStudentsInvalidSection(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	grade5 := seedClass(t, db, "Grade 5", 1300, "A")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A", "B")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "A", 1300)

	_, err := svc.PromoteStudents(context.Background(), []uint{s1.ID}, grade6.ID, "C")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// The reject left the student untouched.
	var st models.Student
	require.NoError(t, db.First(&st, s1.ID).Error)
	assert.Equal(t, grade5.ID, st.ClassID)
}

func TestPromoteStudentsUnknownStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)

	grade6 := seedClass(t, db, "Grade 6", 1500, "A")

	_, err := svc.PromoteStudents(context.Background(), []uint{9999}, grade6.ID, "A")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRollbackPromotion(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)
	ctx := context.Background()

	grade5 := seedClass(t, db, "Grade 5", 1300, "A", "B")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "B", 1250)

	_, err := svc.PromoteStudents(ctx, []uint{s1.ID}, grade6.ID, "A")
	require.NoError(t, err)

	restored, err := svc.RollbackPromotion(ctx, []uint{s1.ID})
	require.NoError(t, err)
	assert.Len(t, restored, 1)

	// Rollback restores the stored values exactly, including the
	// negotiated fee that differed from the class fee.
	var st models.Student
	require.NoError(t, db.First(&st, s1.ID).Error)
	assert.Equal(t, grade5.ID, st.ClassID)
	assert.Equal(t, "Grade 5", st.ClassName)
	assert.Equal(t, "B", st.Section)
	assert.Equal(t, 1250.0, st.TuitionFee)

	// The consumed entry is gone, so a second rollback has nothing
	// left to undo.
	var count int64
	require.NoError(t, db.Model(&models.PromotionHistoryEntry{}).
		Where("student_id = ?", s1.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = svc.RollbackPromotion(ctx, []uint{s1.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRollbackPromotionUsesLatestEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)
	ctx := context.Background()

	grade5 := seedClass(t, db, "Grade 5", 1300, "A")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A")
	grade7 := seedClass(t, db, "Grade 7", 1700, "A")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "A", 1300)

	_, err := svc.PromoteStudents(ctx, []uint{s1.ID}, grade6.ID, "A")
	require.NoError(t, err)
	_, err = svc.PromoteStudents(ctx, []uint{s1.ID}, grade7.ID, "A")
	require.NoError(t, err)

	_, err = svc.RollbackPromotion(ctx, []uint{s1.ID})
	require.NoError(t, err)

	var st models.Student
	require.NoError(t, db.First(&st, s1.ID).Error)
	assert.Equal(t, grade6.ID, st.ClassID)
	assert.Equal(t, 1500.0, st.TuitionFee)
}

func TestRollbackPromotionNoHistoryAbortsBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewPromotionService(db)
	ctx := context.Background()

	grade5 := seedClass(t, db, "Grade 5", 1300, "A")
	grade6 := seedClass(t, db, "Grade 6", 1500, "A")
	s1 := seedStudent(t, db, "Asha Verma", grade5, "A", 1300)
	s2 := seedStudent(t, db, "Bilal Khan", grade5, "A", 1300)

	_, err := svc.PromoteStudents(ctx, []uint{s1.ID}, grade6.ID, "A")
	require.NoError(t, err)

	// s2 was never promoted, so the whole rollback fails and s1 keeps
	// the promoted placement.
	_, err = svc.RollbackPromotion(ctx, []uint{s1.ID, s2.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var st models.Student
	require.NoError(t, db.First(&st, s1.ID).Error)
	assert.Equal(t, grade6.ID, st.ClassID)
}
