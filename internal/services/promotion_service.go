package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/models"
)

// PromotionService moves students between classes and can undo the
// most recent move. Both directions follow the same discipline as the
// payment service: all students in one transaction, full abort on any
// failure.
type PromotionService struct {
	db *gorm.DB
}

// NewPromotionService creates a promotion service.
func NewPromotionService(db *gorm.DB) *PromotionService {
	return &PromotionService{db: db}
}

// PromoteStudents moves the listed students into targetClassID/section,
// pushing one history entry per student. All students must currently
// share one class, and the section must be valid for the target class.
func (s *PromotionService) PromoteStudents(ctx context.Context, studentIDs []uint, targetClassID uint, section string) ([]models.Student, error) {
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidation("student ids are required")
	}
	if targetClassID == 0 {
		return nil, apperrors.NewValidation("target class id is required")
	}
	if section == "" {
		return nil, apperrors.NewValidation("section is required")
	}

	var promoted []models.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var students []models.Student
		if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return err
		}
		if len(students) != len(studentIDs) {
			return apperrors.NewNotFound("one or more students")
		}
		for _, st := range students[1:] {
			if st.ClassID != students[0].ClassID {
				return apperrors.NewValidation("students are not in the same class")
			}
		}

		target, err := findClass(tx, targetClassID)
		if err != nil {
			return err
		}
		if !target.HasSection(section) {
			return apperrors.NewValidation("invalid section %s for class %s", section, target.ClassName)
		}

		now := time.Now()
		for i := range students {
			st := &students[i]
			entry := models.PromotionHistoryEntry{
				StudentID:         st.ID,
				PreviousClassID:   st.ClassID,
				PreviousClassName: st.ClassName,
				PreviousSection:   st.Section,
				NewClassID:        target.ID,
				NewClassName:      target.ClassName,
				NewSection:        section,
				PromotionDate:     now,
				OldTuitionFee:     st.TuitionFee,
				NewTuitionFee:     target.Fee,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{
				"class_id":    target.ID,
				"class_name":  target.ClassName,
				"section":     section,
				"tuition_fee": target.Fee,
			}
			if err := tx.Model(st).Updates(updates).Error; err != nil {
				return err
			}
		}

		promoted = students
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return promoted, nil
}

// RollbackPromotion pops the most recent promotion entry for each
// listed student and restores the stored class, section and fee. A
// student with no promotion history fails the whole batch; rollback is
// never a silent no-op.
func (s *PromotionService) RollbackPromotion(ctx context.Context, studentIDs []uint) ([]models.Student, error) {
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidation("student ids are required")
	}

	var restored []models.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range studentIDs {
			student, err := findStudent(tx, id)
			if err != nil {
				return err
			}

			var entry models.PromotionHistoryEntry
			err = tx.Where("student_id = ?", id).
				Order("id desc").
				First(&entry).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NewValidation("student %d has no promotion history to roll back", id)
				}
				return err
			}

			updates := map[string]interface{}{
				"class_id":    entry.PreviousClassID,
				"class_name":  entry.PreviousClassName,
				"section":     entry.PreviousSection,
				"tuition_fee": entry.OldTuitionFee,
			}
			if err := tx.Model(student).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entry).Error; err != nil {
				return err
			}
			restored = append(restored, *student)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return restored, nil
}
