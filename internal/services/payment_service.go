package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/billing"
	"school_ledger_echo/internal/models"
)

// MaxBulkStudents caps one bulk commit. The whole batch shares a
// single transaction, so batch size bounds how long conflicting
// writers are blocked.
const MaxBulkStudents = 200

// PaymentService orchestrates ledger writes. Every create/delete runs
// the payment row and the student's history mirror in one transaction;
// the collections counter is updated after commit and never fails the
// request.
type PaymentService struct {
	db          *gorm.DB
	collections *CollectionsCache
	invoices    *InvoiceSequence
}

// NewPaymentService creates a payment service with its collaborators.
func NewPaymentService(db *gorm.DB, collections *CollectionsCache, invoices *InvoiceSequence) *PaymentService {
	return &PaymentService{
		db:          db,
		collections: collections,
		invoices:    invoices,
	}
}

// BulkResult reports one committed bulk payment operation.
type BulkResult struct {
	BatchID     string           `json:"batch_id"`
	PayID       string           `json:"pay_id"`
	TotalAmount float64          `json:"total_amount"`
	Payments    []models.Payment `json:"payments"`
}

// BulkDeleteResult reports one bulk deletion.
type BulkDeleteResult struct {
	PayID       string  `json:"pay_id"`
	Deleted     int     `json:"deleted"`
	TotalAmount float64 `json:"total_amount"`
}

// CreateRegularPayment records the current cycle's standard fee for a
// student. The amount and class name are snapshotted from the class at
// creation time. A second regular payment for the same student and
// cycle fails with a DuplicateError; the partial unique index on the
// ledger makes that hold under concurrent submission, not just against
// what this transaction has seen.
func (s *PaymentService) CreateRegularPayment(ctx context.Context, studentID uint, actorUID string) (*models.Payment, error) {
	if studentID == 0 {
		return nil, apperrors.NewValidation("student id is required")
	}
	if actorUID == "" {
		return nil, apperrors.NewValidation("actor id is required")
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := findStudent(tx, studentID)
		if err != nil {
			return err
		}
		grade, err := findClass(tx, student.ClassID)
		if err != nil {
			return err
		}

		serial, err := s.invoices.Next(tx)
		if err != nil {
			return err
		}

		payment = models.Payment{
			StudentID:   student.ID,
			ClassID:     grade.ID,
			StudentName: student.Name,
			ClassName:   grade.ClassName,
			Section:     student.Section,
			Amount:      grade.Fee,
			PayID:       billing.CurrentTag(),
			PaymentType: models.PaymentTypeStandard,
			PaymentDate: time.Now(),
			InvoiceID:   &serial,
			CreatedBy:   actorUID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.NewDuplicate("payment already exists for student %d and cycle %s", student.ID, payment.PayID)
			}
			return err
		}

		return tx.Create(&models.PaymentHistoryEntry{
			StudentID: student.ID,
			PaymentID: payment.ID,
			PayID:     payment.PayID,
		}).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.cacheIncrement(ctx, payment.Amount)
	return &payment, nil
}

// CreateCustomPayment records an off-cycle payment: an arrear for a
// past cycle or an advance for a future one. The tag is caller-
// supplied and the one-per-cycle constraint does not apply (unless the
// caller explicitly asks for a standard payment, in which case the
// ledger index still guards the pair). The amount comes from the
// student's own tuition fee.
func (s *PaymentService) CreateCustomPayment(ctx context.Context, studentID uint, payID string, paymentType models.PaymentType, actorUID string) (*models.Payment, error) {
	if studentID == 0 {
		return nil, apperrors.NewValidation("student id is required")
	}
	if actorUID == "" {
		return nil, apperrors.NewValidation("actor id is required")
	}
	if !billing.IsValid(payID) {
		return nil, apperrors.NewValidation("invalid cycle tag %q: want MMYY with month 01-12", payID)
	}
	if paymentType == "" {
		paymentType = models.PaymentTypeCustom
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := findStudent(tx, studentID)
		if err != nil {
			return err
		}
		grade, err := findClass(tx, student.ClassID)
		if err != nil {
			return err
		}

		serial, err := s.invoices.Next(tx)
		if err != nil {
			return err
		}

		payment = models.Payment{
			StudentID:   student.ID,
			ClassID:     grade.ID,
			StudentName: student.Name,
			ClassName:   grade.ClassName,
			Section:     student.Section,
			Amount:      student.TuitionFee,
			PayID:       payID,
			PaymentType: paymentType,
			PaymentDate: time.Now(),
			InvoiceID:   &serial,
			CreatedBy:   actorUID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.NewDuplicate("payment already exists for student %d and cycle %s", student.ID, payID)
			}
			return err
		}

		return tx.Create(&models.PaymentHistoryEntry{
			StudentID: student.ID,
			PaymentID: payment.ID,
			PayID:     payment.PayID,
		}).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.cacheIncrement(ctx, payment.Amount)
	return &payment, nil
}

// CreateBulkPayments commits one regular payment per listed student in
// a single transaction. Any missing student or class aborts the whole
// batch; nothing is persisted partially. Invoice serials are allocated
// per student inside the transaction, history entries are inserted in
// one bulk write, and the collections counter is bumped once by the
// batch total after commit.
func (s *PaymentService) CreateBulkPayments(ctx context.Context, studentIDs []uint, actorUID string) (*BulkResult, error) {
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidation("student ids are required")
	}
	if len(studentIDs) > MaxBulkStudents {
		return nil, apperrors.NewValidation("at most %d students per bulk commit, got %d", MaxBulkStudents, len(studentIDs))
	}
	if actorUID == "" {
		return nil, apperrors.NewValidation("actor id is required")
	}
	seen := make(map[uint]bool, len(studentIDs))
	for _, id := range studentIDs {
		if id == 0 {
			return nil, apperrors.NewValidation("student ids must be non-zero")
		}
		if seen[id] {
			return nil, apperrors.NewValidation("duplicate student id %d in bulk request", id)
		}
		seen[id] = true
	}

	result := BulkResult{
		BatchID: uuid.NewString(),
		PayID:   billing.CurrentTag(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var students []models.Student
		if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return err
		}
		if len(students) != len(studentIDs) {
			return apperrors.NewNotFound("one or more students")
		}

		classIDs := make([]uint, 0, len(students))
		for _, st := range students {
			classIDs = append(classIDs, st.ClassID)
		}
		var classes []models.Class
		if err := tx.Where("id IN ?", classIDs).Find(&classes).Error; err != nil {
			return err
		}
		classByID := make(map[uint]models.Class, len(classes))
		for _, cls := range classes {
			classByID[cls.ID] = cls
		}

		payments := make([]models.Payment, 0, len(students))
		for _, st := range students {
			grade, ok := classByID[st.ClassID]
			if !ok {
				return apperrors.NewNotFound("class for student " + st.Name)
			}
			serial, err := s.invoices.Next(tx)
			if err != nil {
				return err
			}
			payments = append(payments, models.Payment{
				StudentID:   st.ID,
				ClassID:     grade.ID,
				StudentName: st.Name,
				ClassName:   grade.ClassName,
				Section:     st.Section,
				Amount:      grade.Fee,
				PayID:       result.PayID,
				PaymentType: models.PaymentTypeStandard,
				PaymentDate: time.Now(),
				InvoiceID:   &serial,
				CreatedBy:   actorUID,
				BatchID:     &result.BatchID,
			})
		}

		if err := tx.Create(&payments).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.NewDuplicate("one or more students already paid cycle %s", result.PayID)
			}
			return err
		}

		entries := make([]models.PaymentHistoryEntry, 0, len(payments))
		for _, p := range payments {
			result.TotalAmount += p.Amount
			entries = append(entries, models.PaymentHistoryEntry{
				StudentID: p.StudentID,
				PaymentID: p.ID,
				PayID:     p.PayID,
			})
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}

		result.Payments = payments
		return tx.Create(&models.PaymentBatch{
			BatchID:      result.BatchID,
			PayID:        result.PayID,
			StudentCount: len(payments),
			TotalAmount:  result.TotalAmount,
			Status:       models.PaymentBatchStatusCommitted,
			CreatedBy:    actorUID,
		}).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	// One aggregate increment for the whole batch, not N round-trips.
	s.cacheIncrement(ctx, result.TotalAmount)
	return &result, nil
}

// DeletePayment removes a payment and its mirrored history entry, then
// decrements the collections counter by the deleted amount.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	if paymentID == 0 {
		return nil, apperrors.NewValidation("payment id is required")
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("payment")
			}
			return err
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}

		res := tx.Where("payment_id = ?", payment.ID).Delete(&models.PaymentHistoryEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// The mirror invariant is broken; abort rather than leave
			// the ledger and the student history further apart.
			return errors.New("payment history entry missing for payment")
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.cacheDecrement(ctx, payment.Amount)
	return &payment, nil
}

// DeleteBulkPayments removes every payment matching the given students
// and cycle in one transaction, pulls the history entries in one bulk
// delete, and decrements the counter once by the aggregate amount.
func (s *PaymentService) DeleteBulkPayments(ctx context.Context, studentIDs []uint, payID string) (*BulkDeleteResult, error) {
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidation("student ids are required")
	}
	if !billing.IsValid(payID) {
		return nil, apperrors.NewValidation("invalid cycle tag %q: want MMYY with month 01-12", payID)
	}

	result := BulkDeleteResult{PayID: payID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payments []models.Payment
		if err := tx.Where("student_id IN ? AND pay_id = ?", studentIDs, payID).Find(&payments).Error; err != nil {
			return err
		}
		if len(payments) == 0 {
			return apperrors.NewNotFound("payments for the given students and cycle")
		}

		paymentIDs := make([]uint, 0, len(payments))
		batchIDs := make([]string, 0, len(payments))
		seenBatch := make(map[string]bool)
		for _, p := range payments {
			paymentIDs = append(paymentIDs, p.ID)
			result.TotalAmount += p.Amount
			if p.BatchID != nil && !seenBatch[*p.BatchID] {
				seenBatch[*p.BatchID] = true
				batchIDs = append(batchIDs, *p.BatchID)
			}
		}
		result.Deleted = len(payments)

		if err := tx.Delete(&models.Payment{}, paymentIDs).Error; err != nil {
			return err
		}

		res := tx.Where("payment_id IN ?", paymentIDs).Delete(&models.PaymentHistoryEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(paymentIDs)) {
			// Same mirror invariant as the single delete: each removed
			// payment must take exactly one history entry with it.
			return errors.New("payment history entries missing for deleted payments")
		}

		// A batch whose payments are all gone is reverted; a batch with
		// live payments left keeps its committed status.
		if len(batchIDs) > 0 {
			err := tx.Model(&models.PaymentBatch{}).
				Where("batch_id IN ?", batchIDs).
				Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.batch_id = payment_batches.batch_id AND p.deleted_at IS NULL)").
				Update("status", models.PaymentBatchStatusReverted).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.cacheDecrement(ctx, result.TotalAmount)
	return &result, nil
}

// GetPaymentByID fetches one payment.
func (s *PaymentService) GetPaymentByID(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("payment")
		}
		return nil, err
	}
	return &payment, nil
}

// GetPaymentsByStudent lists a student's ledger rows, newest first.
func (s *PaymentService) GetPaymentsByStudent(ctx context.Context, studentID uint) ([]models.Payment, error) {
	if _, err := findStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// GetStudentHistory returns the student's mirrored payment-history
// entries in insertion order.
func (s *PaymentService) GetStudentHistory(ctx context.Context, studentID uint) ([]models.PaymentHistoryEntry, error) {
	if _, err := findStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}
	var entries []models.PaymentHistoryEntry
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *PaymentService) cacheIncrement(ctx context.Context, amount float64) {
	if err := s.collections.IncrementBy(ctx, amount); err != nil {
		// The ledger write already committed; the counter heals on the
		// next reconciliation run.
		log.Printf("warning: collections cache increment failed: %v", err)
	}
}

func (s *PaymentService) cacheDecrement(ctx context.Context, amount float64) {
	if err := s.collections.DecrementBy(ctx, amount); err != nil {
		log.Printf("warning: collections cache decrement failed: %v", err)
	}
}

func findStudent(tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := tx.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("student")
		}
		return nil, err
	}
	return &student, nil
}

func findClass(tx *gorm.DB, id uint) (*models.Class, error) {
	var class models.Class
	if err := tx.First(&class, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("class")
		}
		return nil, err
	}
	return &class, nil
}

// wrapTxErr keeps domain errors intact and wraps everything else as a
// transaction abort so callers know the write rolled back atomically.
func wrapTxErr(err error) error {
	if apperrors.IsValidation(err) || apperrors.IsNotFound(err) || apperrors.IsDuplicate(err) {
		return err
	}
	return &apperrors.TransactionAbortError{Err: err}
}
