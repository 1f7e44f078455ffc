package tasks

import (
	"context"
	"log"

	"gorm.io/gorm"

	"school_ledger_echo/internal/models"
	"school_ledger_echo/internal/services"
)

// ReconcileCollectionsTaskDef re-derives the daily collections counter
// from the ledger. Scheduled recurring, it is the self-healing path
// for counter drift left by cache failures after committed writes.
type ReconcileCollectionsTaskDef struct {
	Collections *services.CollectionsCache
}

// TaskID returns the unique identifier for this task
func (t *ReconcileCollectionsTaskDef) TaskID() string {
	return "reconcile_collections"
}

// HandleExecution recomputes the counter and reports the fresh total.
func (t *ReconcileCollectionsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	total, err := t.Collections.Recompute(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[Task: reconcile_collections] counter reset to %.2f", total)
	return map[string]interface{}{
		"status": "success",
		"total":  total,
	}, nil
}

// VerifyHistoryTaskDef cross-checks the student payment-history mirror
// against the ledger and reports any divergence. It never repairs;
// divergence means a write path bug that needs eyes.
type VerifyHistoryTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *VerifyHistoryTaskDef) TaskID() string {
	return "verify_payment_history"
}

// HandleExecution counts ledger rows without a mirror entry and mirror
// entries without a ledger row.
func (t *VerifyHistoryTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	var orphanPayments int64
	err := db.WithContext(ctx).Model(&models.Payment{}).
		Where("NOT EXISTS (SELECT 1 FROM payment_history_entries e WHERE e.payment_id = payments.id)").
		Count(&orphanPayments).Error
	if err != nil {
		return nil, err
	}

	var orphanEntries int64
	err = db.WithContext(ctx).Model(&models.PaymentHistoryEntry{}).
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.id = payment_history_entries.payment_id AND p.deleted_at IS NULL)").
		Count(&orphanEntries).Error
	if err != nil {
		return nil, err
	}

	if orphanPayments > 0 || orphanEntries > 0 {
		log.Printf("[Task: verify_payment_history] mirror divergence: %d payments unmirrored, %d stale entries", orphanPayments, orphanEntries)
	}
	return map[string]interface{}{
		"status":            "success",
		"unmirrored":        orphanPayments,
		"stale_entries":     orphanEntries,
		"mirror_consistent": orphanPayments == 0 && orphanEntries == 0,
	}, nil
}
