package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InvoiceCounterName is the counter row backing invoice serials.
const InvoiceCounterName = "invoice"

// InvoiceSequence allocates invoice serials from a counter row. Next
// runs inside the caller's transaction: the atomic UPDATE serializes
// concurrent allocations and a rollback returns the number to the
// pool, so committed serials stay monotonic without gaps from aborted
// writes.
type InvoiceSequence struct{}

// NewInvoiceSequence creates an invoice serial allocator.
func NewInvoiceSequence() *InvoiceSequence {
	return &InvoiceSequence{}
}

// Next allocates the next serial, formatted INV<YYMM>-<counter>.
func (s *InvoiceSequence) Next(tx *gorm.DB) (string, error) {
	var value int64
	err := tx.Raw(
		"UPDATE invoice_counters SET value = value + 1, updated_at = ? WHERE name = ? RETURNING value",
		time.Now(), InvoiceCounterName,
	).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("allocating invoice serial: %w", err)
	}
	if value == 0 {
		return "", fmt.Errorf("invoice counter %q is not seeded", InvoiceCounterName)
	}
	return fmt.Sprintf("INV%s-%06d", time.Now().Format("0601"), value), nil
}
