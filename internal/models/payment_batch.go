package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentBatchStatus tracks the lifecycle of a bulk commit
type PaymentBatchStatus string

const (
	PaymentBatchStatusCommitted PaymentBatchStatus = "committed"
	PaymentBatchStatusReverted  PaymentBatchStatus = "reverted"
)

// PaymentBatch records one bulk payment commit, keyed by a UUID handed
// back to the caller. It replaces any in-process batch bookkeeping so
// batch state survives restarts and is queryable.
type PaymentBatch struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BatchID      string             `gorm:"type:varchar(36);uniqueIndex" json:"batch_id"`
	PayID        string             `gorm:"type:varchar(4);index" json:"pay_id"`
	StudentCount int                `json:"student_count"`
	TotalAmount  float64            `gorm:"type:decimal(15,2)" json:"total_amount"`
	Status       PaymentBatchStatus `gorm:"type:varchar(20);default:'committed'" json:"status"`
	CreatedBy    string             `gorm:"type:varchar(128)" json:"created_by"`
}
