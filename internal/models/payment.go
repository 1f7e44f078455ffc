package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentType classifies a fee payment
type PaymentType string

const (
	// PaymentTypeStandard is the one-per-student-per-cycle regular fee
	PaymentTypeStandard PaymentType = "standard"
	// PaymentTypeCustom covers off-cycle payments (arrears, advances)
	PaymentTypeCustom PaymentType = "custom"
)

// Payment is one fee transaction in the ledger. ClassName, Section and
// Amount are snapshots taken at payment time; a later class rename or
// fee change never rewrites historical rows.
//
// The partial unique index keeps at most one live standard payment per
// (student, cycle); custom payments are exempt.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	StudentID uint `gorm:"index;uniqueIndex:idx_payments_student_cycle,where:payment_type = 'standard' AND deleted_at IS NULL" json:"student_id"`
	ClassID   uint `gorm:"index" json:"class_id"`

	StudentName string  `gorm:"type:varchar(255)" json:"student_name"`
	ClassName   string  `gorm:"type:varchar(100)" json:"class_name"`
	Section     string  `gorm:"type:varchar(20)" json:"section"`
	Amount      float64 `gorm:"type:decimal(15,2)" json:"amount"`

	// PayID is the MMYY billing-cycle tag the payment settles. It is
	// independent of CreatedAt: a payment recorded in March can carry
	// February's tag to clear an arrear.
	PayID string `gorm:"type:varchar(4);not null;index;uniqueIndex:idx_payments_student_cycle,where:payment_type = 'standard' AND deleted_at IS NULL" json:"pay_id"`

	PaymentType   PaymentType `gorm:"type:varchar(50);default:'standard'" json:"payment_type"`
	PaymentMethod string      `gorm:"type:varchar(50);default:'cash'" json:"payment_method"`
	PaymentDate   time.Time   `json:"payment_date"`
	Description   string      `gorm:"type:text" json:"description,omitempty"`

	// InvoiceID is the external serial pre-allocated by the sequence
	// generator; unique when present.
	InvoiceID *string `gorm:"type:varchar(50);uniqueIndex" json:"invoice_id,omitempty"`

	// CreatedBy is the authenticated actor's UID, kept for audit.
	CreatedBy string `gorm:"type:varchar(128)" json:"created_by"`

	// BatchID links payments committed together in one bulk operation.
	BatchID *string `gorm:"type:varchar(36);index" json:"batch_id,omitempty"`

	// Relationships
	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Class   Class   `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}
