package models

import (
	"time"

	"gorm.io/gorm"
)

// Student carries the live class placement plus two append-only
// history lists kept as child tables: one mirroring the payment
// ledger, one recording class transitions.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name           string `gorm:"type:varchar(255)" json:"name"`
	RegistrationNo string `gorm:"type:varchar(50);index" json:"registration_no"`

	ClassID   uint   `gorm:"index" json:"class_id"`
	ClassName string `gorm:"type:varchar(100);index" json:"class_name"`
	Section   string `gorm:"type:varchar(20)" json:"section"`

	// TuitionFee is the student's own negotiated fee, used for custom
	// payments. Regular payments charge the class fee instead.
	TuitionFee float64 `gorm:"type:decimal(15,2)" json:"tuition_fee"`

	// FeeType seeds paymentType on regular payments ("standard" unless
	// the student has a special arrangement).
	FeeType  PaymentType `gorm:"type:varchar(50);default:'standard'" json:"fee_type"`
	IsActive bool        `gorm:"default:true" json:"is_active"`

	// Relationships
	Class            Class                   `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	PaymentHistory   []PaymentHistoryEntry   `gorm:"foreignKey:StudentID" json:"payment_history,omitempty"`
	PromotionHistory []PromotionHistoryEntry `gorm:"foreignKey:StudentID" json:"promotion_history,omitempty"`
}

// PaymentHistoryEntry mirrors one ledger row on the owning student.
// The set of entries for a student must always match the live Payment
// rows referencing that student; both sides are written in the same
// transaction. Entries are hard-deleted when the payment is removed.
type PaymentHistoryEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StudentID uint   `gorm:"index" json:"student_id"`
	PaymentID uint   `gorm:"index" json:"payment_id"`
	PayID     string `gorm:"type:varchar(4)" json:"pay_id"`
}

// PromotionHistoryEntry records one class/section transition. Rollback
// pops the most recent entry and restores the stored previous values.
type PromotionHistoryEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StudentID uint `gorm:"index" json:"student_id"`

	PreviousClassID   uint    `json:"previous_class_id"`
	PreviousClassName string  `gorm:"type:varchar(100)" json:"previous_class_name"`
	PreviousSection   string  `gorm:"type:varchar(20)" json:"previous_section"`
	NewClassID        uint    `json:"new_class_id"`
	NewClassName      string  `gorm:"type:varchar(100)" json:"new_class_name"`
	NewSection        string  `gorm:"type:varchar(20)" json:"new_section"`
	PromotionDate     time.Time `json:"promotion_date"`
	OldTuitionFee     float64 `gorm:"type:decimal(15,2)" json:"old_tuition_fee"`
	NewTuitionFee     float64 `gorm:"type:decimal(15,2)" json:"new_tuition_fee"`
}
