package models

import "time"

// InvoiceCounter backs the invoice serial sequence. A single named row
// is incremented inside the payment transaction, so allocated serials
// are monotonic and collision-free across concurrent writers.
type InvoiceCounter struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"type:varchar(50);uniqueIndex" json:"name"`
	Value int64  `json:"value"`
}
