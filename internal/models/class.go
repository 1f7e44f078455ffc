package models

import (
	"time"

	"gorm.io/gorm"
)

// Class is the fee source for regular payments. Sections lists the
// valid section labels for the class.
type Class struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClassName string   `gorm:"type:varchar(100);uniqueIndex" json:"class_name"`
	Fee       float64  `gorm:"type:decimal(15,2)" json:"fee"`
	Sections  []string `gorm:"serializer:json" json:"sections"`

	// Relationships
	Students []Student `gorm:"foreignKey:ClassID" json:"students,omitempty"`
}

// HasSection reports whether s is a valid section of the class.
func (c Class) HasSection(s string) bool {
	for _, section := range c.Sections {
		if section == s {
			return true
		}
	}
	return false
}
