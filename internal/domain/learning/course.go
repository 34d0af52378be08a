package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Level       string `gorm:"column:level" json:"level"`
	Subject     string `gorm:"column:subject" json:"subject"`
	IsPublished bool   `gorm:"column:is_published;not null" json:"is_published"`

	// topic, audience and source ("ai" for generated courses)
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata"`

	Modules []CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"modules,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
