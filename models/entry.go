package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is a titled journal entry owning an ordered list of blocks.
type Entry struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title       string    `json:"title" db:"title" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" db:"description" gorm:"type:text"`
	CreatedBy   string    `json:"createdBy" db:"created_by" gorm:"column:created_by;type:text;not null"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at" gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Blocks      []Block   `json:"blocks" gorm:"foreignKey:EntryID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table to the name the hosted schema uses.
func (Entry) TableName() string {
	return "entries"
}

// BeforeCreate assigns an ID when the caller did not set one.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EntryUpdate holds the editable fields of an entry. A nil Title leaves the
// title unchanged; a nil or blank Description clears it.
type EntryUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
