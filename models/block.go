package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockType is the discriminant of a block.
type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeLink  BlockType = "link"
	BlockTypeImage BlockType = "image"
	BlockTypePDF   BlockType = "pdf"
)

// Default display names for file blocks stored without a file name.
const (
	DefaultImageName = "image"
	DefaultPDFName   = "document.pdf"
)

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeText, BlockTypeLink, BlockTypeImage, BlockTypePDF:
		return true
	}
	return false
}

// IsFile reports whether blocks of this type own a file in the media bucket.
func (t BlockType) IsFile() bool {
	return t == BlockTypeImage || t == BlockTypePDF
}

// Block is one unit of content inside an entry.
//
// The row layout is shared by every variant: link blocks keep their optional
// title in FileName, image and pdf blocks keep the original file name there.
// Use Kind, Title and Name instead of reading FileName directly.
type Block struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	EntryID    uuid.UUID `json:"-" db:"entry_id" gorm:"type:uuid;not null;index:idx_blocks_entry_position,priority:1"`
	Type       BlockType `json:"type" db:"type" gorm:"type:text;not null"`
	Content    string    `json:"content" db:"content" gorm:"type:text;not null"`
	FileName   *string   `json:"-" db:"file_name" gorm:"column:file_name;type:text"`
	StorageKey *string   `json:"-" db:"storage_key" gorm:"column:storage_key;type:text"`
	Position   int       `json:"-" db:"position" gorm:"type:integer;not null;index:idx_blocks_entry_position,priority:2"`
	CreatedAt  time.Time `json:"-" db:"created_at" gorm:"column:created_at;not null;autoCreateTime:false"`
}

// TableName pins the table to the name the hosted schema uses.
func (Block) TableName() string {
	return "blocks"
}

// BeforeCreate assigns an ID when the caller did not set one.
func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Kind returns the variant of the block. Rows with an unknown type are
// treated as text.
func (b Block) Kind() BlockType {
	if !b.Type.Valid() {
		return BlockTypeText
	}
	return b.Type
}

// Title returns the optional title of a link block.
func (b Block) Title() string {
	if b.Kind() != BlockTypeLink || b.FileName == nil {
		return ""
	}
	return *b.FileName
}

// Name returns the display file name of an image or pdf block.
func (b Block) Name() string {
	switch b.Kind() {
	case BlockTypeImage:
		if b.FileName == nil || *b.FileName == "" {
			return DefaultImageName
		}
		return *b.FileName
	case BlockTypePDF:
		if b.FileName == nil || *b.FileName == "" {
			return DefaultPDFName
		}
		return *b.FileName
	default:
		return ""
	}
}

type textBlockJSON struct {
	ID      uuid.UUID `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
}

type linkBlockJSON struct {
	ID      uuid.UUID `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	Title   string    `json:"title,omitempty"`
}

type fileBlockJSON struct {
	ID      uuid.UUID `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	Name    string    `json:"name"`
}

// MarshalJSON renders only the fields of the block's variant.
func (b Block) MarshalJSON() ([]byte, error) {
	switch kind := b.Kind(); kind {
	case BlockTypeLink:
		return json.Marshal(linkBlockJSON{ID: b.ID, Type: kind, Content: b.Content, Title: b.Title()})
	case BlockTypeImage, BlockTypePDF:
		return json.Marshal(fileBlockJSON{ID: b.ID, Type: kind, Content: b.Content, Name: b.Name()})
	default:
		return json.Marshal(textBlockJSON{ID: b.ID, Type: kind, Content: b.Content})
	}
}
