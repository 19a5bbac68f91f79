package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepo reads and writes the blocks table.
type BlockRepo struct {
	db *gorm.DB
}

func NewBlockRepo(db *gorm.DB) *BlockRepo {
	return &BlockRepo{db}
}

// FindByEntry returns the blocks of an entry in position order
func (r *BlockRepo) FindByEntry(ctx context.Context, entryID uuid.UUID) ([]*models.Block, error) {
	var blocks []*models.Block
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("position ASC").
		Find(&blocks).Error
	return blocks, err
}

// FindByID returns one block of an entry. A missing row yields gorm.ErrRecordNotFound.
func (r *BlockRepo) FindByID(ctx context.Context, entryID, blockID uuid.UUID) (*models.Block, error) {
	var block models.Block
	err := r.db.WithContext(ctx).
		Where("entry_id = ? AND id = ?", entryID, blockID).
		First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// Append inserts block at the end of its entry. The position is assigned
// inside the transaction, after locking the entry row. A missing entry yields
// gorm.ErrRecordNotFound, any other failure a transaction error.
func (r *BlockRepo) Append(ctx context.Context, block *models.Block) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", block.EntryID).
			First(&entry).Error
		if err != nil {
			return err
		}

		var next int
		err = tx.Model(&models.Block{}).
			Where("entry_id = ?", block.EntryID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error
		if err != nil {
			return err
		}

		block.Position = next
		return tx.Create(block).Error
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewTransactionFailedError("append block", err)
	}
	return err
}

// Update writes the given columns of a block that belongs to entryID.
func (r *BlockRepo) Update(ctx context.Context, entryID, blockID uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Block{}).
		Where("entry_id = ? AND id = ?", entryID, blockID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes one block of an entry
func (r *BlockRepo) Delete(ctx context.Context, entryID, blockID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("entry_id = ? AND id = ?", entryID, blockID).
		Delete(&models.Block{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
