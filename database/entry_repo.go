package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryRepo reads and writes the entries table.
type EntryRepo struct {
	db *gorm.DB
}

func NewEntryRepo(db *gorm.DB) *EntryRepo {
	return &EntryRepo{db}
}

func preloadBlocks(db *gorm.DB) *gorm.DB {
	return db.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindAll returns every entry, newest first, with its blocks in position order
func (r *EntryRepo) FindAll(ctx context.Context) ([]*models.Entry, error) {
	var entries []*models.Entry
	err := preloadBlocks(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// FindByID returns an entry with its blocks. A missing row yields gorm.ErrRecordNotFound.
func (r *EntryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	err := preloadBlocks(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Add inserts a new entry row. Blocks are never written through the association.
func (r *EntryRepo) Add(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

// Update writes the given columns of an entry.
func (r *EntryRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Touch sets updated_at of an entry.
func (r *EntryRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.Update(ctx, id, map[string]interface{}{"updated_at": at})
}

// DeleteWithBlocks removes the block rows of an entry and then the entry row
// in one transaction. A missing entry yields gorm.ErrRecordNotFound, any other
// failure a transaction error.
func (r *EntryRepo) DeleteWithBlocks(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&models.Block{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Entry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewTransactionFailedError("delete entry", err)
	}
	return err
}
