// Package journal maps entries and their blocks onto the database and the
// media bucket. Every operation fails open: errors are logged and the caller
// sees nil, false or an empty list.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/database"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rpupo63/our-little-infinity/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Upload is a file received for a new image or pdf block.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Repository is the journal store. Failures are logged and reported as nil,
// false or an empty list instead of errors.
type Repository struct {
	entries *database.EntryRepo
	blocks  *database.BlockRepo
	bucket  storage.Bucket
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces the wall clock used for timestamps and upload keys.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository builds a Repository over the entry and block tables of db and the media bucket.
func NewRepository(db database.Database, bucket storage.Bucket, opts ...Option) *Repository {
	r := &Repository{
		entries: db.EntryRepo(),
		blocks:  db.BlockRepo(),
		bucket:  bucket,
		logger:  log.With().Str("component", "journalRepository").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC()
}

func (r *Repository) logFailure(op string, err *errs.ApiErr) *zerolog.Event {
	return r.logger.Error().Str("operation", op).Str("error", err.GetFullError())
}

// ListEntries returns every entry newest first, blocks in position order.
func (r *Repository) ListEntries(ctx context.Context) []models.Entry {
	rows, err := r.entries.FindAll(ctx)
	if err != nil {
		r.logFailure("listEntries", errs.NewDatabaseError("list", "entries", err)).Msg("Error listing entries")
		return []models.Entry{}
	}

	entries := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, withBlocks(*row))
	}
	return entries
}

// GetEntry returns the entry with its blocks, or nil when it does not exist or cannot be read.
func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) *models.Entry {
	row, err := r.entries.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logFailure("getEntry", errs.NewDatabaseError("find", "entry", err)).
				Stringer("entryID", id).
				Msg("Error fetching entry")
		}
		return nil
	}

	entry := withBlocks(*row)
	return &entry
}

// CreateEntry inserts an empty entry. The title is stored as given.
func (r *Repository) CreateEntry(ctx context.Context, title string, description *string, createdBy string) *models.Entry {
	now := r.timestamp()
	entry := models.Entry{
		ID:          uuid.New(),
		Title:       title,
		Description: optionalText(description),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		Blocks:      []models.Block{},
	}

	if err := r.entries.Add(ctx, &entry); err != nil {
		r.logFailure("createEntry", errs.NewWriteError("create", "entry", err)).
			Str("createdBy", createdBy).
			Msg("Error creating entry")
		return nil
	}
	return &entry
}

// UpdateEntry writes the title when set and always writes the description,
// clearing it when absent. It returns the entry as stored afterwards.
func (r *Repository) UpdateEntry(ctx context.Context, id uuid.UUID, update models.EntryUpdate) *models.Entry {
	fields := map[string]interface{}{
		"description": optionalText(update.Description),
		"updated_at":  r.timestamp(),
	}
	if update.Title != nil {
		fields["title"] = *update.Title
	}

	if err := r.entries.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn().Str("operation", "updateEntry").Stringer("entryID", id).Msg("Entry not found")
		} else {
			r.logFailure("updateEntry", errs.NewWriteError("update", "entry", err)).
				Stringer("entryID", id).
				Msg("Error updating entry")
		}
		return nil
	}
	return r.GetEntry(ctx, id)
}

// DeleteEntry removes the stored files of the entry's image and pdf blocks,
// then the block rows and the entry row. Storage failures do not stop the delete.
func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) bool {
	blocks, err := r.blocks.FindByEntry(ctx, id)
	if err != nil {
		r.logFailure("deleteEntry", errs.NewDatabaseError("list", "blocks", err)).
			Stringer("entryID", id).
			Msg("Error listing blocks before delete")
		return false
	}

	var keys []string
	for _, block := range blocks {
		if key, ok := r.storageKey(block); ok {
			keys = append(keys, key)
		}
	}
	r.removeFiles(ctx, "deleteEntry", keys)

	if err := r.entries.DeleteWithBlocks(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn().Str("operation", "deleteEntry").Stringer("entryID", id).Msg("Entry not found")
		} else {
			r.logFailure("deleteEntry", errs.NewWriteError("delete", "entry", err)).
				Stringer("entryID", id).
				Bool("rolledBack", errs.IsTransactionFailedError(err)).
				Msg("Error deleting entry")
		}
		return false
	}
	return true
}

// AddTextBlock appends a text block.
func (r *Repository) AddTextBlock(ctx context.Context, entryID uuid.UUID, content string) *models.Block {
	return r.appendBlock(ctx, "addTextBlock", &models.Block{
		EntryID: entryID,
		Type:    models.BlockTypeText,
		Content: content,
	})
}

// AddLinkBlock appends a link block. url must already be normalized.
func (r *Repository) AddLinkBlock(ctx context.Context, entryID uuid.UUID, url string, title *string) *models.Block {
	return r.appendBlock(ctx, "addLinkBlock", &models.Block{
		EntryID:  entryID,
		Type:     models.BlockTypeLink,
		Content:  url,
		FileName: trimmedOptional(title),
	})
}

// AddFileBlock uploads the file under <entryID>/<unix-millis>.<ext> and
// appends an image or pdf block pointing at its public URL. Files above
// MaxFileSize are rejected before the bucket is touched.
func (r *Repository) AddFileBlock(ctx context.Context, entryID uuid.UUID, upload Upload, kind models.BlockType) *models.Block {
	logger := r.logger.With().Str("operation", "addFileBlock").Stringer("entryID", entryID).Logger()

	if err := CheckFileSize(upload.Size); err != nil {
		logger.Warn().Err(err).Str("fileName", upload.Name).Msg("Upload rejected")
		return nil
	}
	if !kind.IsFile() {
		logger.Warn().Err(errs.NewValidationError("type", fmt.Sprintf("%q is not a file block type", kind))).Msg("Upload rejected")
		return nil
	}

	now := r.timestamp()
	key := fmt.Sprintf("%s/%d.%s", entryID, now.UnixMilli(), uploadExtension(upload.Name))

	if err := r.bucket.Upload(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		var apiErr *errs.ApiErr
		if !errors.As(err, &apiErr) {
			apiErr = errs.NewStorageError("upload", err)
		}
		logger.Error().Str("error", apiErr.GetFullError()).Str("key", key).Msg("Error uploading file")
		return nil
	}

	var name *string
	if upload.Name != "" {
		name = &upload.Name
	}
	block := r.appendBlock(ctx, "addFileBlock", &models.Block{
		EntryID:    entryID,
		Type:       kind,
		Content:    r.bucket.PublicURL(key),
		FileName:   name,
		StorageKey: &key,
	})
	if block == nil {
		r.removeFiles(ctx, "addFileBlock", []string{key})
	}
	return block
}

// UpdateBlock replaces the content of a text or link block.
func (r *Repository) UpdateBlock(ctx context.Context, entryID, blockID uuid.UUID, content string) bool {
	block := r.findBlock(ctx, "updateBlock", entryID, blockID)
	if block == nil {
		return false
	}
	if block.Type.IsFile() {
		r.logger.Warn().Str("operation", "updateBlock").Stringer("blockID", blockID).
			Err(errs.NewValidationError("content", "file block content is managed by uploads")).
			Msg("Update rejected")
		return false
	}

	return r.updateBlock(ctx, "updateBlock", entryID, blockID, map[string]interface{}{"content": content})
}

// UpdateLinkBlock replaces the URL and title of a link block. A blank title clears it.
func (r *Repository) UpdateLinkBlock(ctx context.Context, entryID, blockID uuid.UUID, url string, title *string) bool {
	block := r.findBlock(ctx, "updateLinkBlock", entryID, blockID)
	if block == nil {
		return false
	}
	if block.Type != models.BlockTypeLink {
		r.logger.Warn().Str("operation", "updateLinkBlock").Stringer("blockID", blockID).
			Err(errs.NewValidationError("type", "block is not a link")).
			Msg("Update rejected")
		return false
	}

	return r.updateBlock(ctx, "updateLinkBlock", entryID, blockID, map[string]interface{}{
		"content":   url,
		"file_name": trimmedOptional(title),
	})
}

// DeleteBlock removes the block's stored file when it has one, then the row.
func (r *Repository) DeleteBlock(ctx context.Context, entryID, blockID uuid.UUID) bool {
	block := r.findBlock(ctx, "deleteBlock", entryID, blockID)
	if block == nil {
		return false
	}

	if key, ok := r.storageKey(block); ok {
		r.removeFiles(ctx, "deleteBlock", []string{key})
	}

	if err := r.blocks.Delete(ctx, entryID, blockID); err != nil {
		r.logFailure("deleteBlock", errs.NewWriteError("delete", "block", err)).
			Stringer("entryID", entryID).
			Stringer("blockID", blockID).
			Msg("Error deleting block")
		return false
	}

	r.touch(ctx, "deleteBlock", entryID)
	return true
}

func (r *Repository) appendBlock(ctx context.Context, op string, block *models.Block) *models.Block {
	now := r.timestamp()
	block.ID = uuid.New()
	block.CreatedAt = now

	if err := r.blocks.Append(ctx, block); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn().Str("operation", op).Stringer("entryID", block.EntryID).Msg("Entry not found")
		} else {
			r.logFailure(op, errs.NewWriteError("add", "block", err)).
				Stringer("entryID", block.EntryID).
				Bool("rolledBack", errs.IsTransactionFailedError(err)).
				Msg("Error adding block")
		}
		return nil
	}

	r.touch(ctx, op, block.EntryID)
	return block
}

func (r *Repository) updateBlock(ctx context.Context, op string, entryID, blockID uuid.UUID, fields map[string]interface{}) bool {
	if err := r.blocks.Update(ctx, entryID, blockID, fields); err != nil {
		r.logFailure(op, errs.NewWriteError("update", "block", err)).
			Stringer("entryID", entryID).
			Stringer("blockID", blockID).
			Msg("Error updating block")
		return false
	}

	r.touch(ctx, op, entryID)
	return true
}

func (r *Repository) findBlock(ctx context.Context, op string, entryID, blockID uuid.UUID) *models.Block {
	block, err := r.blocks.FindByID(ctx, entryID, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn().Str("operation", op).Stringer("entryID", entryID).Stringer("blockID", blockID).Msg("Block not found")
		} else {
			r.logFailure(op, errs.NewDatabaseError("find", "block", err)).
				Stringer("entryID", entryID).
				Stringer("blockID", blockID).
				Msg("Error fetching block")
		}
		return nil
	}
	return block
}

// touch bumps updated_at after a block write. The block write already
// happened, so a failure here is only logged.
func (r *Repository) touch(ctx context.Context, op string, entryID uuid.UUID) {
	if err := r.entries.Touch(ctx, entryID, r.timestamp()); err != nil {
		r.logger.Warn().
			Str("operation", op).
			Stringer("entryID", entryID).
			Str("error", errs.NewWriteError("touch", "entry", err).GetFullError()).
			Msg("Error refreshing entry updatedAt")
	}
}

// storageKey returns the bucket key of a file block: the stored key, or the
// key parsed from its public URL for rows written before keys were stored.
func (r *Repository) storageKey(block *models.Block) (string, bool) {
	if !block.Type.IsFile() {
		return "", false
	}
	if block.StorageKey != nil && *block.StorageKey != "" {
		return *block.StorageKey, true
	}

	key, ok := storage.KeyFromURL(block.Content, r.bucket.Name())
	if !ok {
		r.logger.Warn().Stringer("blockID", block.ID).Str("url", block.Content).Msg("Cannot derive storage path, file left in bucket")
	}
	return key, ok
}

func (r *Repository) removeFiles(ctx context.Context, op string, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := r.bucket.Remove(ctx, keys); err != nil {
		var apiErr *errs.ApiErr
		if !errors.As(err, &apiErr) {
			apiErr = errs.NewStorageError("remove", err)
		}
		r.logger.Warn().
			Str("operation", op).
			Strs("keys", keys).
			Str("error", apiErr.GetFullError()).
			Msg("Error removing files, continuing")
	}
}

func withBlocks(entry models.Entry) models.Entry {
	if entry.Blocks == nil {
		entry.Blocks = []models.Block{}
	}
	return entry
}
