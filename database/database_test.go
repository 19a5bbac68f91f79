package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/database/dbtest"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newEntry(title string, at time.Time) *models.Entry {
	return &models.Entry{
		Title:     title,
		CreatedBy: "sarru",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func newTextBlock(entryID uuid.UUID, content string) *models.Block {
	return &models.Block{
		EntryID:   entryID,
		Type:      models.BlockTypeText,
		Content:   content,
		CreatedAt: baseTime,
	}
}

func TestMigrate_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	d := New(gdb)

	require.NoError(t, d.Migrate(ctx))
	require.NoError(t, d.Migrate(ctx), "second run applies nothing")

	assert.True(t, gdb.Migrator().HasTable("entries"))
	assert.True(t, gdb.Migrator().HasTable("blocks"))
	assert.True(t, gdb.Migrator().HasColumn(&models.Block{}, "storage_key"))
	assert.True(t, gdb.Migrator().HasColumn(&models.Block{}, "file_name"))

	version, err := d.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	require.NoError(t, d.Ping(ctx))
}

func TestEntryRepo_AddAndFind(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	older := newEntry("older", baseTime)
	newer := newEntry("newer", baseTime.Add(time.Hour))
	require.NoError(t, d.EntryRepo().Add(ctx, older))
	require.NoError(t, d.EntryRepo().Add(ctx, newer))
	assert.NotEqual(t, uuid.Nil, older.ID)

	entries, err := d.EntryRepo().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].Title)
	assert.Equal(t, "older", entries[1].Title)

	found, err := d.EntryRepo().FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "older", found.Title)
	assert.True(t, found.CreatedAt.Equal(baseTime))

	_, err = d.EntryRepo().FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestEntryRepo_UpdateAndTouch(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	desc := "first"
	entry := newEntry("title", baseTime)
	entry.Description = &desc
	require.NoError(t, d.EntryRepo().Add(ctx, entry))

	later := baseTime.Add(time.Minute)
	require.NoError(t, d.EntryRepo().Update(ctx, entry.ID, map[string]interface{}{
		"title":       "renamed",
		"description": nil,
		"updated_at":  later,
	}))

	found, err := d.EntryRepo().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Title)
	assert.Nil(t, found.Description)
	assert.True(t, found.UpdatedAt.Equal(later))

	latest := later.Add(time.Minute)
	require.NoError(t, d.EntryRepo().Touch(ctx, entry.ID, latest))
	found, err = d.EntryRepo().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, found.UpdatedAt.Equal(latest))

	err = d.EntryRepo().Touch(ctx, uuid.New(), latest)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestBlockRepo_AppendAssignsIncreasingPositions(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	entry := newEntry("entry", baseTime)
	require.NoError(t, d.EntryRepo().Add(ctx, entry))

	for i, content := range []string{"a", "b", "c"} {
		block := newTextBlock(entry.ID, content)
		require.NoError(t, d.BlockRepo().Append(ctx, block))
		assert.Equal(t, i, block.Position)
	}

	blocks, err := d.BlockRepo().FindByEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "a", blocks[0].Content)
	assert.Equal(t, "c", blocks[2].Content)

	found, err := d.EntryRepo().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, found.Blocks, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{found.Blocks[0].Position, found.Blocks[1].Position, found.Blocks[2].Position})
}

func TestBlockRepo_AppendContinuesAfterDeletedTail(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	entry := newEntry("entry", baseTime)
	require.NoError(t, d.EntryRepo().Add(ctx, entry))

	first := newTextBlock(entry.ID, "first")
	second := newTextBlock(entry.ID, "second")
	require.NoError(t, d.BlockRepo().Append(ctx, first))
	require.NoError(t, d.BlockRepo().Append(ctx, second))
	require.NoError(t, d.BlockRepo().Delete(ctx, entry.ID, first.ID))

	third := newTextBlock(entry.ID, "third")
	require.NoError(t, d.BlockRepo().Append(ctx, third))
	assert.Equal(t, 2, third.Position)
}

func TestBlockRepo_AppendToMissingEntry(t *testing.T) {
	d := New(dbtest.OpenWithSchema(t))

	err := d.BlockRepo().Append(context.Background(), newTextBlock(uuid.New(), "orphan"))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestBlockRepo_UpdateIsScopedToEntry(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	entry := newEntry("entry", baseTime)
	other := newEntry("other", baseTime)
	require.NoError(t, d.EntryRepo().Add(ctx, entry))
	require.NoError(t, d.EntryRepo().Add(ctx, other))

	block := newTextBlock(entry.ID, "before")
	require.NoError(t, d.BlockRepo().Append(ctx, block))

	err := d.BlockRepo().Update(ctx, other.ID, block.ID, map[string]interface{}{"content": "hijack"})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, d.BlockRepo().Update(ctx, entry.ID, block.ID, map[string]interface{}{"content": "after"}))
	found, err := d.BlockRepo().FindByID(ctx, entry.ID, block.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", found.Content)
	assert.Equal(t, 0, found.Position)

	err = d.BlockRepo().Delete(ctx, other.ID, block.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestEntryRepo_DeleteWithBlocks(t *testing.T) {
	ctx := context.Background()
	d := New(dbtest.OpenWithSchema(t))

	entry := newEntry("entry", baseTime)
	keep := newEntry("keep", baseTime)
	require.NoError(t, d.EntryRepo().Add(ctx, entry))
	require.NoError(t, d.EntryRepo().Add(ctx, keep))
	require.NoError(t, d.BlockRepo().Append(ctx, newTextBlock(entry.ID, "x")))
	require.NoError(t, d.BlockRepo().Append(ctx, newTextBlock(keep.ID, "y")))

	require.NoError(t, d.EntryRepo().DeleteWithBlocks(ctx, entry.ID))

	_, err := d.EntryRepo().FindByID(ctx, entry.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	blocks, err := d.BlockRepo().FindByEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	kept, err := d.BlockRepo().FindByEntry(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	err = d.EntryRepo().DeleteWithBlocks(ctx, entry.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTransactions_WrapFailures(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.OpenWithSchema(t)
	d := New(gdb)

	entry := newEntry("entry", baseTime)
	require.NoError(t, d.EntryRepo().Add(ctx, entry))

	err := d.BlockRepo().Append(ctx, newTextBlock(uuid.New(), "orphan"))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.False(t, errs.IsTransactionFailedError(err))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = d.BlockRepo().Append(ctx, newTextBlock(entry.ID, "x"))
	assert.True(t, errs.IsTransactionFailedError(err))

	err = d.EntryRepo().DeleteWithBlocks(ctx, entry.ID)
	assert.True(t, errs.IsTransactionFailedError(err))
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}
