// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an empty SQLite database in the test's temp dir. The pool is
// limited to one connection so transactions never contend for the file lock.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "journal.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// OpenWithSchema is Open plus the entries and blocks tables.
func OpenWithSchema(t testing.TB) *gorm.DB {
	t.Helper()

	db := Open(t)
	require.NoError(t, db.AutoMigrate(&models.Entry{}, &models.Block{}))
	return db
}
