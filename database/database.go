package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rpupo63/our-little-infinity/errs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Database struct {
	db        *gorm.DB
	entryRepo *EntryRepo
	blockRepo *BlockRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:        db,
		entryRepo: NewEntryRepo(db),
		blockRepo: NewBlockRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) EntryRepo() *EntryRepo {
	return d.entryRepo
}

func (d Database) BlockRepo() *BlockRepo {
	return d.blockRepo
}

// Ping checks that the database answers a trivial query.
func (d Database) Ping(ctx context.Context) error {
	var result int
	if err := d.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return errs.NewDatabaseError("ping", "database", err)
	}
	return nil
}

// Migrate applies every pending migration embedded in the binary.
func (d Database) Migrate(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errs.NewMigrationError("up", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(gooseDialect(d.db)); err != nil {
		return errs.NewMigrationError("up", fmt.Errorf("setting dialect: %w", err))
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return errs.NewMigrationError("up", err)
	}
	return nil
}

// MigrationVersion returns the version of the last applied migration.
func (d Database) MigrationVersion(ctx context.Context) (int64, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(gooseDialect(d.db)); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}

func gooseDialect(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}
