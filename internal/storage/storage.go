package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ldelorme/crm-backoffice/internal"
	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	contractmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/contract"
	eventmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/event"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// Database wraps the GORM handle every repository runs on.
type Database struct {
	Gorm *gorm.DB
}

// Open connects according to cfg.Driver. Postgres goes through sqlx/pgx
// so the pool settings apply to the same *sql.DB GORM uses; its schema
// is managed by the goose migrations under db/migrations. SQLite keeps
// its schema current through AutoMigrate on open.
func Open(cfg internal.DatabaseConfig) (*Database, error) {
	switch cfg.Driver {
	case "postgres":
		return openPostgres(cfg)
	case "sqlite":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg internal.DatabaseConfig) (*Database, error) {
	conn, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	applyPool(conn.DB, cfg)

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: conn.DB}), gormConfig())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Database{Gorm: gdb}, nil
}

func openSQLite(cfg internal.DatabaseConfig) (*Database, error) {
	if dir := filepath.Dir(cfg.Source); dir != "." && !strings.HasPrefix(cfg.Source, ":") && !strings.HasPrefix(cfg.Source, "file:") {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	applyPool(conn, cfg)

	gdb, err := gorm.Open(gormsqlite.New(gormsqlite.Config{Conn: conn}), gormConfig())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	db := &Database{Gorm: gdb}
	if err := db.AutoMigrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func applyPool(db *sql.DB, cfg internal.DatabaseConfig) {
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// AutoMigrate creates or updates the entity tables.
func (d *Database) AutoMigrate() error {
	err := d.Gorm.AutoMigrate(
		&usermodel.User{},
		&clientmodel.Client{},
		&contractmodel.Contract{},
		&eventmodel.Event{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Transaction runs fn inside one transaction. A non-nil error from fn
// rolls every write back; otherwise the transaction commits.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.Gorm.WithContext(ctx).Transaction(fn)
}

func (d *Database) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
