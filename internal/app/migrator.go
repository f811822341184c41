package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/Freeeeeet/lesson_slots/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator обёртка над goose
type Migrator struct {
	db      *sql.DB
	ownsDB  bool
	dialect string
	fsys    fs.FS
	dir     string
	logger  *zap.Logger
}

// NewPostgresMigrator создаёт мигратор для PostgreSQL.
// Goose работает с *sql.DB, поэтому создаём его из пула
func NewPostgresMigrator(pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:      stdlib.OpenDBFromPool(pool),
		ownsDB:  true,
		dialect: "postgres",
		fsys:    migrations.Postgres,
		dir:     "postgres",
		logger:  logger,
	}
}

// NewSQLiteMigrator создаёт мигратор для встроенной SQLite
func NewSQLiteMigrator(db *sql.DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:      db,
		dialect: "sqlite3",
		fsys:    migrations.SQLite,
		dir:     "sqlite",
		logger:  logger,
	}
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("🔄 Applying database migrations...", zap.String("dialect", mg.dialect))

	goose.SetBaseFS(mg.fsys)
	if err := goose.SetDialect(mg.dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, mg.db, mg.dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("✅ Migrations applied successfully")
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	if err := goose.SetDialect(mg.dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение мигратора.
// Пул PostgreSQL и SQLite база управляются в main
func (mg *Migrator) Close() error {
	if mg.ownsDB && mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
