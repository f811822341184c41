// Package storage открывает хранилище выбранного драйвера и применяет миграции
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Freeeeeet/lesson_slots/internal/app"
	"github.com/Freeeeeet/lesson_slots/internal/config"
	"github.com/Freeeeeet/lesson_slots/internal/repository"
	"github.com/Freeeeeet/lesson_slots/internal/repository/sqlite"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Stores репозитории слотов, клиентов и тренеров одного драйвера
type Stores struct {
	Slots   service.SlotStore
	Clients service.ClientRegistry
	Coaches service.CoachStore

	close func()
}

// Close освобождает соединения
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open подключается к PostgreSQL или SQLite по cfg.StoreDriver и применяет миграции
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := app.NewSQLiteMigrator(db, logger).Run(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("✅ SQLite store ready", zap.String("path", cfg.SQLitePath))
		return SQLite(db), nil

	case config.StoreDriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		migrator := app.NewPostgresMigrator(pool, logger)
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}

		logger.Info("✅ PostgreSQL store ready")
		return Postgres(pool), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// SQLite репозитории поверх открытой базы SQLite
func SQLite(db *sql.DB) *Stores {
	return &Stores{
		Slots:   sqlite.NewSlotRepository(db),
		Clients: sqlite.NewClientRepository(db),
		Coaches: sqlite.NewCoachRepository(db),
		close:   func() { _ = db.Close() },
	}
}

// Postgres репозитории поверх пула pgx
func Postgres(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Slots:   repository.NewSlotRepository(pool),
		Clients: repository.NewClientRepository(pool),
		Coaches: repository.NewCoachRepository(pool),
		close:   pool.Close,
	}
}
