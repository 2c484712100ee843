package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/model"
)

const (
	migrationsTable = "schema_migrations"
	schemaName      = "public"
	migrationsPath  = "./migrations"

	maxAttempts = 3
)

// Repository is the run ledger. It stores run outcomes, never order data.
type Repository struct {
	pool       *pgxpool.Pool
	db         *sql.DB
	classifier *PostgresErrorClassifier
	lg         *zap.SugaredLogger
}

func New(ctx context.Context, databaseURI string, lg *zap.SugaredLogger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)

	if err := migrateUp(db); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Repository{
		pool:       pool,
		db:         db,
		classifier: NewPostgresErrorClassifier(),
		lg:         lg,
	}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: migrationsTable,
		SchemaName:      schemaName,
	})
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// SaveRun writes the run row and its request rows in one transaction.
func (r *Repository) SaveRun(ctx context.Context, run model.RunRecord, requests []model.RequestRecord) error {
	return r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `INSERT INTO sync_runs (id, started_at, finished_at, dry_run, fetched, included, excluded, valid, invalid, sent, failed, total_value, error) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			run.ID,
			run.StartedAt,
			run.FinishedAt,
			run.DryRun,
			run.Fetched,
			run.Included,
			run.Excluded,
			run.Valid,
			run.Invalid,
			run.Sent,
			run.Failed,
			run.TotalValue,
			run.Error,
		)
		if err != nil {
			return err
		}

		for _, req := range requests {
			validationErrors, err := json.Marshal(nonNilStrings(req.ValidationErrors))
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, `INSERT INTO sync_requests (run_id, order_number, status, validation_errors, response, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
				run.ID,
				req.OrderNumber,
				string(req.Status),
				string(validationErrors),
				nullableJSON(req.Response),
				req.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return tx.Commit()
	})
}

func (r *Repository) GetRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	result := make([]model.RunRecord, 0)

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		result = result[:0]

		rows, err := db.QueryContext(ctx, `SELECT id, started_at, finished_at, dry_run, fetched, included, excluded, valid, invalid, sent, failed, total_value, error FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			run, err := scanRun(rows)
			if err != nil {
				return err
			}
			result = append(result, run)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*model.RunRecord, error) {
	var run model.RunRecord

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, dry_run, fetched, included, excluded, valid, invalid, sent, failed, total_value, error FROM sync_runs WHERE id = $1`, id)

		var err error
		run, err = scanRun(row)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRunNotFound
		}
		return nil, err
	}

	return &run, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Shutdown() error {
	err := r.db.Close()
	if r.pool != nil {
		r.pool.Close()
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunRecord, error) {
	var run model.RunRecord

	err := s.Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.DryRun,
		&run.Fetched,
		&run.Included,
		&run.Excluded,
		&run.Valid,
		&run.Invalid,
		&run.Sent,
		&run.Failed,
		&run.TotalValue,
		&run.Error,
	)

	return run, err
}

// executeWithRetryConnection - повторяет операцию при временных ошибках соединения
func (r *Repository) executeWithRetryConnection(ctx context.Context, operation func(db *sql.DB) error) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = operation(r.db)
		if lastErr == nil {
			return nil
		}

		if r.classifier.Classify(lastErr) != Retriable {
			return lastErr
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := getAttemptDelay(attempt)
		if r.lg != nil {
			r.lg.Warnf("retriable ledger error, attempt %d, retry in %v: %v", attempt+1, delay, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}

// getAttemptDelay - 1s, 3s, затем 5s
func getAttemptDelay(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 1 * time.Second
	case 1:
		return 3 * time.Second
	default:
		return 5 * time.Second
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
