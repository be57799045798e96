package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/binary-inputs/internal/common"
)

type Config struct {
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DB is a database/sql handle plus the dialect needed to phrase queries.
type DB struct {
	SQL     *sql.DB
	Dialect string
	pool    *pgxpool.Pool
}

// DialectFor picks Postgres for postgres:// URLs and SQLite otherwise.
func DialectFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects and creates the schema when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db := &DB{Dialect: DialectFor(cfg.DSN)}
	logger.Info("connecting to database", "dialect", db.Dialect)

	switch db.Dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "binary-inputs"

		dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		db.pool = pool
		db.SQL = stdlib.OpenDBFromPool(pool)
	default:
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		// one writer; also keeps ":memory:" a single database
		sqldb.SetMaxOpenConns(1)
		db.SQL = sqldb
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return db, nil
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.SQL != nil {
		if err := db.SQL.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", common.ErrDatabase, err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS extract_run (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		status      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		error       TEXT NOT NULL DEFAULT '',
		input_count INTEGER NOT NULL DEFAULT 0,
		substation  TEXT NOT NULL DEFAULT '',
		bay         TEXT NOT NULL DEFAULT '',
		voltage     TEXT NOT NULL DEFAULT '',
		switchgear  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS binary_input (
		id                TEXT PRIMARY KEY,
		run_id            TEXT NOT NULL REFERENCES extract_run(id) ON DELETE CASCADE,
		seq               INTEGER NOT NULL,
		device            TEXT NOT NULL,
		device_model      TEXT NOT NULL,
		device_function   TEXT NOT NULL,
		board             TEXT NOT NULL,
		input_id          TEXT NOT NULL,
		input_number      INTEGER NOT NULL,
		description_line1 TEXT NOT NULL,
		description_line2 TEXT NOT NULL,
		full_description  TEXT NOT NULL,
		page_number       INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS binary_input_run_idx ON binary_input (run_id, seq)`,
	`CREATE INDEX IF NOT EXISTS extract_run_source_idx ON extract_run (source, started_at)`,
}

// Migrate creates the tables. Statements are idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %w", common.ErrDatabase, err)
		}
	}
	return nil
}

// rebind turns "?" placeholders into "$n" for Postgres.
func (db *DB) rebind(q string) string {
	if db.Dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
