package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const pqUniqueViolation = "23505"

// DB is the SQL implementation of domain.Repository. Queries are written
// with ? placeholders and rebound for postgres.
type DB struct {
	*sql.DB
	driver string
	logger *zerolog.Logger
}

func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)

	switch cfg.Driver {
	case config.DriverSQLite, "":
		sqlDB, err = openSQLite(cfg.Path)
	case config.DriverPostgres:
		sqlDB, err = openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, driver: cfg.Driver, logger: logger}
	if db.driver == "" {
		db.driver = config.DriverSQLite
	}

	if err := db.createTables(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", db.driver).Msg("Database initialized")
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open(config.DriverSQLite, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; one connection keeps transactions serialized.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqlDB, nil
}

func openPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open(config.DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqlDB, nil
}

func (db *DB) createTables(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	refType := "INTEGER"
	if db.driver == config.DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		refType = "BIGINT"
	}

	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
            id %[1]s,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE
        )`, idColumn),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS requests (
            id %[1]s,
            description TEXT NOT NULL,
            requester_id %[2]s NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created TIMESTAMP NOT NULL
        )`, idColumn, refType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS items (
            id %[1]s,
            name TEXT NOT NULL,
            description TEXT NOT NULL,
            available BOOLEAN NOT NULL,
            owner_id %[2]s NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            request_id %[2]s REFERENCES requests(id) ON DELETE SET NULL
        )`, idColumn, refType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bookings (
            id %[1]s,
            start_date TIMESTAMP NOT NULL,
            end_date TIMESTAMP NOT NULL,
            item_id %[2]s NOT NULL REFERENCES items(id) ON DELETE CASCADE,
            booker_id %[2]s NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            status TEXT NOT NULL,
            version INTEGER NOT NULL DEFAULT 1,
            CHECK (end_date > start_date)
        )`, idColumn, refType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
            id %[1]s,
            text TEXT NOT NULL,
            item_id %[2]s NOT NULL REFERENCES items(id) ON DELETE CASCADE,
            author_id %[2]s NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created TIMESTAMP NOT NULL
        )`, idColumn, refType),

		`CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_request_id ON items(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_requester_id ON requests(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_item_id ON bookings(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_booker_id ON bookings(booker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start_date ON bookings(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) insertID(ctx context.Context, q queryRower, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, db.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// execAffected runs a statement and reports the number of affected rows.
func (db *DB) execAffected(ctx context.Context, e execer, query string, args ...any) (int64, error) {
	result, err := e.ExecContext(ctx, db.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *DB) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := db.QueryRowContext(ctx, db.rebind("SELECT EXISTS ("+query+")"), args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func paginate(query string, args []any, page models.Page) (string, []any) {
	if page.Limit <= 0 {
		return query, args
	}
	return query + " LIMIT ? OFFSET ?", append(args, page.Limit, page.Offset)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func (db *DB) Close() error {
	return db.DB.Close()
}
