package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shareit.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func createItem(t *testing.T, db *DB, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Description: name + " description", Available: available, OwnerID: ownerID}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return item
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath}, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestNewDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := zerolog.Nop()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath}

	db, err := NewDB(cfg, &logger)
	require.NoError(t, err)
	user := &models.User{Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	require.NoError(t, db.Close())

	// tables are created idempotently
	db, err = NewDB(cfg, &logger)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
}

func TestNewDB_Errors(t *testing.T) {
	logger := zerolog.Nop()

	_, err := NewDB(config.DatabaseConfig{Driver: "mysql"}, &logger)
	assert.Error(t, err)

	_, err = NewDB(config.DatabaseConfig{Driver: config.DriverSQLite}, &logger)
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: config.DriverSQLite}
	postgres := &DB{driver: config.DriverPostgres}
	query := `SELECT 1 FROM bookings WHERE id = ? AND status IN (?, ?)`

	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, `SELECT 1 FROM bookings WHERE id = $1 AND status IN ($2, $3)`, postgres.rebind(query))
}

func TestPaginate(t *testing.T) {
	query, args := paginate("SELECT 1", []any{int64(1)}, models.Unbounded)
	assert.Equal(t, "SELECT 1", query)
	assert.Len(t, args, 1)

	query, args = paginate("SELECT 1", []any{int64(1)}, models.Page{Offset: 20, Limit: 10})
	assert.Equal(t, "SELECT 1 LIMIT ? OFFSET ?", query)
	assert.Equal(t, []any{int64(1), 10, 20}, args)
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createUser(t, db, "Ann", "ann@example.com")
	_, err := db.ExecContext(ctx, `INSERT INTO users (name, email) VALUES ('Bob', 'ann@example.com')`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestExistsChecks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	item := createItem(t, db, owner.ID, "Drill", true)

	ok, err := db.UserExists(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.UserExists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.ItemExists(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.BookingExists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.ItemRequestExists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestDB_ClosedErrors(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Close())
	ctx := context.Background()

	_, err := db.GetUserByID(ctx, 1)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	_, err = db.GetBookerBookings(ctx, 1, models.StateAll, time.Now(), models.Unbounded)
	assert.Error(t, err)
}
