package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var requestID sql.NullInt64
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &requestID); err != nil {
		return nil, err
	}
	item.RequestID = nullableID(requestID)
	return item, nil
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	id, err := db.insertID(ctx, db,
		`INSERT INTO items (name, description, available, owner_id, request_id) VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Available, item.OwnerID, item.RequestID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	rows, err := db.execAffected(ctx, db,
		`UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundf("item with id = %d not found", item.ID)
	}
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("item with id = %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	query, args := paginate(`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id`,
		[]any{ownerID}, page)
	return db.queryItems(ctx, query, args...)
}

// SearchItems matches text case-insensitively against name and description of available items.
func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query, args := paginate(`SELECT `+itemColumns+` FROM items
              WHERE available = ?
                AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')
              ORDER BY id`,
		[]any{true, pattern, pattern}, page)
	return db.queryItems(ctx, query, args...)
}

func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	if len(requestIDs) == 0 {
		return []*models.Item{}, nil
	}
	args := make([]any, len(requestIDs))
	for i, id := range requestIDs {
		args[i] = id
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE request_id IN (` + placeholders(len(args)) + `) ORDER BY id`
	return db.queryItems(ctx, query, args...)
}

func (db *DB) ItemExists(ctx context.Context, id int64) (bool, error) {
	ok, err := db.exists(ctx, `SELECT 1 FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return ok, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
