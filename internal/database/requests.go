package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const requestColumns = `id, description, requester_id, created`

func scanRequest(row rowScanner) (*models.ItemRequest, error) {
	r := &models.ItemRequest{}
	if err := row.Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created); err != nil {
		return nil, err
	}
	r.Created = r.Created.UTC()
	return r, nil
}

func (db *DB) CreateItemRequest(ctx context.Context, request *models.ItemRequest) error {
	id, err := db.insertID(ctx, db,
		`INSERT INTO requests (description, requester_id, created) VALUES (?, ?, ?)`,
		request.Description, request.RequesterID, request.Created.UTC())
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetItemRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+requestColumns+` FROM requests WHERE id = ?`), id)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("request with id = %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

func (db *DB) GetItemRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = ? ORDER BY created DESC, id DESC`,
		requesterID)
}

func (db *DB) GetItemRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error) {
	query, args := paginate(
		`SELECT `+requestColumns+` FROM requests WHERE requester_id <> ? ORDER BY created DESC, id DESC`,
		[]any{userID}, page)
	return db.queryRequests(ctx, query, args...)
}

func (db *DB) ItemRequestExists(ctx context.Context, id int64) (bool, error) {
	ok, err := db.exists(ctx, `SELECT 1 FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check request: %w", err)
	}
	return ok, nil
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
