package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.start_date, b.end_date, b.item_id, b.booker_id, b.status, b.version,
	                 i.id, i.name, i.description, i.available, i.owner_id, i.request_id,
	                 u.id, u.name, u.email
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              JOIN users u ON u.id = b.booker_id`

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{Item: &models.Item{}, Booker: &models.User{}}
	var requestID sql.NullInt64
	err := row.Scan(
		&b.ID, &b.Start, &b.End, &b.ItemID, &b.BookerID, &b.Status, &b.Version,
		&b.Item.ID, &b.Item.Name, &b.Item.Description, &b.Item.Available, &b.Item.OwnerID, &requestID,
		&b.Booker.ID, &b.Booker.Name, &b.Booker.Email,
	)
	if err != nil {
		return nil, err
	}
	b.Item.RequestID = nullableID(requestID)
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	return b, nil
}

// CreateBooking re-checks the item inside the insert transaction so that an
// item closed or reassigned concurrently cannot be booked.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		available bool
		ownerID   int64
	)
	err = tx.QueryRowContext(ctx, db.rebind(`SELECT available, owner_id FROM items WHERE id = ?`), booking.ItemID).
		Scan(&available, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("item with id = %d not found", booking.ItemID)
	}
	if err != nil {
		return fmt.Errorf("failed to check item in tx: %w", err)
	}
	if !available {
		return domain.ErrNotAvailable
	}
	if ownerID == booking.BookerID {
		return domain.NotFoundf("cannot book your own item")
	}

	id, err := db.insertID(ctx, tx,
		`INSERT INTO bookings (start_date, end_date, item_id, booker_id, status, version) VALUES (?, ?, ?, ?, ?, ?)`,
		booking.Start.UTC(), booking.End.UTC(), booking.ItemID, booking.BookerID, booking.Status, 1)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	booking.ID = id
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, db.rebind(bookingSelect+` WHERE b.id = ?`), id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("booking with id = %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) BookingExists(ctx context.Context, id int64) (bool, error) {
	ok, err := db.exists(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	return ok, nil
}

// UpdateBookingStatusWithVersion moves a WAITING booking at fromVersion to status.
// It returns domain.ErrConcurrentModification when the row was changed meanwhile.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	rows, err := db.execAffected(ctx, db,
		`UPDATE bookings SET status = ?, version = version + 1 WHERE id = ? AND version = ? AND status = ?`,
		status, id, fromVersion, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookerBookings(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, page models.Page) ([]*models.Booking, error) {
	return db.listBookings(ctx, `b.booker_id = ?`, bookerID, state, now, page)
}

func (db *DB) GetOwnerBookings(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, page models.Page) ([]*models.Booking, error) {
	return db.listBookings(ctx, `i.owner_id = ?`, ownerID, state, now, page)
}

func (db *DB) listBookings(ctx context.Context, actorClause string, actorID int64, state models.BookingState, now time.Time, page models.Page) ([]*models.Booking, error) {
	filter, filterArgs, err := stateFilter(state, now.UTC())
	if err != nil {
		return nil, err
	}

	query := bookingSelect + ` WHERE ` + actorClause + filter + ` ORDER BY b.start_date DESC, b.id DESC`
	query, args := paginate(query, append([]any{actorID}, filterArgs...), page)

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func stateFilter(state models.BookingState, now time.Time) (string, []any, error) {
	switch state {
	case models.StateAll:
		return "", nil, nil
	case models.StateCurrent:
		return ` AND b.start_date <= ? AND b.end_date > ?`, []any{now, now}, nil
	case models.StatePast:
		return ` AND b.end_date < ? AND b.status = ?`, []any{now, models.StatusApproved}, nil
	case models.StateFuture:
		return ` AND b.start_date > ? AND b.status IN (?, ?)`, []any{now, models.StatusApproved, models.StatusWaiting}, nil
	case models.StateWaiting:
		return ` AND b.status = ?`, []any{models.StatusWaiting}, nil
	case models.StateRejected:
		return ` AND b.status = ?`, []any{models.StatusRejected}, nil
	default:
		return "", nil, domain.InvalidArgumentf("Unknown state: %s", state)
	}
}

// GetLastBooking returns the approved booking of the item with the latest start before now, or nil.
func (db *DB) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.nearestBooking(ctx, `b.start_date < ? ORDER BY b.start_date DESC, b.id DESC`, itemID, now)
}

// GetNextBooking returns the approved booking of the item with the earliest start after now, or nil.
func (db *DB) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.nearestBooking(ctx, `b.start_date > ? ORDER BY b.start_date ASC, b.id ASC`, itemID, now)
}

func (db *DB) nearestBooking(ctx context.Context, clause string, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND ` + clause + ` LIMIT 1`
	row := db.QueryRowContext(ctx, db.rebind(query), itemID, models.StatusApproved, now.UTC())
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nearest booking: %w", err)
	}
	return booking, nil
}

// HasStartedApprovedBooking reports whether the booker holds an approved booking
// of the item that started before now.
func (db *DB) HasStartedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	ok, err := db.exists(ctx,
		`SELECT 1 FROM bookings WHERE booker_id = ? AND item_id = ? AND status = ? AND start_date < ?`,
		bookerID, itemID, models.StatusApproved, now.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to check bookings: %w", err)
	}
	return ok, nil
}
