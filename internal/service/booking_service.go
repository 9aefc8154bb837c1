package service

import (
	"context"
	"errors"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.BookingRepository
	guard    domain.Guard
	items    domain.ItemReader
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.BookingRepository, guard domain.Guard, items domain.ItemReader, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		guard:    guard,
		items:    items,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking books the item for [start, end) on behalf of bookerID.
// The new booking is WAITING until the owner decides.
func (s *BookingService) CreateBooking(ctx context.Context, itemID int64, start, end time.Time, bookerID int64) (*models.Booking, error) {
	if err := s.guard.UserExists(ctx, bookerID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		s.logger.Warn().Int64("item_id", itemID).Int64("booker_id", bookerID).Msg("item is not available")
		return nil, domain.ErrNotAvailable
	}
	if item.OwnerID == bookerID {
		s.logger.Warn().Int64("item_id", itemID).Int64("booker_id", bookerID).Msg("owner tried to book own item")
		return nil, domain.NotFoundf("cannot book your own item")
	}
	if !end.After(start) {
		return nil, domain.InvalidArgumentf("booking end %s must be after start %s",
			end.Format(models.DateTimeLayout), start.Format(models.DateTimeLayout))
	}

	booking := &models.Booking{
		Start:    start,
		End:      end,
		ItemID:   itemID,
		BookerID: bookerID,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	created, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, created, bookerID)
	return created, nil
}

// SetStatus approves or rejects a WAITING booking. Only the item owner may do so.
func (s *BookingService) SetStatus(ctx context.Context, bookingID int64, approve bool, actorID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID() != actorID {
		s.logger.Warn().Int64("booking_id", bookingID).Int64("actor_id", actorID).Msg("status change by non-owner")
		return nil, domain.NotFoundf("booking with id = %d not found for owner %d", bookingID, actorID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, cannotChangeStatus(bookingID)
	}

	status, eventType := models.StatusRejected, events.EventBookingRejected
	if approve {
		status, eventType = models.StatusApproved, events.EventBookingApproved
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, booking.Version, status)
	if errors.Is(err, domain.ErrConcurrentModification) {
		s.logger.Warn().Int64("booking_id", bookingID).Msg("booking status changed concurrently")
		return nil, cannotChangeStatus(bookingID)
	}
	if err != nil {
		return nil, err
	}

	booking.Status = status
	booking.Version++

	s.publishEvent(eventType, booking, actorID)
	return booking, nil
}

func cannotChangeStatus(bookingID int64) error {
	return domain.InvalidArgumentf("cannot change status of booking %d", bookingID)
}

// GetBooking returns the booking when the actor is its booker or the item owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID int64) (*models.Booking, error) {
	if err := s.guard.UserExists(ctx, actorID); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != actorID && booking.OwnerID() != actorID {
		s.logger.Warn().Int64("booking_id", bookingID).Int64("actor_id", actorID).Msg("booking is not visible to actor")
		return nil, domain.NotFoundf("booking with id = %d not found", bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, actorID int64, state string, from, size *int) ([]*models.Booking, error) {
	parsed, page, err := s.listArgs(ctx, actorID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBookerBookings(ctx, actorID, parsed, s.now(), page)
}

func (s *BookingService) ListForOwner(ctx context.Context, actorID int64, state string, from, size *int) ([]*models.Booking, error) {
	parsed, page, err := s.listArgs(ctx, actorID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOwnerBookings(ctx, actorID, parsed, s.now(), page)
}

func (s *BookingService) listArgs(ctx context.Context, actorID int64, state string, from, size *int) (models.BookingState, models.Page, error) {
	if err := s.guard.UserExists(ctx, actorID); err != nil {
		return "", models.Page{}, err
	}
	parsed, err := s.guard.ValidateState(state)
	if err != nil {
		return "", models.Page{}, err
	}
	page, err := s.guard.ValidatePagination(from, size)
	if err != nil {
		return "", models.Page{}, err
	}
	return parsed, page, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		OwnerID:   booking.OwnerID(),
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
