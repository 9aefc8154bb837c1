package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	db       *database.DB
	users    *UserService
	items    *ItemService
	bookings *BookingService
	requests *RequestService
	bus      *events.EventBus
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shareit.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	guard := NewConsistencyService(db, &logger)
	items := NewItemService(db, guard, 16, time.Minute, &logger)
	return &stack{
		db:       db,
		users:    NewUserService(db, &logger),
		items:    items,
		bookings: NewBookingService(db, guard, items, bus, &logger),
		requests: NewRequestService(db, guard, &logger),
		bus:      bus,
	}
}

func (s *stack) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := s.users.CreateUser(context.Background(), &models.User{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func TestScenario_BookApproveAndView(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	var seen []string
	for _, eventType := range events.BookingTypes {
		s.bus.Subscribe(eventType, func(e *events.Event) error {
			seen = append(seen, e.Type)
			return nil
		})
	}

	a := s.user(t, "a")
	b := s.user(t, "b")
	c := s.user(t, "c")

	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true})
	require.NoError(t, err)

	start := time.Date(2030, 12, 25, 12, 0, 0, 0, time.UTC)
	end := time.Date(2030, 12, 26, 12, 0, 0, 0, time.UTC)

	booking, err := s.bookings.CreateBooking(ctx, item.ID, start, end, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.Equal(t, b.ID, booking.Booker.ID)
	assert.Equal(t, item.ID, booking.Item.ID)

	approved, err := s.bookings.SetStatus(ctx, booking.ID, true, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	got, err := s.bookings.GetBooking(ctx, booking.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	_, err = s.bookings.GetBooking(ctx, booking.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.bookings.SetStatus(ctx, booking.ID, false, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	got, err = s.bookings.GetBooking(ctx, booking.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingApproved}, seen)
}

func TestScenario_BookOwnItem(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a := s.user(t, "a")
	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true})
	require.NoError(t, err)

	now := time.Now()
	_, err = s.bookings.CreateBooking(ctx, item.ID, now.Add(time.Hour), now.Add(2*time.Hour), a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "cannot book your own item", err.Error())
}

func TestScenario_ClosedItemAfterUpdate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a := s.user(t, "a")
	b := s.user(t, "b")
	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true})
	require.NoError(t, err)

	// warm the cache, then close the item
	_, err = s.items.GetItem(ctx, item.ID)
	require.NoError(t, err)
	closed := false
	_, err = s.items.UpdateItem(ctx, item.ID, a.ID, models.ItemPatch{Available: &closed})
	require.NoError(t, err)

	now := time.Now()
	_, err = s.bookings.CreateBooking(ctx, item.ID, now.Add(time.Hour), now.Add(2*time.Hour), b.ID)
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestScenario_ConcurrentSetStatus(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a := s.user(t, "a")
	b := s.user(t, "b")
	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true})
	require.NoError(t, err)

	now := time.Now()
	booking, err := s.bookings.CreateBooking(ctx, item.ID, now.Add(time.Hour), now.Add(2*time.Hour), b.ID)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			_, err := s.bookings.SetStatus(ctx, booking.ID, approve, a.ID)
			errs <- err
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, "cannot change status of booking "+itoa(booking.ID), err.Error())
	}
	assert.Equal(t, 1, succeeded)
}

func TestScenario_PaginationAndPartition(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a := s.user(t, "a")
	b := s.user(t, "b")
	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	h := time.Hour
	mk := func(start, end time.Duration, approve *bool) {
		bk, err := s.bookings.CreateBooking(ctx, item.ID, now.Add(start), now.Add(end), b.ID)
		require.NoError(t, err)
		if approve != nil {
			_, err = s.bookings.SetStatus(ctx, bk.ID, *approve, a.ID)
			require.NoError(t, err)
		}
	}
	yes, no := true, false
	mk(-72*h, -48*h, &yes) // past
	mk(-h, 48*h, &yes)     // current
	mk(24*h, 48*h, nil)    // future, waiting
	mk(72*h, 96*h, &no)    // rejected

	all, err := s.bookings.ListForBooker(ctx, b.ID, "ALL", nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Start.After(all[i].Start), "sorted by start descending")
	}

	page, err := s.bookings.ListForBooker(ctx, b.ID, "ALL", intPtr(0), intPtr(1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[0].ID, page[0].ID)

	count := func(state string) int {
		got, err := s.bookings.ListForBooker(ctx, b.ID, state, nil, nil)
		require.NoError(t, err)
		return len(got)
	}
	assert.Equal(t, 1, count("CURRENT"))
	assert.Equal(t, 1, count("PAST"))
	assert.Equal(t, 1, count("FUTURE"))
	assert.Equal(t, 1, count("WAITING"))
	assert.Equal(t, 1, count("REJECTED"))

	owned, err := s.bookings.ListForOwner(ctx, a.ID, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Len(t, owned, 4)

	none, err := s.bookings.ListForOwner(ctx, b.ID, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScenario_CommentsAndRequests(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a := s.user(t, "a")
	b := s.user(t, "b")

	request, err := s.requests.CreateRequest(ctx, b.ID, "need a drill")
	require.NoError(t, err)

	item, err := s.items.CreateItem(ctx, a.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true, RequestID: &request.ID})
	require.NoError(t, err)

	own, err := s.requests.GetOwnRequests(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Len(t, own[0].Items, 1)
	assert.Equal(t, item.ID, own[0].Items[0].ID)

	_, err = s.items.AddComment(ctx, item.ID, b.ID, "nice")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	now := time.Now()
	bk, err := s.bookings.CreateBooking(ctx, item.ID, now.Add(-2*time.Hour), now.Add(-time.Hour), b.ID)
	require.NoError(t, err)
	_, err = s.bookings.SetStatus(ctx, bk.ID, true, a.ID)
	require.NoError(t, err)

	comment, err := s.items.AddComment(ctx, item.ID, b.ID, "nice")
	require.NoError(t, err)
	assert.Equal(t, "b", comment.AuthorName)

	details, err := s.items.GetItemDetails(ctx, item.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, details.Comments, 1)
	require.NotNil(t, details.LastBooking)
	assert.Equal(t, bk.ID, details.LastBooking.ID)
	assert.Nil(t, details.NextBooking)

	details, err = s.items.GetItemDetails(ctx, item.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, details.LastBooking)
	assert.Len(t, details.Comments, 1)
}
