package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UserExists(ctx context.Context, id int64) (bool, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
	ItemExists(ctx context.Context, id int64) (bool, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	BookingExists(ctx context.Context, id int64) (bool, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	GetBookerBookings(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, page models.Page) ([]*models.Booking, error)
	GetOwnerBookings(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, page models.Page) ([]*models.Booking, error)
	GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasStartedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error)
}

type ItemRequestRepository interface {
	CreateItemRequest(ctx context.Context, request *models.ItemRequest) error
	GetItemRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetItemRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetItemRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error)
	ItemRequestExists(ctx context.Context, id int64) (bool, error)
}

// Repository is the full storage surface implemented by database.DB.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	ItemRequestRepository
}

type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Guard asserts that referenced entities exist and that query parameters are well formed.
type Guard interface {
	UserExists(ctx context.Context, id int64) error
	ItemExists(ctx context.Context, id int64) error
	BookingExists(ctx context.Context, id int64) error
	ItemRequestExists(ctx context.Context, id int64) error
	ValidateState(name string) (models.BookingState, error)
	ValidatePagination(from, size *int) (models.Page, error)
}

// ItemReader is the read-only view of the catalog used by the booking engine.
type ItemReader interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, itemID int64, start, end time.Time, bookerID int64) (*models.Booking, error)
	SetStatus(ctx context.Context, bookingID int64, approve bool, actorID int64) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID int64) (*models.Booking, error)
	ListForBooker(ctx context.Context, actorID int64, state string, from, size *int) ([]*models.Booking, error)
	ListForOwner(ctx context.Context, actorID int64, state string, from, size *int) ([]*models.Booking, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	ItemReader
	CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error)
	GetItemDetails(ctx context.Context, itemID, actorID int64) (*models.ItemDetails, error)
	GetOwnerItems(ctx context.Context, ownerID int64, from, size *int) ([]*models.ItemDetails, error)
	SearchItems(ctx context.Context, text string, from, size *int) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error)
}

type ItemRequestService interface {
	CreateRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error)
	GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, userID int64, from, size *int) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequest, error)
}
