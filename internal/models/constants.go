package models

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// IsTerminal reports whether no further status change may be applied.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// BookingState is the query-time filter over an actor's bookings.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var knownStates = map[BookingState]struct{}{
	StateAll:      {},
	StateCurrent:  {},
	StatePast:     {},
	StateFuture:   {},
	StateWaiting:  {},
	StateRejected: {},
}

// ParseState returns the state named by s and whether it is known.
// Matching is exact: "all" is not ALL.
func ParseState(s string) (BookingState, bool) {
	state := BookingState(s)
	_, ok := knownStates[state]
	return state, ok
}

const (
	// HeaderUserID identifies the acting user on every request.
	HeaderUserID = "X-Sharer-User-Id"

	// DateTimeLayout is the wire format of booking timestamps.
	DateTimeLayout = "2006-01-02T15:04:05"

	// DefaultItemCacheSize is the number of items kept in the read cache.
	DefaultItemCacheSize = 1024

	// DefaultItemCacheTTL is the item cache entry lifetime in seconds.
	DefaultItemCacheTTL = 5 * 60

	// DefaultUserRequests is the per-user request quota within one window.
	DefaultUserRequests = 120

	// DefaultUserWindow is the per-user quota window in seconds.
	DefaultUserWindow = 60
)

// Page is a validated offset/limit pair. Limit 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// Unbounded is the page used when from or size is not given.
var Unbounded = Page{}

// NewPage converts from/size into a page the way the public API has always done:
// the page index is from/size, so from is rounded down to a multiple of size.
// Callers validate from and size first.
func NewPage(from, size *int) Page {
	if from == nil || size == nil {
		return Unbounded
	}
	return Page{Offset: (*from / *size) * *size, Limit: *size}
}
