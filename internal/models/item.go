package models

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"-"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// ItemPatch carries the fields of a partial item update. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// ItemDetails is an item together with its comments and, for the owner,
// the nearest approved bookings around the current moment.
type ItemDetails struct {
	Item
	LastBooking *BookingShort `json:"lastBooking"`
	NextBooking *BookingShort `json:"nextBooking"`
	Comments    []Comment     `json:"comments"`
}
