package models

import "time"

type Booking struct {
	ID       int64         `json:"id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	ItemID   int64         `json:"-"`
	BookerID int64         `json:"-"`
	Status   BookingStatus `json:"status"`
	Version  int64         `json:"-"`

	// Item and Booker are filled by reads that join the related rows.
	Item   *Item `json:"item,omitempty"`
	Booker *User `json:"booker,omitempty"`
}

// BookingShort is the compact booking reference embedded into item views.
type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (b *Booking) Short() *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

// OwnerID returns the owner of the booked item, or 0 when the item was not loaded.
func (b *Booking) OwnerID() int64 {
	if b.Item == nil {
		return 0
	}
	return b.Item.OwnerID
}
