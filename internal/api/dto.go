package api

import (
	"encoding/json"
	"fmt"
	"time"

	"shareit/internal/models"
)

// DateTime is a timestamp in the wire layout 2006-01-02T15:04:05, read in the
// server's local zone. RFC 3339 input is accepted as well.
type DateTime time.Time

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).In(time.Local).Format(models.DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}

	t, err := time.ParseInLocation(models.DateTimeLayout, s, time.Local)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("datetime %q must match %s", s, models.DateTimeLayout)
		}
	}
	*d = DateTime(t)
	return nil
}

func (d DateTime) Time() time.Time {
	return time.Time(d)
}

type userRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type userPatchRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type itemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId"`
}

type itemPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

type itemRequestRequest struct {
	Description string `json:"description" validate:"required"`
}

type bookingRequest struct {
	ItemID int64     `json:"itemId" validate:"required"`
	Start  *DateTime `json:"start" validate:"required"`
	End    *DateTime `json:"end" validate:"required"`
}

type bookingResponse struct {
	ID     int64                `json:"id"`
	Start  DateTime             `json:"start"`
	End    DateTime             `json:"end"`
	Status models.BookingStatus `json:"status"`
	Item   *models.Item         `json:"item"`
	Booker *models.User         `json:"booker"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:     b.ID,
		Start:  DateTime(b.Start),
		End:    DateTime(b.End),
		Status: b.Status,
		Item:   b.Item,
		Booker: b.Booker,
	}
}

func toBookingResponses(bookings []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

type bookingShortResponse struct {
	ID       int64    `json:"id"`
	BookerID int64    `json:"bookerId"`
	Start    DateTime `json:"start"`
	End      DateTime `json:"end"`
}

type commentResponse struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

func toCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: DateTime(c.Created)}
}

type itemDetailsResponse struct {
	models.Item
	LastBooking *bookingShortResponse `json:"lastBooking"`
	NextBooking *bookingShortResponse `json:"nextBooking"`
	Comments    []commentResponse     `json:"comments"`
}

func toItemDetailsResponse(d *models.ItemDetails) itemDetailsResponse {
	out := itemDetailsResponse{
		Item:        d.Item,
		LastBooking: toShortResponse(d.LastBooking),
		NextBooking: toShortResponse(d.NextBooking),
		Comments:    make([]commentResponse, 0, len(d.Comments)),
	}
	for i := range d.Comments {
		out.Comments = append(out.Comments, toCommentResponse(&d.Comments[i]))
	}
	return out
}

func toShortResponse(s *models.BookingShort) *bookingShortResponse {
	if s == nil {
		return nil
	}
	return &bookingShortResponse{ID: s.ID, BookerID: s.BookerID, Start: DateTime(s.Start), End: DateTime(s.End)}
}

type itemRequestResponse struct {
	ID          int64         `json:"id"`
	Description string        `json:"description"`
	Created     DateTime      `json:"created"`
	Items       []models.Item `json:"items"`
}

func toItemRequestResponse(r *models.ItemRequest) itemRequestResponse {
	items := r.Items
	if items == nil {
		items = []models.Item{}
	}
	return itemRequestResponse{ID: r.ID, Description: r.Description, Created: DateTime(r.Created), Items: items}
}

func toItemRequestResponses(requests []*models.ItemRequest) []itemRequestResponse {
	out := make([]itemRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toItemRequestResponse(r))
	}
	return out
}
