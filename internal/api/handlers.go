package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type handler struct {
	svc    Services
	logger *zerolog.Logger
	now    func() time.Time
}

// fail writes err and logs failures that are not client errors.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusCode(err) == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, r, err)
}

// Users

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.svc.Users.CreateUser(r.Context(), &models.User{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req userPatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.svc.Users.UpdateUser(r.Context(), id, models.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.Users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.GetAllUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Users.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Items

func (h *handler) createItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.svc.Items.CreateItem(r.Context(), ownerID, &models.Item{
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "item")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req itemPatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.svc.Items.UpdateItem(r.Context(), itemID, ownerID, models.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Available:   req.Available,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "item")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	details, err := h.svc.Items.GetItemDetails(r.Context(), itemID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemDetailsResponse(details))
}

func (h *handler) listOwnerItems(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, size, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items, err := h.svc.Items.GetOwnerItems(r.Context(), ownerID, from, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]itemDetailsResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toItemDetailsResponse(d))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) searchItems(w http.ResponseWriter, r *http.Request) {
	from, size, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items, err := h.svc.Items.SearchItems(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	authorID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "item")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.svc.Items.AddComment(r.Context(), itemID, authorID, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCommentResponse(comment))
}

// Item requests

func (h *handler) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req itemRequestRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	request, err := h.svc.Requests.CreateRequest(r.Context(), userID, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemRequestResponse(request))
}

func (h *handler) listOwnRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	requests, err := h.svc.Requests.GetOwnRequests(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemRequestResponses(requests))
}

func (h *handler) listOtherRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, size, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	requests, err := h.svc.Requests.GetOtherRequests(r.Context(), userID, from, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemRequestResponses(requests))
}

func (h *handler) getRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	requestID, err := pathID(r, "request")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	request, err := h.svc.Requests.GetRequest(r.Context(), requestID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemRequestResponse(request))
}

// Bookings

func (h *handler) createBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req bookingRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	booking, err := h.svc.Bookings.CreateBooking(r.Context(), req.ItemID, req.Start.Time(), req.End.Time(), bookerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingResponse(booking))
}

func (h *handler) setBookingStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "booking")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw := r.URL.Query().Get("approved")
	approve, err := strconv.ParseBool(raw)
	if err != nil {
		h.fail(w, r, domain.InvalidArgumentf("approved must be true or false, got %q", raw))
		return
	}

	booking, err := h.svc.Bookings.SetStatus(r.Context(), bookingID, approve, ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingResponse(booking))
}

func (h *handler) getBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "booking")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	booking, err := h.svc.Bookings.GetBooking(r.Context(), bookingID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingResponse(booking))
}

func (h *handler) listBookerBookings(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, h.svc.Bookings.ListForBooker)
}

func (h *handler) listOwnerBookings(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, h.svc.Bookings.ListForOwner)
}

type bookingLister func(ctx context.Context, actorID int64, state string, from, size *int) ([]*models.Booking, error)

func (h *handler) listBookings(w http.ResponseWriter, r *http.Request, list bookingLister) {
	userID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, size, err := queryPage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(models.StateAll)
	}

	bookings, err := list(r.Context(), userID, state, from, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBookingResponses(bookings))
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) exportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := actorID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	bookings, err := h.svc.Bookings.ListForOwner(r.Context(), ownerID, string(models.StateAll), nil, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(ownerID, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
