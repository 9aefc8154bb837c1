package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		return nil
	})

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 7, ItemID: 3, Status: "WAITING", Start: start})
	require.NoError(t, err)
	require.NotNil(t, received)

	assert.Equal(t, EventBookingCreated, received.Type)
	assert.Equal(t, int64(1), received.ID)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "WAITING", decoded.Status)
	assert.True(t, start.Equal(decoded.Start))
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var order []int

	bus.Subscribe("event", func(_ *Event) error { order = append(order, 1); return nil })
	bus.Subscribe("event", func(_ *Event) error { order = append(order, 2); return nil })

	require.NoError(t, bus.Publish(&Event{Type: "event"}))
	assert.Equal(t, []int{1, 2}, order)
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	called := false

	bus.Subscribe("event", func(_ *Event) error { return boom })
	bus.Subscribe("event", func(_ *Event) error { called = true; return nil })

	err := bus.Publish(&Event{Type: "event"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))
}

func TestEventBusNil(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingApproved, BookingEventPayload{}))
}

func TestEventBusUnmarshalablePayload(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.PublishJSON("event", make(chan int)))
}
