package events

import (
	"github.com/rs/zerolog"
)

// SubscribeBookingLog logs every booking event and reports its type to count.
// A nil count only logs.
func SubscribeBookingLog(bus *EventBus, logger *zerolog.Logger, count func(eventType string)) {
	for _, eventType := range BookingTypes {
		bus.Subscribe(eventType, func(event *Event) error {
			var payload BookingEventPayload
			if err := event.Decode(&payload); err != nil {
				logger.Error().Err(err).Str("type", event.Type).Int64("event_id", event.ID).Msg("decode booking event")
				return err
			}

			logger.Info().
				Str("type", event.Type).
				Int64("event_id", event.ID).
				Int64("booking_id", payload.BookingID).
				Int64("item_id", payload.ItemID).
				Int64("actor_id", payload.ActorID).
				Str("status", payload.Status).
				Msg("booking event")

			if count != nil {
				count(event.Type)
			}
			return nil
		})
	}
}
