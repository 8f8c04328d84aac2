package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes events to a zerolog logger. It is the fallback used when
// no broker is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.logger.Info().
		Str("event", ev.Type).
		Str("booking_id", ev.BookingID).
		Str("court_id", ev.CourtID).
		Str("recipient", ev.Recipient).
		Str("status", ev.Status).
		Str("slot", ev.Date+" "+ev.StartTime+"-"+ev.EndTime).
		Msg("booking notification")
	return nil
}
