package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes notifications to the log instead of sending them.
// Used in development.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(ctx context.Context, msg Message) Result {
	return FanOut(ctx, msg.Recipients, 0, 1, func(ctx context.Context, to string) error {
		d.logger.Info("📧 Slot notification",
			zap.String("to", to),
			zap.String("coach", msg.CoachName),
			zap.String("date", msg.Summary.Date),
			zap.String("time", msg.Summary.Time),
			zap.String("booking_url", msg.Summary.BookingURL),
		)
		return nil
	})
}
