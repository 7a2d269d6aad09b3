package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"edupro/internal/model"
	"edupro/pkg/logging"
)

// Notification is what a user would be told about an event.
type Notification struct {
	RecipientId string
	Text        string
}

// Describe turns an event into a notification. Unknown event types yield
// ok == false.
func Describe(env Envelope) (Notification, bool, error) {
	switch env.Type {
	case TypeSubmissionRecorded:
		var ev model.SubmissionRecordedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		verdict := "not passed"
		if ev.Passed {
			verdict = "passed"
		}
		kind := "submission"
		if ev.Retake {
			kind = "retake"
		}
		return Notification{
			RecipientId: ev.StudentId.String(),
			Text:        fmt.Sprintf("Your %s was scored %d/%d (%s)", kind, ev.Score, ev.MaxScore, verdict),
		}, true, nil

	case TypeMessageSent:
		var ev model.MessageSentEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return Notification{
			RecipientId: ev.RecipientId.String(),
			Text:        fmt.Sprintf("New message: %s", ev.Preview),
		}, true, nil
	}
	return Notification{}, false, nil
}

// LogNotifier delivers notifications to the log.
func LogNotifier(logger *logging.Logger) Handler {
	return func(ctx context.Context, topic string, env Envelope) error {
		n, ok, err := Describe(env)
		if err != nil {
			// A payload that cannot be decoded will not decode on redelivery either.
			logger.Warn(ctx, "dropping malformed event", zap.String("topic", topic), zap.Error(err))
			return nil
		}
		if !ok {
			logger.Debug(ctx, "ignoring event", zap.String("topic", topic), zap.String("type", env.Type))
			return nil
		}
		logger.Info(ctx, "notification",
			zap.String("topic", topic),
			zap.String("type", env.Type),
			zap.String("recipient_id", n.RecipientId),
			zap.String("text", n.Text),
		)
		return nil
	}
}
