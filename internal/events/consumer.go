package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"edupro/pkg/logging"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one decoded event. Returning an error leaves the
// message uncommitted for redelivery.
type Handler func(ctx context.Context, topic string, env Envelope) error

type Consumer struct {
	reader  messageReader
	handler Handler
	logger  *logging.Logger
}

func NewConsumer(brokers []string, groupID string, topics []string, handler Handler, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
	})
	return &Consumer{reader: reader, handler: handler, logger: logger}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Run consumes until ctx is cancelled. Undecodable messages are logged and
// committed so they do not block the partition.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info(ctx, "consumer shutting down")
				return
			}
			c.logger.Error(ctx, "failed to fetch message", zap.Error(err))
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.logger.Warn(ctx, "failed to unmarshal message",
				zap.String("topic", msg.Topic),
				zap.ByteString("value", msg.Value),
				zap.Error(err),
			)
		} else if err := c.handler(ctx, msg.Topic, env); err != nil {
			c.logger.Error(ctx, "failed to handle event",
				zap.String("topic", msg.Topic),
				zap.String("type", env.Type),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error(ctx, "failed to commit message", zap.Error(err))
		}
	}
}
