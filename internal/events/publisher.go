// Package events carries domain events over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"edupro/internal/model"
	"edupro/pkg/retry"
)

const (
	TypeSubmissionRecorded = "submission.recorded"
	TypeMessageSent        = "message.sent"

	publishTimeout = 3 * time.Second
)

// Envelope is the value written to every topic.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer           messageWriter
	submissionsTopic string
	messagesTopic    string
	breaker          *retry.CircuitBreaker
}

func NewPublisher(brokers []string, submissionsTopic, messagesTopic string) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           publishTimeout,
	}
	return newPublisher(writer, submissionsTopic, messagesTopic)
}

func newPublisher(writer messageWriter, submissionsTopic, messagesTopic string) *Publisher {
	return &Publisher{
		writer:           writer,
		submissionsTopic: submissionsTopic,
		messagesTopic:    messagesTopic,
		breaker:          retry.NewCircuitBreaker(5, 30*time.Second),
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) PublishSubmissionRecorded(ctx context.Context, event *model.SubmissionRecordedEvent) error {
	return p.publish(ctx, p.submissionsTopic, TypeSubmissionRecorded, event.AssessmentId.String(), event)
}

// PublishMessageSent keys by conversation so a conversation's events stay
// ordered within one partition.
func (p *Publisher) PublishMessageSent(ctx context.Context, event *model.MessageSentEvent) error {
	return p.publish(ctx, p.messagesTopic, TypeMessageSent, event.ConversationId.String(), event)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	value, err := json.Marshal(Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: body})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.breaker.Execute(func() error {
		err := p.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
			Time:  time.Now(),
		})
		if err != nil {
			return retry.Transient(fmt.Errorf("failed to send %s event: %w", eventType, err))
		}
		return nil
	})
}
