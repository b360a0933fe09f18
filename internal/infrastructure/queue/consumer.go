package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/carelink/healthcare-portal/internal/infrastructure/mail"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads mail envelopes from Kafka and feeds them to a Dispatcher.
// Offsets are committed once the message is queued for delivery.
type Consumer struct {
	reader     messageReader
	dispatcher *Dispatcher
	log        zerolog.Logger
}

func NewConsumer(cfg mail.KafkaConfig, dispatcher *Dispatcher, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		Dialer:   cfg.Dialer(),
	})
	return &Consumer{reader: reader, dispatcher: dispatcher, log: log}
}

// Run blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch mail message: %w", err)
		}

		var env mail.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			// a poison message is skipped so it cannot block the partition
			c.log.Error().Err(err).Int64("offset", msg.Offset).Int("partition", msg.Partition).Msg("discarding undecodable mail message")
		} else if err := c.dispatcher.Enqueue(ctx, env.Message); err != nil {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("commit mail offset")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
