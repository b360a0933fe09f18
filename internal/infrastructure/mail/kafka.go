package mail

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaConfig describes the mail topic. SASL/TLS is enabled when Username is set.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	Username string
	Password string
}

// Dialer returns the kafka-go dialer for readers.
func (c KafkaConfig) Dialer() *kafka.Dialer {
	d := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	if c.Username != "" {
		d.TLS = &tls.Config{}
		d.SASLMechanism = plain.Mechanism{Username: c.Username, Password: c.Password}
	}
	return d
}

func (c KafkaConfig) transport() *kafka.Transport {
	t := &kafka.Transport{}
	if c.Username != "" {
		t.TLS = &tls.Config{}
		t.SASL = plain.Mechanism{Username: c.Username, Password: c.Password}
	}
	return t
}

// Envelope is the Kafka payload consumed by the mail worker.
type Envelope struct {
	ID       string    `json:"id"`
	Message  Message   `json:"message"`
	QueuedAt time.Time `json:"queuedAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport publishes messages for the mail worker. Keys are the
// recipient so one recipient's mail stays on one partition.
type KafkaTransport struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaTransport(cfg KafkaConfig) *KafkaTransport {
	return &KafkaTransport{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
			Transport:    cfg.transport(),
		},
		now: time.Now,
	}
}

func (t *KafkaTransport) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{ID: uuid.NewString(), Message: m, QueuedAt: t.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode mail envelope: %w", err)
	}
	if err := t.writer.WriteMessages(ctx, kafka.Message{Key: []byte(m.To), Value: value}); err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

func (t *KafkaTransport) Close() error {
	return t.writer.Close()
}
