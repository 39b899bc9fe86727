package kafka

import (
	"context"
	"crypto/tls"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config structure
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	UseTLS       bool          `mapstructure:"use_tls"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Enabled returns true when at least one broker is configured
func (cfg Config) Enabled() bool {
	return len(cfg.Brokers) > 0 && cfg.Topic != ""
}

// Producer publishes JSON encoded events keyed by an entity id
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer for the configured topic
func NewProducer(cfg Config) *Producer {
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: timeout,
	}
	if cfg.UseTLS {
		writer.Transport = &kafka.Transport{TLS: &tls.Config{MinVersion: tls.VersionTLS12}}
	}
	return &Producer{writer: writer, topic: cfg.Topic}
}

// Publish encodes the event and writes it synchronously
func (p *Producer) Publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "unable to encode event")
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return errors.Wrapf(err, "unable to publish event on %s", p.topic)
	}
	log.Debug().Str("section", "kafka").Str("topic", p.topic).Str("key", key).Msg("Event published")
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
