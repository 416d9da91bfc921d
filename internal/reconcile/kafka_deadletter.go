package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

const deadLetterTopic = "reconcile-deadletter"

// KafkaDeadLetter publishes swallowed reconciliation failures to a kafka
// topic keyed by session id, so replays for one session stay ordered.
type KafkaDeadLetter struct {
	writer *kafka.Writer
}

func NewKafkaDeadLetter(brokers ...string) *KafkaDeadLetter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  deadLetterTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaDeadLetter{writer: w}
}

func (d *KafkaDeadLetter) Publish(ctx context.Context, f Failure) error {
	value, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal dead-letter: %w", err)
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(f.SessionID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish dead-letter: %w", err)
	}
	return nil
}

func (d *KafkaDeadLetter) Close() error {
	return d.writer.Close()
}
