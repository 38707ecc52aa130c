package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"property-finance-system/internal/core/domain"
)

// Notifier is the Kafka implementation of the NotificationDispatcher port.
// It publishes confirmation events for downstream delivery and archiving;
// it never participates in the payment's own success or failure.
type Notifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewNotifier creates a new Kafka notifier instance.
func NewNotifier(bootstrapServers []string, topic string, logger *slog.Logger) (*Notifier, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	// Checking the connection
	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Notifier{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// SendPaymentConfirmation publishes a confirmation event. The produce is
// asynchronous; delivery outcome only shows up in the log.
func (n *Notifier) SendPaymentConfirmation(ctx context.Context, confirmation domain.PaymentConfirmation) error {
	payload, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(confirmation.PaymentID.String()),
		Value: payload,
	}

	n.wg.Add(1)
	// Produce sends a record asynchronously.
	n.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer n.wg.Done()
		if err != nil {
			n.logger.Error("failed to deliver confirmation to kafka", "topic", r.Topic, "error", err)
		} else {
			n.logger.Debug("confirmation delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
		}
	})

	return nil
}

// Close gracefully stops the notifier.
func (n *Notifier) Close() {
	n.logger.Info("waiting for in-flight confirmations to drain...")
	n.wg.Wait() // wait until every delivery callback has run
	n.client.Close()
	n.logger.Info("kafka notifier stopped")
}
