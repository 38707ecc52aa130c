package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"property-finance-system/internal/config"
	"property-finance-system/internal/core/domain"
	"property-finance-system/internal/observability"
)

func main() {
	// --- Configuration Setup ---
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("ledger archiver starting", "env", cfg.App.Env)

	dlqTopic := cfg.Kafka.DLQTopic
	if dlqTopic == "" {
		dlqTopic = cfg.Kafka.ConfirmationTopic + ".dlq"
	}

	// --- Component Initialization ---
	kafkaBrokers := strings.Split(cfg.Kafka.BootstrapServers, ",")

	// Kafka producer for the Dead-Letter Queue.
	dlqProducer, err := kgo.NewClient(
		kgo.SeedBrokers(kafkaBrokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		logger.Error("failed to create Kafka producer for DLQ", "error", err)
		os.Exit(1)
	}
	defer dlqProducer.Close()

	// ClickHouse client for the payment archive.
	chConn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouse.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
		},
	})
	if err != nil {
		logger.Error("failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := chConn.Close(); err != nil {
			logger.Error("failed to close ClickHouse connection", "error", err)
		}
	}()

	// Subscribe to the confirmation topic. Offsets are committed manually
	// after a batch lands in the archive.
	consumerClient, err := kgo.NewClient(
		kgo.SeedBrokers(kafkaBrokers...),
		kgo.ConsumerGroup("ledger-archiver-group"),
		kgo.ConsumeTopics(cfg.Kafka.ConfirmationTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		logger.Error("failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumerClient.Close()

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("ledger archiver running...")

	run := true
	for run {
		select {
		case <-ctx.Done():
			run = false
		default:
			fetches := consumerClient.PollFetches(ctx)
			if fetches.IsClientClosed() || ctx.Err() != nil {
				break
			}

			fetches.EachError(func(t string, p int32, err error) {
				logger.Error("error reading from kafka", "topic", t, "partition", p, "error", err)
			})
			fetches.EachRecord(func(record *kgo.Record) {
				var confirmation domain.PaymentConfirmation
				if err := json.Unmarshal(record.Value, &confirmation); err != nil {
					logger.Error("failed to parse confirmation, sending to DLQ", "error", err)
					sendToDLQ(dlqProducer, dlqTopic, record, "unmarshal_error", err.Error())
					return
				}

				amount, _ := confirmation.Amount.Float64()
				fee, _ := confirmation.Fee.Float64()
				total, _ := confirmation.TotalAmount.Float64()
				err = chConn.Exec(ctx, `
				INSERT INTO payment_archive (payment_id, tenant_id, property_name, method, reference, amount_kes, fee_kes, total_kes, payment_date, archived_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					confirmation.PaymentID,
					confirmation.TenantID,
					confirmation.PropertyName,
					string(confirmation.Method),
					confirmation.Reference,
					amount,
					fee,
					total,
					confirmation.PaymentDate,
					time.Now(),
				)
				if err != nil {
					logger.Error("failed to insert into ClickHouse", "error", err, "payment_id", confirmation.PaymentID)
					return
				}

				logger.Info("payment archived", "payment_id", confirmation.PaymentID, "method", confirmation.Method)
			})

			// Commit offsets after the batch has been processed.
			if err := consumerClient.CommitUncommittedOffsets(ctx); err != nil {
				logger.Error("error committing offsets", "error", err)
			}
		}
	}

	logger.Info("ledger archiver stopping...")
}

// sendToDLQ forwards the original malformed event to the Dead-Letter Queue
// with failure metadata in the headers.
func sendToDLQ(p *kgo.Client, dlqTopic string, originalRecord *kgo.Record, errorType, errorString string) {
	dlqRecord := &kgo.Record{
		Topic: dlqTopic,
		Value: originalRecord.Value,
		Key:   originalRecord.Key,
		Headers: []kgo.RecordHeader{
			{Key: "error_type", Value: []byte(errorType)},
			{Key: "error_string", Value: []byte(errorString)},
			{Key: "original_topic", Value: []byte(originalRecord.Topic)},
		},
	}
	p.Produce(context.Background(), dlqRecord, func(r *kgo.Record, err error) {
		if err != nil {
			// Losing a DLQ message is not acceptable; make it loud.
			fmt.Fprintf(os.Stderr, "FATAL: failed to send message to DLQ: %v\n", err)
		}
	})
}
