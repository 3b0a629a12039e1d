// Package audit consumes sale events from JetStream and writes them to the audit log.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/abgdnv/storemanager/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Message is the part of a JetStream message the handler needs.
type Message interface {
	Subject() string
	Data() []byte
	Ack() error
	Term() error
}

var tracer = otel.Tracer("storemanager/audit")

// ErrUnknownSubject is returned for events the audit log does not know how to read.
var ErrUnknownSubject = errors.New("unknown event subject")

// Entry is one line of the audit log.
type Entry struct {
	Subject string
	SaleID  int64
	Items   []events.SaleItem
	At      time.Time
	Trace   map[string]string
}

// Start creates the durable consumer and runs the configured number of workers until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", subscriberCfg.Consumer, err)
	}
	logger.Info("Audit consumer ready", "stream", subscriberCfg.Stream, "consumer", subscriberCfg.Consumer)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, logger.With("worker", i))
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("Failed to fetch messages", "error", err)
				time.Sleep(cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, logger)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				logger.Warn("Fetch ended with error", "error", err)
			}
		}
	}
}

// handleMessage writes one audit entry. Undecodable messages are terminated, redelivery cannot fix them.
func handleMessage(ctx context.Context, msg Message, logger *slog.Logger) {
	if msg == nil {
		logger.Error("Received nil message")
		return
	}
	entry, err := decode(msg.Subject(), msg.Data())
	if err != nil {
		logger.Error("Failed to decode event", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("Failed to terminate message", "error", err)
		}
		return
	}

	ctx, span := tracer.Start(events.ContextWithTrace(ctx, entry.Trace), "audit "+entry.Subject,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.Int64("sale.id", entry.SaleID)))
	defer span.End()

	logger.InfoContext(ctx, "Sale event",
		slog.String("subject", entry.Subject),
		slog.Int64("sale_id", entry.SaleID),
		slog.Any("items", entry.Items),
		slog.String("at", entry.At.Format(time.RFC3339)))

	if err := msg.Ack(); err != nil {
		logger.Error("Failed to ack message", "error", err)
	}
}

// decode reads the payload according to the subject it was published on.
func decode(subject string, data []byte) (Entry, error) {
	switch subject {
	case messaging.SalesCreatedSubject:
		var e events.SaleCreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return Entry{}, err
		}
		return Entry{Subject: subject, SaleID: e.SaleID, Items: e.Items, At: e.CreatedAt, Trace: e.Trace}, nil
	case messaging.SalesUpdatedSubject:
		var e events.SaleUpdatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return Entry{}, err
		}
		return Entry{Subject: subject, SaleID: e.SaleID, Items: e.Items, At: e.UpdatedAt, Trace: e.Trace}, nil
	case messaging.SalesDeletedSubject:
		var e events.SaleDeletedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return Entry{}, err
		}
		return Entry{Subject: subject, SaleID: e.SaleID, Items: e.Restored, At: e.DeletedAt, Trace: e.Trace}, nil
	default:
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
}
