package nats

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storemanager/nats")

type NatsPublisher struct {
	js jetstream.JetStream
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// Publish sends the event and waits for the JetStream ack. It runs in a producer span
// whose context travels in the message headers.
func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	subject := event.Subject()
	ctx, span := tracer.Start(ctx, "publish "+subject,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", subject),
		))
	defer span.End()

	data, err := event.Payload()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payload")
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(messaging.HeaderContentType, messaging.ContentTypeJSON)
	if key, ok := messaging.EventKey(event); ok {
		msg.Header.Set(messaging.HeaderEventKey, key)
		span.SetAttributes(attribute.String("messaging.message.key", key))
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	ack, err := p.js.PublishMsg(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish")
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	span.SetAttributes(attribute.Int64("messaging.nats.sequence", int64(ack.Sequence)))
	return nil
}
