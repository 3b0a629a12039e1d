package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/abgdnv/storemanager/pkg/messaging/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_Publish(t *testing.T) {
	// given
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)
	event := events.SaleCreatedEvent{SaleID: 12, Items: []events.SaleItem{{ProductID: 3, Quantity: 2}}}

	// when
	err := p.Publish(context.Background(), event)

	// then
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "12", string(w.msgs[0].Key))
	assert.Equal(t, "sales.created", headerValue(w.msgs[0], "subject"))
	assert.Equal(t, "application/json", headerValue(w.msgs[0], "Content-Type"))
	assert.JSONEq(t, `{"sale_id":12,"items":[{"product_id":3,"quantity":2}],"created_at":"0001-01-01T00:00:00Z"}`, string(w.msgs[0].Value))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewKafkaPublisher(w)

	err := p.Publish(context.Background(), events.SaleDeletedEvent{SaleID: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales.deleted")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewKafkaPublisher(w).Close())
	assert.True(t, w.closed)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sales", Timeout: 3 * time.Second})

	assert.Equal(t, "sales", w.Topic)
	assert.Equal(t, 3*time.Second, w.WriteTimeout)
	assert.Contains(t, w.Addr.String(), "localhost:9092")
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)
}
