package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/storemanager/pkg/messaging"
	"github.com/abgdnv/storemanager/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockMessage struct {
	mock.Mock
}

func (m *mockMessage) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockMessage) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockMessage) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockMessage) Term() error {
	args := m.Called()
	return args.Error(0)
}

func payload(t *testing.T, e messaging.Event) []byte {
	t.Helper()
	data, err := e.Payload()
	require.NoError(t, err)
	return data
}

func Test_handleMessage(t *testing.T) {
	now := time.Now().UTC()
	testCases := []struct {
		name       string
		newMockMsg func(t *testing.T) *mockMessage
	}{
		{
			name: "sale created",
			newMockMsg: func(t *testing.T) *mockMessage {
				msg := new(mockMessage)
				msg.On("Subject").Return(messaging.SalesCreatedSubject)
				msg.On("Data").Return(payload(t, events.SaleCreatedEvent{SaleID: 1, Items: []events.SaleItem{{ProductID: 2, Quantity: 3}}, CreatedAt: now})).Once()
				msg.On("Ack").Return(nil).Once()
				return msg
			},
		},
		{
			name: "sale deleted",
			newMockMsg: func(t *testing.T) *mockMessage {
				msg := new(mockMessage)
				msg.On("Subject").Return(messaging.SalesDeletedSubject)
				msg.On("Data").Return(payload(t, events.SaleDeletedEvent{SaleID: 1, DeletedAt: now})).Once()
				msg.On("Ack").Return(nil).Once()
				return msg
			},
		},
		{
			name: "invalid payload",
			newMockMsg: func(*testing.T) *mockMessage {
				msg := new(mockMessage)
				msg.On("Subject").Return(messaging.SalesUpdatedSubject)
				msg.On("Data").Return([]byte("invalid data")).Once()
				msg.On("Term").Return(nil).Once()
				return msg
			},
		},
		{
			name: "unknown subject",
			newMockMsg: func(*testing.T) *mockMessage {
				msg := new(mockMessage)
				msg.On("Subject").Return("orders.created")
				msg.On("Data").Return([]byte("{}")).Once()
				msg.On("Term").Return(nil).Once()
				return msg
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			msg := tc.newMockMsg(t)

			// when
			handleMessage(context.Background(), msg, discard)

			// then
			msg.AssertExpectations(t)
		})
	}
}

func Test_decode(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []events.SaleItem{{ProductID: 4, Quantity: 2}}

	updated, err := json.Marshal(events.SaleUpdatedEvent{SaleID: 9, Items: items, UpdatedAt: at, Trace: map[string]string{"traceparent": "x"}})
	require.NoError(t, err)

	entry, err := decode(messaging.SalesUpdatedSubject, updated)
	require.NoError(t, err)
	assert.Equal(t, Entry{Subject: messaging.SalesUpdatedSubject, SaleID: 9, Items: items, At: at, Trace: map[string]string{"traceparent": "x"}}, entry)

	deleted, err := json.Marshal(events.SaleDeletedEvent{SaleID: 9, Restored: items, DeletedAt: at})
	require.NoError(t, err)
	entry, err = decode(messaging.SalesDeletedSubject, deleted)
	require.NoError(t, err)
	assert.Equal(t, items, entry.Items)

	_, err = decode("sales.unknown", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func Test_handleMessage_Nil(t *testing.T) {
	assert.NotPanics(t, func() { handleMessage(context.Background(), nil, discard) })
}
