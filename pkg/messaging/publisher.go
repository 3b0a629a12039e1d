// Package messaging defines domain events and the publishers that deliver them.
package messaging

import (
	"context"
	"strconv"
)

// Subjects of the sale events. SalesSubjects matches all of them.
const (
	SalesCreatedSubject = "sales.created"
	SalesUpdatedSubject = "sales.updated"
	SalesDeletedSubject = "sales.deleted"
	SalesSubjects       = "sales.>"
)

// Header names set by every publisher next to the trace context.
const (
	HeaderSubject     = "subject"
	HeaderEventKey    = "event-key"
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Keyer is implemented by events that have a natural ordering key, the sale ID for sale events.
type Keyer interface {
	Key() int64
}

// EventKey returns the event's key as a string and whether it has one.
func EventKey(event Event) (string, bool) {
	k, ok := event.(Keyer)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(k.Key(), 10), true
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
