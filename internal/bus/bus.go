// Package bus hides the message transport between the feeder and the
// judging workers.
package bus

import (
	"context"
	"errors"
)

var (
	// ErrUnreachable is returned when the transport cannot be reached at startup.
	ErrUnreachable = errors.New("bus unreachable")
	ErrNoQueue     = errors.New("no queue configured for subject")
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type Subscriber interface {
	// Subscribe starts delivering messages published on subject. Delivery
	// stops when ctx is cancelled or the subscription is unsubscribed.
	Subscribe(ctx context.Context, subject string) (Subscription, error)
}

type Subscription interface {
	Messages() <-chan []byte
	Unsubscribe() error
}

type Bus interface {
	Publisher
	Subscriber
	// Drain flushes outstanding work and closes the transport.
	Drain() error
}
