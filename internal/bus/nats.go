package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
)

const (
	natsSubBuffer    = 256
	natsDrainTimeout = 10 * time.Second
)

type Nats struct {
	nc     *nats.Conn
	log    *slog.Logger
	closed chan struct{}
}

var _ Bus = (*Nats)(nil)

// NewNats connects to the NATS server at url. Publishes are not buffered
// while the connection is re-established, so an outage surfaces as a
// publish error instead of a silently queued message.
func NewNats(url string, log *slog.Logger) (*Nats, error) {
	closed := make(chan struct{})
	nc, err := nats.Connect(url,
		nats.Name("feeder"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectBufSize(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", tint.Err(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed")
			close(closed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, url, err)
	}
	log.Info("connected to nats", "url", nc.ConnectedUrl())
	return &Nats{nc: nc, log: log, closed: closed}, nil
}

func (n *Nats) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (n *Nats) Subscribe(ctx context.Context, subject string) (Subscription, error) {
	s := &natsSubscription{
		out:  make(chan []byte, natsSubBuffer),
		done: make(chan struct{}),
	}
	sub, err := n.nc.Subscribe(subject, func(m *nats.Msg) {
		select {
		case s.out <- m.Data:
		case <-s.done:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	s.sub = sub
	context.AfterFunc(ctx, func() { _ = s.Unsubscribe() })
	n.log.Info("subscribed", "subject", subject)
	return s, nil
}

// Drain lets in-flight messages finish and waits for the connection to close.
func (n *Nats) Drain() error {
	if err := n.nc.Drain(); err != nil {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	select {
	case <-n.closed:
		return nil
	case <-time.After(natsDrainTimeout):
		n.nc.Close()
		return fmt.Errorf("nats drain did not finish within %s", natsDrainTimeout)
	}
}

type natsSubscription struct {
	sub  *nats.Subscription
	out  chan []byte
	done chan struct{}
	once sync.Once
	err  error
}

func (s *natsSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *natsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		close(s.done)
		if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			s.err = fmt.Errorf("failed to unsubscribe from %s: %w", s.sub.Subject, err)
		}
	})
	return s.err
}
