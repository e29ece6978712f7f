package bus

import (
	"context"
	"slices"
	"sync"
)

const memorySubBuffer = 1024

// Memory is an in-process bus. Every subscription of a subject receives
// every message published on it after the subscription was made.
type Memory struct {
	mu   sync.RWMutex
	subs map[string][]*memorySubscription
}

var _ Bus = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*memorySubscription)}
}

func (m *Memory) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	subs := slices.Clone(m.subs[subject])
	m.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.out <- slices.Clone(data):
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, subject string) (Subscription, error) {
	s := &memorySubscription{
		bus:     m,
		subject: subject,
		out:     make(chan []byte, memorySubBuffer),
		done:    make(chan struct{}),
	}
	m.mu.Lock()
	m.subs[subject] = append(m.subs[subject], s)
	m.mu.Unlock()

	context.AfterFunc(ctx, func() { _ = s.Unsubscribe() })
	return s, nil
}

func (m *Memory) Drain() error {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[string][]*memorySubscription)
	m.mu.Unlock()

	for _, list := range subs {
		for _, s := range list {
			s.stop()
		}
	}
	return nil
}

func (m *Memory) remove(s *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.subject] = slices.DeleteFunc(m.subs[s.subject], func(o *memorySubscription) bool {
		return o == s
	})
}

type memorySubscription struct {
	bus     *Memory
	subject string
	out     chan []byte
	done    chan struct{}
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.out
}

func (s *memorySubscription) Unsubscribe() error {
	s.bus.remove(s)
	s.stop()
	return nil
}

func (s *memorySubscription) stop() {
	s.once.Do(func() { close(s.done) })
}
