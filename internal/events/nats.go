package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// dial connects to the broker with the reconnect policy every arena
// connection uses.
func dial(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := dial(url, "arena-events-pub")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(topic, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber subscribes to raw event payloads on NATS subjects.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects with automatic reconnection. Extra nats.Option
// values (e.g. disconnect handlers) can be appended.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := dial(url, "arena-events-sub", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// relay buffers deliveries for one subscription and coordinates shutdown
// with the NATS callback goroutine.
type relay struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func newRelay() *relay {
	return &relay{ch: make(chan []byte, 64)}
}

func (r *relay) deliver(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- data:
	default:
		// Full buffer drops the message rather than blocking the client.
	}
}

// shutdown stops deliveries, drains buffered messages, and closes the
// channel. Must not run concurrently with itself.
func (r *relay) shutdown() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	for {
		select {
		case <-r.ch:
		default:
			close(r.ch)
			return
		}
	}
}

// Subscribe delivers raw payloads for topic (NATS wildcards like "arena.>"
// work) on the returned channel. The cancel function unsubscribes and closes
// the channel; calling it more than once is safe.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	r := newRelay()

	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		r.deliver(msg.Data)
	})
	if err != nil {
		close(r.ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// Flush so the server registers the subscription before we return;
	// messages published on other connections are routed from here on.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(r.ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			r.shutdown()
		})
	}
	return r.ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
