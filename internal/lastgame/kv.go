package lastgame

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const bucketName = "arena-lastgame"

// KV stores last-game records in a JetStream key-value bucket with a TTL.
// Expiry is enforced server-side; every process sharing the bucket sees the
// same records.
type KV struct {
	kv nats.KeyValue
}

// NewKV binds to the last-game bucket on the given connection, creating it
// with the TTL if it does not exist yet.
func NewKV(nc *nats.Conn, ttl time.Duration) (*KV, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	kv, err := js.KeyValue(bucketName)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucketName,
			TTL:    ttl,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("bind last-game bucket: %w", err)
	}

	return &KV{kv: kv}, nil
}

// Record notes that the player last played the named session.
func (s *KV) Record(id uuid.UUID, codeName string) error {
	if _, err := s.kv.PutString(id.String(), codeName); err != nil {
		return fmt.Errorf("record last game for %s: %w", id, err)
	}
	return nil
}

// Lookup returns the player's last session code name, or ErrNoRecord.
func (s *KV) Lookup(id uuid.UUID) (string, error) {
	entry, err := s.kv.Get(id.String())
	if errors.Is(err, nats.ErrKeyNotFound) {
		return "", ErrNoRecord
	}
	if err != nil {
		return "", fmt.Errorf("look up last game for %s: %w", id, err)
	}
	return string(entry.Value()), nil
}
