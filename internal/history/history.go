// Package history keeps each customer's list of placed orders, keyed by the client id the
// browser sends. The list is read whole, filtered by day, and replaced whole on write.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// Entry is one placed order as the customer sees it.
type Entry struct {
	OrderID       uint            `json:"order_id"`
	ItemName      string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	Date          string          `json:"date"`
}

// Store persists the raw entry list of one client.
type Store interface {
	Load(ctx context.Context, clientID string) ([]byte, error)
	Save(ctx context.Context, clientID string, data []byte) error
}

// Book appends and reads per-client histories on top of a Store.
type Book struct {
	store Store
	mu    sync.Mutex
}

func NewBook(store Store) *Book {
	return &Book{store: store}
}

func (b *Book) Append(ctx context.Context, clientID string, e Entry) error {
	if clientID == "" {
		return errors.New("history: empty client id")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entries, err := b.all(ctx, clientID)
	if err != nil {
		return err
	}
	entries = append(entries, e)
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return b.store.Save(ctx, clientID, data)
}

// ForDate returns the client's entries of the given day, oldest first.
func (b *Book) ForDate(ctx context.Context, clientID, date string) ([]Entry, error) {
	entries, err := b.all(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *Book) all(ctx context.Context, clientID string) ([]Entry, error) {
	data, err := b.store.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt value is treated as empty and overwritten on the next append.
		return nil, nil
	}
	return entries, nil
}

// RedisStore keeps one string value per client with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(clientID string) string {
	return fmt.Sprintf("%s:history:%s", s.prefix, clientID)
}

func (s *RedisStore) Load(ctx context.Context, clientID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, clientID string, data []byte) error {
	if err := s.client.Set(ctx, s.key(clientID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// MemoryStore is used when no Redis is configured. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, clientID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[clientID], nil
}

func (s *MemoryStore) Save(_ context.Context, clientID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[clientID] = data
	return nil
}
