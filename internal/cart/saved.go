package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

// ErrSavedNotFound indicates the parked cart no longer exists, usually
// because another resume already consumed it or the TTL expired.
var ErrSavedNotFound = errors.New("cart: saved cart not found")

// SavedCart is a parked cart waiting to be resumed on the same terminal.
type SavedCart struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Cart    Snapshot  `json:"cart"`
	SavedAt time.Time `json:"savedAt"`
}

// SavedStore keeps parked carts per terminal.
type SavedStore interface {
	Park(ctx context.Context, terminal string, saved SavedCart) error
	List(ctx context.Context, terminal string) ([]SavedCart, error)
	Take(ctx context.Context, terminal, id string) (SavedCart, error)
	Delete(ctx context.Context, terminal, id string) error
}

// NewSavedCart wraps a cart snapshot for parking.
func NewSavedCart(label string, snap Snapshot) SavedCart {
	return SavedCart{ID: uuid.NewString(), Label: label, Cart: snap, SavedAt: time.Now()}
}

func savedKey(terminal string) string {
	return "kasir:saved:" + terminal
}

// RedisSavedStore keeps parked carts in a redis hash per terminal so they
// survive a service restart. The hash expires after TTL of inactivity.
type RedisSavedStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

// Park stores the cart under the terminal's hash.
func (s *RedisSavedStore) Park(ctx context.Context, terminal string, saved SavedCart) error {
	raw, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("cart: encode saved cart: %w", err)
	}
	key := savedKey(terminal)
	pipe := s.Redis.TxPipeline()
	pipe.HSet(ctx, key, saved.ID, raw)
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart: park cart: %w", err)
	}
	s.updateGauge(ctx, terminal)
	return nil
}

// List returns the terminal's parked carts, most recent first.
func (s *RedisSavedStore) List(ctx context.Context, terminal string) ([]SavedCart, error) {
	raw, err := s.Redis.HGetAll(ctx, savedKey(terminal)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart: list saved carts: %w", err)
	}
	out := make([]SavedCart, 0, len(raw))
	for _, v := range raw {
		var saved SavedCart
		if err := json.Unmarshal([]byte(v), &saved); err != nil {
			continue
		}
		out = append(out, saved)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Take removes and returns a parked cart, so two registers sharing a terminal
// id cannot both resume it.
func (s *RedisSavedStore) Take(ctx context.Context, terminal, id string) (SavedCart, error) {
	key := savedKey(terminal)
	raw, err := s.Redis.HGet(ctx, key, id).Result()
	if errors.Is(err, redis.Nil) {
		return SavedCart{}, ErrSavedNotFound
	}
	if err != nil {
		return SavedCart{}, fmt.Errorf("cart: load saved cart: %w", err)
	}
	if err := s.Redis.HDel(ctx, key, id).Err(); err != nil {
		return SavedCart{}, fmt.Errorf("cart: consume saved cart: %w", err)
	}
	var saved SavedCart
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return SavedCart{}, fmt.Errorf("cart: decode saved cart: %w", err)
	}
	s.updateGauge(ctx, terminal)
	return saved, nil
}

// Delete drops a parked cart without resuming it.
func (s *RedisSavedStore) Delete(ctx context.Context, terminal, id string) error {
	n, err := s.Redis.HDel(ctx, savedKey(terminal), id).Result()
	if err != nil {
		return fmt.Errorf("cart: delete saved cart: %w", err)
	}
	if n == 0 {
		return ErrSavedNotFound
	}
	s.updateGauge(ctx, terminal)
	return nil
}

func (s *RedisSavedStore) updateGauge(ctx context.Context, terminal string) {
	if obs.SavedCartGauge == nil {
		return
	}
	if n, err := s.Redis.HLen(ctx, savedKey(terminal)).Result(); err == nil {
		obs.SavedCartGauge.WithLabelValues(terminal).Set(float64(n))
	}
}

// MemorySavedStore keeps parked carts in process memory. It backs terminals
// running without redis and the test suite.
type MemorySavedStore struct {
	mu    sync.Mutex
	carts map[string]map[string]SavedCart
}

// NewMemorySavedStore returns an empty in-memory store.
func NewMemorySavedStore() *MemorySavedStore {
	return &MemorySavedStore{carts: make(map[string]map[string]SavedCart)}
}

// Park stores the cart for the terminal.
func (s *MemorySavedStore) Park(ctx context.Context, terminal string, saved SavedCart) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[terminal] == nil {
		s.carts[terminal] = make(map[string]SavedCart)
	}
	s.carts[terminal][saved.ID] = saved
	s.setGauge(terminal)
	return nil
}

// List returns the terminal's parked carts, most recent first.
func (s *MemorySavedStore) List(ctx context.Context, terminal string) ([]SavedCart, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedCart, 0, len(s.carts[terminal]))
	for _, saved := range s.carts[terminal] {
		out = append(out, saved)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Take removes and returns a parked cart.
func (s *MemorySavedStore) Take(ctx context.Context, terminal, id string) (SavedCart, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.carts[terminal][id]
	if !ok {
		return SavedCart{}, ErrSavedNotFound
	}
	delete(s.carts[terminal], id)
	s.setGauge(terminal)
	return saved, nil
}

// Delete drops a parked cart.
func (s *MemorySavedStore) Delete(ctx context.Context, terminal, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[terminal][id]; !ok {
		return ErrSavedNotFound
	}
	delete(s.carts[terminal], id)
	s.setGauge(terminal)
	return nil
}

func (s *MemorySavedStore) setGauge(terminal string) {
	if obs.SavedCartGauge != nil {
		obs.SavedCartGauge.WithLabelValues(terminal).Set(float64(len(s.carts[terminal])))
	}
}
