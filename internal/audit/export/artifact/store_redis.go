package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetaudit/internal/audit/models"
)

// RedisStore persists artifacts in Redis with server-side TTL expiry, so
// exports survive process restarts and are shared across replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed artifact store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// payload is the stored JSON envelope. Data rides along base64-encoded by
// encoding/json's []byte handling.
type payload struct {
	Filename  string              `json:"filename"`
	Format    models.ExportFormat `json:"format"`
	Data      []byte              `json:"data"`
	CreatedAt time.Time           `json:"created_at"`
}

func key(id string) string {
	return "fleetaudit:export:" + id
}

func (s *RedisStore) Put(ctx context.Context, a Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	data, err := json.Marshal(payload{
		Filename:  a.Filename,
		Format:    a.Format,
		Data:      a.Data,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := s.client.Set(ctx, key(a.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Artifact, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &Artifact{
		ID:        id,
		Filename:  p.Filename,
		Format:    p.Format,
		Data:      p.Data,
		CreatedAt: p.CreatedAt,
	}, nil
}
