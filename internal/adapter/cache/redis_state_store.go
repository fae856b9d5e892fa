package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/repository"
)

const (
	stateKeyPrefix = "spotify:connect:state:"
	stateTokenLen  = 32
)

// RedisStateStore implements ConnectStateStore backed by Redis. Tokens are
// single-use: consumption is one GETDEL round trip, so two concurrent
// callbacks can never both validate the same token.
type RedisStateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ repository.ConnectStateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store with the given TTL.
func NewRedisStateStore(client redis.UniversalClient, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

// Issue generates a high-entropy token and stores the identity binding under it.
func (s *RedisStateStore) Issue(ctx context.Context, workspaceID, userID string) (string, error) {
	buf := make([]byte, stateTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(domain.ConnectState{
		WorkspaceID: workspaceID,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}
	return token, nil
}

// Consume atomically removes and returns the state for token. A nil result
// means the token is unknown, already consumed, or past its TTL.
func (s *RedisStateStore) Consume(ctx context.Context, token string) (*domain.ConnectState, error) {
	bytes, err := s.client.GetDel(ctx, stateKeyPrefix+token).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("consume state: %w", err)
	}
	var state domain.ConnectState
	if err := json.Unmarshal(bytes, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	// Redis TTL already bounds the lifetime; the age check also covers stores
	// configured with a longer key expiry than the validity window.
	if time.Since(state.CreatedAt) > s.ttl {
		return nil, nil
	}
	return &state, nil
}
