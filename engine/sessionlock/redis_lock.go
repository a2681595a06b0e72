package sessionlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// Redis Session Lock
// ============================================================================

// releaseScript borra la llave solo si todavía guarda nuestro token, así
// un worker que sobrevivió al TTL no libera el lock de otro.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializa el procesamiento de mensajes por número de
// teléfono usando SETNX con TTL. The TTL bounds how long a crashed
// worker can keep a contact blocked; it must exceed the worst-case
// execution pass (delay nodes sleep up to 300s).
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	tokens sync.Map
}

var _ engine.SessionLocker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, phoneNumber string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(phoneNumber), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if ok {
		l.tokens.Store(phoneNumber, token)
	}
	return ok, nil
}

// Unlock libera el lock solo si este proceso lo adquirió y la llave
// todavía guarda su token.
func (l *RedisLocker) Unlock(ctx context.Context, phoneNumber string) error {
	token, held := l.tokens.LoadAndDelete(phoneNumber)
	if !held {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key(phoneNumber)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}

func (l *RedisLocker) key(phoneNumber string) string {
	return "chatflow:session_lock:" + phoneNumber
}
