package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bom-tracker/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Second

// unlockScript deletes the key only while it still holds the caller's token,
// so an expired lock re-acquired by another request is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Redis{
		Client: client,
		TTL:    ttl,
		Logger: log,
	}
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s (DB: %d)", addr, client.Options().DB))
	return client, nil
}

func lockKey(orderID int64) string {
	return fmt.Sprintf("order_lock:%d", orderID)
}

// IsLocked checks whether an order is currently locked without locking it
func (r *Redis) IsLocked(ctx context.Context, orderID int64) (bool, error) {
	_, err := r.Client.Get(ctx, lockKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockOrder tries once to take the order lock. The returned token must be
// passed to UnlockOrder.
func (r *Redis) LockOrder(ctx context.Context, orderID int64) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey(orderID), token, r.TTL).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		r.Logger.Debug("REDIS", fmt.Sprintf("order %d already locked", orderID))
		return "", false, nil
	}
	return token, true, nil
}

// UnlockOrder releases the lock if token still owns it.
func (r *Redis) UnlockOrder(ctx context.Context, orderID int64, token string) error {
	_, err := unlockScript.Run(ctx, r.Client, []string{lockKey(orderID)}, token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
