package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// leaseKey is the Redis key under which the cluster-wide mining lease is
// held.
const leaseKey = "natlangchain:mining:lease"

// renewScript extends the lease only when the caller's token still owns it.
// KEYS[1] = lease key
// ARGV[1] = token
// ARGV[2] = duration in milliseconds
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript deletes the lease only when the caller's token still owns
// it, so a lapsed holder can never evict a successor.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Coordinator backed by a Redis instance shared by the mining
// cluster. This implements the Coordinator interface.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis coordinator against the specified address.
func NewRedis(addr string, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Redis{client: client}
}

// Acquire attempts a SET NX PX grant and returns ErrBusy immediately when
// another node holds the key.
func (r *Redis) Acquire(ctx context.Context, holderID string, duration time.Duration) (Lease, error) {
	token := uuid.NewString()
	now := time.Now()

	ok, err := r.client.SetNX(ctx, leaseKey, token, duration).Result()
	if err != nil {
		return Lease{}, err
	}
	if !ok {
		return Lease{}, ErrBusy
	}

	return Lease{
		HolderID:   holderID,
		Token:      token,
		AcquiredAt: now,
		ExpiresAt:  now.Add(duration),
	}, nil
}

// Renew extends the lease when the caller's token still owns the key.
func (r *Redis) Renew(ctx context.Context, lease Lease, duration time.Duration) (Lease, error) {
	now := time.Now()

	res, err := renewScript.Run(ctx, r.client, []string{leaseKey}, lease.Token, duration.Milliseconds()).Int64()
	if err != nil {
		return Lease{}, err
	}
	if res == 0 {
		return Lease{}, ErrExpired
	}

	lease.ExpiresAt = now.Add(duration)

	return lease, nil
}

// Release frees the lease when the caller's token still owns the key.
func (r *Redis) Release(ctx context.Context, lease Lease) error {
	_, err := releaseScript.Run(ctx, r.client, []string{leaseKey}, lease.Token).Result()
	return err
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
