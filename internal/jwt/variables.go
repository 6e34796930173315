package jwt

import (
	"clai-chat/internal/env"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const RefreshTokenTTL = 24 * 30 * time.Hour

const (
	RoleUser Role = iota
)

var (
	mu          sync.RWMutex
	userSecret  string
	redisClient *redis.Client
)

func roleSecret(role Role) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	switch role {
	case RoleUser:
		if userSecret == "" {
			return "", false
		}
		return userSecret, true
	}
	return "", false
}

// Configure wires the signing secret and the refresh-token redis client from
// the environment. Server binaries call this once at startup.
func Configure() {
	mu.Lock()
	defer mu.Unlock()
	userSecret = env.Get(env.UserSecretKey)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.AuthRedisURL),
		Password: env.Get(env.AuthRedisPass),
		DB:       0,
	})
}

// SetUserSecret overrides the signing secret. Test hook.
func SetUserSecret(secret string) {
	mu.Lock()
	defer mu.Unlock()
	userSecret = secret
}

// SetRedisClient overrides the refresh-token store. Test hook.
func SetRedisClient(client *redis.Client) {
	mu.Lock()
	defer mu.Unlock()
	redisClient = client
}

func refreshStore() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	return redisClient
}
