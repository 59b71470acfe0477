package personcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

// Cache remembers the ELRR person id issued for a learner email so repeated
// goal creates skip the person lookup. Misses and backend failures are never
// errors: callers fall through to ELRR.
type Cache interface {
	Get(ctx context.Context, email string) (uuid.UUID, bool)
	Set(ctx context.Context, email string, personID uuid.UUID)
	// Delete drops an entry ELRR no longer honors.
	Delete(ctx context.Context, email string)
	Close() error
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Connect dials and pings Redis. It returns nil, nil when cfg.Addr is empty.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(log *logger.Logger, rdb *goredis.Client, cfg Config) Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "edlm:elrr:person:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &redisCache{
		log: log.With("service", "PersonCache"),
		rdb: rdb,
		cfg: cfg,
	}
}

type redisCache struct {
	log *logger.Logger
	rdb *goredis.Client
	cfg Config
}

// key hashes the normalized address so raw emails never land in Redis.
func (c *redisCache) key(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return c.cfg.KeyPrefix + hex.EncodeToString(sum[:])
}

func (c *redisCache) Get(ctx context.Context, email string) (uuid.UUID, bool) {
	raw, err := c.rdb.Get(ctx, c.key(email)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("person cache read failed", "error", err)
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *redisCache) Set(ctx context.Context, email string, personID uuid.UUID) {
	if personID == uuid.Nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(email), personID.String(), c.cfg.TTL).Err(); err != nil {
		c.log.Warn("person cache write failed", "error", err)
	}
}

func (c *redisCache) Delete(ctx context.Context, email string) {
	if err := c.rdb.Del(ctx, c.key(email)).Err(); err != nil {
		c.log.Warn("person cache delete failed", "error", err)
	}
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) (uuid.UUID, bool) { return uuid.Nil, false }
func (Nop) Set(context.Context, string, uuid.UUID)        {}
func (Nop) Delete(context.Context, string)                {}
func (Nop) Close() error                                  { return nil }
