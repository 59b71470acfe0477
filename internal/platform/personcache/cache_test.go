package personcache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

func TestConnectWithoutAddr(t *testing.T) {
	rdb, err := Connect(context.Background(), Config{})
	if err != nil || rdb != nil {
		t.Fatalf("want nil client and nil error, got=%v err=%v", rdb, err)
	}
}

func TestNopNeverHits(t *testing.T) {
	var c Cache = Nop{}
	c.Set(context.Background(), "a@b.c", uuid.New())
	if _, ok := c.Get(context.Background(), "a@b.c"); ok {
		t.Fatalf("Nop should never hit")
	}
}

func TestKeyIsNormalizedHash(t *testing.T) {
	c := &redisCache{cfg: Config{KeyPrefix: "p:"}}
	a := c.key("Ada@Example.mil ")
	b := c.key("ada@example.mil")
	if a != b {
		t.Fatalf("keys differ: %s %s", a, b)
	}
	if strings.Contains(a, "example") {
		t.Fatalf("raw email leaked into key: %s", a)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	c := NewWithClient(logger.Nop(), rdb, Config{KeyPrefix: "edlm:test:" + uuid.NewString() + ":", TTL: time.Minute})
	defer c.Close()

	ctx := context.Background()
	id := uuid.New()
	c.Set(ctx, "learner@example.mil", id)
	got, ok := c.Get(ctx, "LEARNER@example.mil")
	if !ok || got != id {
		t.Fatalf("want=%s got=%s ok=%v", id, got, ok)
	}

	c.Delete(ctx, "Learner@Example.mil")
	if _, ok := c.Get(ctx, "learner@example.mil"); ok {
		t.Fatalf("entry must be gone after Delete")
	}
}
