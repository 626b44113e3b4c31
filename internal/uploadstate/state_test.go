package uploadstate

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"coinpal/internal/apperr"
	"coinpal/internal/config"
	"coinpal/internal/redis"
)

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) (string, error) { return "", nil }
func (f failingStore) Save(context.Context, string, string) error   { return f.err }

func TestStateGetSet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, nil, "s1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.Get(); got != "" {
		t.Fatalf("expected empty state, got %q", got)
	}
	if err := s.Set(ctx, "https://gw/ipfs/a?expires=3600"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "https://gw/ipfs/b?expires=3600"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(); got != "https://gw/ipfs/b?expires=3600" {
		t.Fatalf("last write should win, got %q", got)
	}
}

func TestStateSetStoreFailureKeepsValue(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store down")
	s := &State{url: "old", store: failingStore{err: boom}, sessionID: "s"}
	if err := s.Set(ctx, "new"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := s.Get(); got != "old" {
		t.Fatalf("cell changed after failed save: %q", got)
	}
}

func TestOpenLoadsExistingSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first, _ := Open(ctx, store, "shared")
	if err := first.Set(ctx, "u1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	second, err := Open(ctx, store, "shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := second.Get(); got != "u1" {
		t.Fatalf("expected persisted value, got %q", got)
	}
	other, _ := Open(ctx, store, "other")
	if got := other.Get(); got != "" {
		t.Fatalf("sessions must not share values, got %q", got)
	}
}

func TestContextScope(t *testing.T) {
	if _, err := FromContext(context.Background()); !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("expected ErrOutOfScope, got %v", err)
	}
	if _, err := FromContext(context.Background()); !apperr.Is(err, apperr.OutOfScope) {
		t.Fatalf("out of scope error should carry its kind")
	}

	s, _ := Open(context.Background(), nil, "s")
	ctx := NewContext(context.Background(), s)
	got, err := FromContext(ctx)
	if err != nil || got != s {
		t.Fatalf("FromContext = %p, %v", got, err)
	}
}

func TestConcurrentSetGet(t *testing.T) {
	ctx := context.Background()
	s, _ := Open(ctx, NewMemoryStore(), "s")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, strconv.Itoa(i))
			_ = s.Get()
		}(i)
	}
	wg.Wait()
	if s.Get() == "" {
		t.Fatalf("expected a value after concurrent writes")
	}
}

func newRedisCacheClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	host, portStr, _ := strings.Cut(addr, ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_ADDR %q: %v", addr, err)
	}
	client, err := redis.NewRedisClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newRedisCacheClient(t)
	ctx := context.Background()
	store := NewRedisStore(client, time.Minute)
	session := "test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Cleanup(func() { _ = client.Del(ctx, redisKey(session)) })

	if got, err := store.Load(ctx, session); err != nil || got != "" {
		t.Fatalf("Load on empty session = %q, %v", got, err)
	}
	s, err := Open(ctx, store, session)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(ctx, "https://gw/ipfs/x?expires=3600"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	reopened, err := Open(ctx, store, session)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Get(); got != "https://gw/ipfs/x?expires=3600" {
		t.Fatalf("unexpected value after reopen: %q", got)
	}
	ttl, err := client.TTL(ctx, redisKey(session))
	if err != nil || ttl <= 0 {
		t.Fatalf("expected ttl on key, got %s %v", ttl, err)
	}
}
