package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeScripter evaluates the fixed window script against an in-process counter.
type fakeScripter struct {
	counts map[string]int64
	keys   []string
	err    error
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{counts: make(map[string]int64)}
}

func (f *fakeScripter) run(keys []string, args ...interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	f.keys = append(f.keys, keys[0])
	f.counts[keys[0]]++
	return redis.NewCmdResult([]interface{}{f.counts[keys[0]], args[0]}, nil)
}

func (f *fakeScripter) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *fakeScripter) EvalRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *fakeScripter) EvalShaRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *fakeScripter) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeScripter) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestConsumeBlocksAfterLimit(t *testing.T) {
	fake := newFakeScripter()
	limiter := NewRedisLimiter(fake, "")

	for i := 1; i <= 3; i++ {
		allowed, _, err := limiter.Consume(context.Background(), "login", "Jane@Example.com", 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v", i, allowed, err)
		}
	}

	allowed, retryAfter, err := limiter.Consume(context.Background(), "login", "jane@example.com", 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Fatal("fourth attempt should be blocked")
	}
	if retryAfter != 60 {
		t.Fatalf("retryAfter=%d want 60", retryAfter)
	}
	if fake.keys[0] != DefaultPrefix+":login:jane@example.com" {
		t.Fatalf("key=%q", fake.keys[0])
	}
}

func TestConsumeDisabled(t *testing.T) {
	var nilLimiter *RedisLimiter
	if allowed, _, err := nilLimiter.Consume(context.Background(), "login", "a", 1, time.Minute); !allowed || err != nil {
		t.Fatal("nil limiter must allow")
	}

	fake := newFakeScripter()
	limiter := NewRedisLimiter(fake, "custom:")
	if allowed, _, _ := limiter.Consume(context.Background(), "login", "a", 0, time.Minute); !allowed {
		t.Fatal("zero limit disables limiting")
	}
	if allowed, _, _ := limiter.Consume(context.Background(), "login", " ", 1, time.Minute); !allowed {
		t.Fatal("blank subject is not limited")
	}
	if len(fake.keys) != 0 {
		t.Fatalf("redis should not be called, got %v", fake.keys)
	}
	if limiter.prefix != "custom" {
		t.Fatalf("prefix=%q", limiter.prefix)
	}
}

func TestConsumeReturnsRedisError(t *testing.T) {
	fake := newFakeScripter()
	fake.err = errors.New("connection refused")
	limiter := NewRedisLimiter(fake, "")

	if _, _, err := limiter.Consume(context.Background(), "login", "a", 1, time.Minute); !errors.Is(err, fake.err) {
		t.Fatalf("want redis error, got %v", err)
	}
}
