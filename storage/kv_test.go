package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(value) != "v1" {
		t.Fatalf("Get after Set: value=%q ok=%v err=%v", value, ok, err)
	}

	if err := kv.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, _, _ = kv.Get(ctx, "k")
	if string(value) != "v2" {
		t.Fatalf("overwrite not visible, got %q", value)
	}

	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("key visible after Remove")
	}
	// Removing a missing key is not an error.
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("idempotent Remove failed: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestRedisKV(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseKV(t, NewRedis(client, "test"))
}

func TestRedisKVPrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	first := NewRedis(client, "a")
	second := NewRedis(client, "b")

	if err := first.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := second.Get(ctx, "k"); ok {
		t.Fatal("prefixes not isolated")
	}
}

func TestBadgerKV(t *testing.T) {
	kv, err := OpenBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)
}
