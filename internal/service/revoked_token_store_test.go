package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRevokedTokenStore_ExpiresEntries(t *testing.T) {
	store := NewMemoryRevokedTokenStore()

	if err := store.Revoke("j1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := store.IsRevoked("j1")
	if err != nil || !revoked {
		t.Fatalf("expected j1 revoked, got %v %v", revoked, err)
	}

	if err := store.Revoke("j2", -time.Second); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = store.IsRevoked("j2")
	if err != nil || revoked {
		t.Fatalf("expected expired entry ignored, got %v %v", revoked, err)
	}
}

func TestRedisRevokedTokenStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisRevokedTokenStore(client)

	revoked, err := store.IsRevoked("j1")
	if err != nil || revoked {
		t.Fatalf("expected clean slate, got %v %v", revoked, err)
	}

	if err := store.Revoke("j1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = store.IsRevoked("j1")
	if err != nil || !revoked {
		t.Fatalf("expected j1 revoked, got %v %v", revoked, err)
	}

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked("j1")
	if err != nil || revoked {
		t.Fatalf("expected entry expired with token, got %v %v", revoked, err)
	}
}
