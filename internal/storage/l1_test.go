package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

func TestL1WriteReadRoundTrip(t *testing.T) {
	l1 := NewL1(2)
	ctx := context.Background()
	env := configmodel.Environment{Name: "TEST", ConfigData: json.RawMessage(`{"a":1}`)}

	if err := l1.WriteEnv(ctx, "TEST", "abcdef0", env); err != nil {
		t.Fatalf("WriteEnv: %v", err)
	}
	got, err := l1.ReadEnv(ctx, "TEST", "abcdef0")
	if err != nil {
		t.Fatalf("ReadEnv: %v", err)
	}
	if got.Name != "TEST" {
		t.Errorf("got %+v", got)
	}
}

func TestL1PrefixFallback(t *testing.T) {
	l1 := NewL1(4)
	ctx := context.Background()
	env := configmodel.Environment{Name: "TEST", ConfigData: json.RawMessage(`{}`)}
	if err := l1.WriteEnv(ctx, "TEST", "abcdef0", env); err != nil {
		t.Fatalf("WriteEnv: %v", err)
	}

	if _, err := l1.ReadEnv(ctx, "TEST", "abc"); err != nil {
		t.Errorf("expected prefix-match hit, got %v", err)
	}
}

func TestL1EvictsLeastRecentlyUsed(t *testing.T) {
	l1 := NewL1(1)
	ctx := context.Background()
	_ = l1.WriteEnv(ctx, "A", "1111111", configmodel.Environment{Name: "A"})
	_ = l1.WriteEnv(ctx, "B", "2222222", configmodel.Environment{Name: "B"})

	if _, err := l1.ReadEnv(ctx, "A", "1111111"); err != ErrMiss {
		t.Errorf("expected A to be evicted, got err=%v", err)
	}
	if _, err := l1.ReadEnv(ctx, "B", "2222222"); err != nil {
		t.Errorf("expected B to survive, got %v", err)
	}
}

func TestL1ListingMiss(t *testing.T) {
	l1 := NewL1(2)
	if _, err := l1.ReadListing(context.Background(), "abcdef0"); err != ErrMiss {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestL1CleanIsNoop(t *testing.T) {
	l1 := NewL1(2)
	if err := l1.Clean(context.Background(), 30); err != nil {
		t.Errorf("expected Clean to no-op, got %v", err)
	}
}
