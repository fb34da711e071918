package socialmuse

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"
)

func newCountingCache(ttl time.Duration) (*ClientCache, *int) {
	created := 0
	c := NewClientCache(ttl)
	c.newFn = func(context.Context, string) (*genai.Client, error) {
		created++
		return &genai.Client{}, nil
	}
	return c, &created
}

func TestClientCacheReusesClients(t *testing.T) {
	ctx := context.Background()
	c, created := newCountingCache(time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := c.Models(ctx, "key-a"); err != nil {
			t.Fatalf("Models: %v", err)
		}
	}
	if _, err := c.Models(ctx, "key-b"); err != nil {
		t.Fatalf("Models: %v", err)
	}
	if *created != 2 {
		t.Errorf("created %d clients, want 2", *created)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestClientCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, created := newCountingCache(time.Hour)
	if _, err := c.Models(ctx, "key-a"); err != nil {
		t.Fatalf("Models: %v", err)
	}
	c.Invalidate("key-a")
	if _, err := c.Models(ctx, "key-a"); err != nil {
		t.Fatalf("Models: %v", err)
	}
	if *created != 2 {
		t.Errorf("created %d clients, want a fresh one after Invalidate", *created)
	}
}

func TestClientCachePrune(t *testing.T) {
	ctx := context.Background()
	c, _ := newCountingCache(time.Hour)
	if _, err := c.Models(ctx, "key-a"); err != nil {
		t.Fatalf("Models: %v", err)
	}
	if n := c.Prune(); n != 0 {
		t.Errorf("Prune removed %d fresh clients", n)
	}
	c.ttl = 0
	if n := c.Prune(); n != 1 {
		t.Errorf("Prune removed %d clients, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len after prune = %d", c.Len())
	}
}

func TestClientCacheErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newCountingCache(time.Hour)
	if _, err := c.Models(ctx, ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Models(\"\") = %v, want ErrNoAPIKey", err)
	}

	boom := errors.New("boom")
	c.newFn = func(context.Context, string) (*genai.Client, error) { return nil, boom }
	if _, err := c.Models(ctx, "key"); !errors.Is(err, boom) {
		t.Errorf("Models error = %v, want wrapped boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed client was cached")
	}
}
