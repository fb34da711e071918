package socialmuse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"
)

// ClientCache keeps one genai client per API key and drops clients that have
// not been used within ttl.
type ClientCache struct {
	mu      sync.RWMutex
	clients map[string]*cachedClient
	ttl     time.Duration
	newFn   func(ctx context.Context, apiKey string) (*genai.Client, error)
}

type cachedClient struct {
	client   *genai.Client
	lastUsed time.Time
}

// NewClientCache creates a ClientCache for the Gemini API backend.
func NewClientCache(ttl time.Duration) *ClientCache {
	return &ClientCache{
		clients: make(map[string]*cachedClient),
		ttl:     ttl,
		newFn: func(ctx context.Context, apiKey string) (*genai.Client, error) {
			return genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
		},
	}
}

func (c *ClientCache) valid(cc *cachedClient) bool {
	return cc != nil && time.Since(cc.lastUsed) < c.ttl
}

// Models returns the Models service of the client for apiKey, creating the
// client on first use. It tries a read lock first and only takes the write
// lock when a client has to be created.
func (c *ClientCache) Models(ctx context.Context, apiKey string) (ContentModel, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c.mu.RLock()
	cc := c.clients[apiKey]
	if c.valid(cc) {
		client := cc.client
		c.mu.RUnlock()
		c.touch(apiKey)
		return client.Models, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cc := c.clients[apiKey]; c.valid(cc) {
		cc.lastUsed = time.Now()
		return cc.client.Models, nil
	}
	client, err := c.newFn(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.clients[apiKey] = &cachedClient{client: client, lastUsed: time.Now()}
	return client.Models, nil
}

func (c *ClientCache) touch(apiKey string) {
	c.mu.Lock()
	if cc, ok := c.clients[apiKey]; ok {
		cc.lastUsed = time.Now()
	}
	c.mu.Unlock()
}

// Invalidate forgets the client for apiKey so the next call builds a new one.
// Used when the provider rejects the key.
func (c *ClientCache) Invalidate(apiKey string) {
	c.mu.Lock()
	delete(c.clients, apiKey)
	c.mu.Unlock()
}

// Prune drops every expired client and returns how many were removed.
func (c *ClientCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, cc := range c.clients {
		if !c.valid(cc) {
			delete(c.clients, key)
			n++
		}
	}
	return n
}

// Len returns the number of cached clients.
func (c *ClientCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}
