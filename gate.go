package socialmuse

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	apiKeyKey   = "socialmuse_api_key"
	reselectKey = "socialmuse_key_reselect"
)

// KeyGate decides whether a workspace may generate. A workspace may use its
// own selected key or the server's default key, unless that default key was
// rejected for the workspace. A rotated default key opens the gate again.
type KeyGate struct {
	kv         KV
	namespace  string
	defaultKey string
}

// NewKeyGate returns the gate of the workspace under namespace.
func NewKeyGate(kv KV, namespace, defaultKey string) *KeyGate {
	return &KeyGate{kv: kv, namespace: namespace, defaultKey: defaultKey}
}

func (g *KeyGate) key(name string) string {
	if g.namespace == "" {
		return name
	}
	return g.namespace + "/" + name
}

// APIKey returns the key generation should use, or ErrNoAPIKey.
func (g *KeyGate) APIKey(ctx context.Context) (string, error) {
	v, err := g.kv.Get(ctx, g.key(apiKeyKey))
	switch {
	case err == nil && len(v) > 0:
		return string(v), nil
	case err != nil && !errors.Is(err, ErrKeyNotFound):
		return "", err
	}
	if g.defaultKey == "" {
		return "", ErrNoAPIKey
	}
	rejected, err := g.kv.Get(ctx, g.key(reselectKey))
	switch {
	case err == nil && bytes.Equal(rejected, fingerprint(g.defaultKey)):
		return "", ErrNoAPIKey
	case err != nil && !errors.Is(err, ErrKeyNotFound):
		return "", err
	}
	return g.defaultKey, nil
}

// fingerprint identifies a key in storage without keeping the key itself.
func fingerprint(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(hex.EncodeToString(sum[:]))
}

// HasSelectedKey reports whether generation is allowed.
func (g *KeyGate) HasSelectedKey(ctx context.Context) (bool, error) {
	_, err := g.APIKey(ctx)
	if errors.Is(err, ErrNoAPIKey) {
		return false, nil
	}
	return err == nil, err
}

// SelectKey stores key for the workspace and lifts any re-select request.
func (g *KeyGate) SelectKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrNoAPIKey
	}
	if err := g.kv.Set(ctx, g.key(apiKeyKey), []byte(key)); err != nil {
		return err
	}
	return g.kv.Delete(ctx, g.key(reselectKey))
}

// OpenSelectKey forgets the workspace's key and stops offering the current
// default key, until a new key is selected or the default key changes.
func (g *KeyGate) OpenSelectKey(ctx context.Context) error {
	if err := g.kv.Delete(ctx, g.key(apiKeyKey)); err != nil {
		return err
	}
	if g.defaultKey == "" {
		return nil
	}
	return g.kv.Set(ctx, g.key(reselectKey), fingerprint(g.defaultKey))
}
