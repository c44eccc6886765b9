// Package cache is the key/value store that keeps a quote session
// resumable: the cached quote, drafts, the qualifier form and reference
// data. Values are JSON documents.
package cache

import (
	"context"
	"errors"
	"strings"
)

// Keys written by the workflow.
const (
	KeyQuoteID                   = "quote_id"
	KeyCachedQuote               = "cachedQuote"
	KeyQualifierForm             = "qualifierForm"
	KeySupportedStates           = "supportedStates"
	KeyPreferredLoginRole        = "preferredLoginRole"
	KeyPreferredRegistrationRole = "preferredRegistrationRole"
)

// ErrInvalidKey is returned for empty keys.
var ErrInvalidKey = errors.New("INVALID_CACHE_KEY")

// Store is a flat key/value store of JSON documents. Get reports a missing
// key with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Backend() string
}

// Lister is implemented by stores that can enumerate keys under a prefix.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// SessionPrefix is the key prefix of every entry owned by one session.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

// Scoped returns a view of store in which every key belongs to sessionID.
// Two sessions never read each other's entries.
func Scoped(store Store, sessionID string) Store {
	return &scopedStore{inner: store, prefix: SessionPrefix(sessionID)}
}

type scopedStore struct {
	inner  Store
	prefix string
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Remove(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.inner.Remove(ctx, s.prefix+key)
}

func (s *scopedStore) Backend() string { return s.inner.Backend() }

// Keys lists the session's keys with the session prefix stripped.
func (s *scopedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	l, ok := s.inner.(Lister)
	if !ok {
		return nil, nil
	}
	keys, err := l.Keys(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, s.prefix)
	}
	return keys, nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
