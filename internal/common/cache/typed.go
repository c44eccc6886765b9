package cache

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	apperrors "quote-workflow/internal/common/errors"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/metrics"
)

// TTLEntry wraps a value with the time it was written (epoch ms) and how
// long it stays fresh (ms). It is the only expiry mechanism of the store.
type TTLEntry[T any] struct {
	Value     T     `json:"value"`
	Timestamp int64 `json:"timestamp"`
	TTL       int64 `json:"ttl"`
}

// NewTTLEntry stamps value with now.
func NewTTLEntry[T any](value T, now time.Time, ttl time.Duration) TTLEntry[T] {
	return TTLEntry[T]{Value: value, Timestamp: now.UnixMilli(), TTL: ttl.Milliseconds()}
}

// Fresh reports whether the entry is still usable at now. An entry is stale
// strictly after timestamp+ttl.
func (e TTLEntry[T]) Fresh(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp <= e.TTL
}

// FreshBefore is Fresh with an exclusive edge: the entry is already stale at
// exactly timestamp+ttl.
func (e TTLEntry[T]) FreshBefore(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp < e.TTL
}

// Age is how long ago the entry was written.
func (e TTLEntry[T]) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.Timestamp) * time.Millisecond
}

// Typed gives typed access to one key. Read failures of any kind degrade to
// a miss and are logged; write failures are returned.
type Typed[T any] struct {
	store     Store
	key       string
	log       logger.Logger
	now       func() time.Time
	exclusive bool
}

// Option configures a Typed accessor.
type Option func(*options)

type options struct {
	now       func() time.Time
	exclusive bool
}

// WithExclusiveExpiry makes LoadFresh treat an entry as stale at exactly
// timestamp+ttl instead of one millisecond later.
func WithExclusiveExpiry() Option {
	return func(o *options) { o.exclusive = true }
}

// WithClock overrides the clock used to stamp and check entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewTyped[T any](store Store, key string, log logger.Logger, opts ...Option) *Typed[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Typed[T]{store: store, key: key, log: log, now: o.now, exclusive: o.exclusive}
}

func (t *Typed[T]) Key() string { return t.key }

// Now returns the accessor's clock reading.
func (t *Typed[T]) Now() time.Time { return t.now() }

// Load returns the stored value, or ok=false on a miss.
func (t *Typed[T]) Load(ctx context.Context) (T, bool) {
	var zero T
	raw, ok := t.read(ctx)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.corrupted(err)
		return zero, false
	}
	metrics.CacheHits.WithLabelValues(t.store.Backend()).Inc()
	return v, true
}

// Save stores v as is.
func (t *Typed[T]) Save(ctx context.Context, v T) error {
	return t.put(ctx, v)
}

func (t *Typed[T]) put(ctx context.Context, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, t.key, raw)
}

// LoadEntry returns the stored entry regardless of freshness; callers
// decide with Fresh.
func (t *Typed[T]) LoadEntry(ctx context.Context) (TTLEntry[T], bool) {
	raw, ok := t.read(ctx)
	if !ok {
		return TTLEntry[T]{}, false
	}
	var e TTLEntry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		t.corrupted(err)
		return TTLEntry[T]{}, false
	}
	metrics.CacheHits.WithLabelValues(t.store.Backend()).Inc()
	return e, true
}

// LoadFresh returns the value only if its entry has not gone stale.
func (t *Typed[T]) LoadFresh(ctx context.Context) (T, bool) {
	var zero T
	e, ok := t.LoadEntry(ctx)
	if !ok {
		return zero, false
	}
	fresh := e.Fresh(t.now())
	if t.exclusive {
		fresh = e.FreshBefore(t.now())
	}
	if !fresh {
		return zero, false
	}
	return e.Value, true
}

// SaveEntry stamps v with the current time and stores it with ttl.
func (t *Typed[T]) SaveEntry(ctx context.Context, v T, ttl time.Duration) error {
	return t.put(ctx, NewTTLEntry(v, t.now(), ttl))
}

// Remove deletes the key.
func (t *Typed[T]) Remove(ctx context.Context) error {
	return t.store.Remove(ctx, t.key)
}

func (t *Typed[T]) read(ctx context.Context) ([]byte, bool) {
	backend := t.store.Backend()
	raw, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		t.log.Warn("Cache read failed, treating as miss", map[string]interface{}{
			"key":     t.key,
			"backend": backend,
			"error":   apperrors.NewCacheUnavailableError(backend, err),
		})
		metrics.CacheMisses.WithLabelValues(backend).Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(backend).Inc()
		return nil, false
	}
	return raw, true
}

func (t *Typed[T]) corrupted(err error) {
	backend := t.store.Backend()
	t.log.Warn("Cached value is corrupted, treating as miss", map[string]interface{}{
		"key":     t.key,
		"backend": backend,
		"error":   apperrors.NewCacheCorruptedError(t.key, err),
	})
	metrics.CacheCorruptions.WithLabelValues(backend).Inc()
	metrics.CacheMisses.WithLabelValues(backend).Inc()
}
