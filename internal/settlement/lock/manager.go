// Package lock provides in-process advisory locks over resource keys.
//
// Keys are taken in ascending order. A context returned by Acquire remembers the
// keys it holds, so a nested Acquire may add keys that sort after them and
// re-entering an already held key is free. The locks do not coordinate across
// processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/grymey-ledger/internal/domain/shared"
)

// ErrLockOrder is returned when a nested acquisition would break the global key order
var ErrLockOrder = errors.New("lock requested out of order")

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 100 * time.Millisecond
)

type entry struct {
	sem  chan struct{}
	refs int
}

type heldKey struct{}

// held is the immutable, sorted set of keys owned by a context
type held []string

func (h held) contains(key string) bool {
	i := sort.SearchStrings(h, key)
	return i < len(h) && h[i] == key
}

// Manager hands out exclusive locks per key with a bounded wait
type Manager struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewManager(maxAttempts int, retryDelay time.Duration, logger *slog.Logger) *Manager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Manager{
		entries:     make(map[string]*entry),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Holds reports whether ctx carries the lock for key
func Holds(ctx context.Context, key string) bool {
	h, _ := ctx.Value(heldKey{}).(held)
	return h.contains(key)
}

// Acquire locks every key not already held by ctx, in ascending order.
// It returns a context that carries the union of held keys and a release func
// that is safe to call more than once. On failure nothing stays locked.
func (m *Manager) Acquire(ctx context.Context, keys ...string) (context.Context, func(), error) {
	current, _ := ctx.Value(heldKey{}).(held)

	wanted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] || current.contains(k) {
			continue
		}
		seen[k] = true
		wanted = append(wanted, k)
	}
	sort.Strings(wanted)

	if len(wanted) == 0 {
		return ctx, func() {}, nil
	}
	if len(current) > 0 && current[len(current)-1] > wanted[0] {
		return ctx, func() {}, fmt.Errorf("%w: %s requested while holding %s", ErrLockOrder, wanted[0], current[len(current)-1])
	}

	acquired := make([]string, 0, len(wanted))
	for _, key := range wanted {
		if err := m.acquireOne(ctx, key); err != nil {
			m.releaseAll(acquired)
			return ctx, func() {}, err
		}
		acquired = append(acquired, key)
	}

	union := make(held, 0, len(current)+len(acquired))
	union = append(union, current...)
	union = append(union, acquired...)
	sort.Strings(union)

	var once sync.Once
	release := func() {
		once.Do(func() { m.releaseAll(acquired) })
	}
	return context.WithValue(ctx, heldKey{}, union), release, nil
}

func (m *Manager) ref(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Manager) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.entries, key)
	}
}

func (m *Manager) acquireOne(ctx context.Context, key string) error {
	e := m.ref(key)
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		timer := time.NewTimer(m.retryDelay)
		select {
		case e.sem <- struct{}{}:
			timer.Stop()
			return nil
		case <-ctx.Done():
			timer.Stop()
			m.unref(key)
			return fmt.Errorf("%w: %s: %v", shared.ErrLockUnavailable, key, ctx.Err())
		case <-timer.C:
			m.logger.Debug("Lock busy, retrying", "key", key, "attempt", attempt)
		}
	}
	m.unref(key)
	return fmt.Errorf("%w: %s after %d attempts", shared.ErrLockUnavailable, key, m.maxAttempts)
}

func (m *Manager) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		e := m.entries[keys[i]]
		m.mu.Unlock()
		if e != nil {
			<-e.sem
		}
		m.unref(keys[i])
	}
}
