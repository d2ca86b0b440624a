package auth

import (
	"context"
	"sync"
	"time"
)

// LockoutStore contador de intentos fallidos por email. Un contador expira
// ttl después del último fallo registrado.
type LockoutStore interface {
	// Failures devuelve los fallos vigentes y la fecha del último.
	Failures(ctx context.Context, key string, now time.Time) (count int, last time.Time, err error)
	// RecordFailure suma un fallo con fecha now y devuelve el total vigente.
	RecordFailure(ctx context.Context, key string, now time.Time) (int, error)
	Reset(ctx context.Context, key string) error
}

// MemoryLockout LockoutStore en proceso.
type MemoryLockout struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]lockoutEntry
}

type lockoutEntry struct {
	count int
	last  time.Time
}

// NewMemoryLockout crea el almacén con la vigencia de los contadores.
func NewMemoryLockout(ttl time.Duration) *MemoryLockout {
	return &MemoryLockout{ttl: ttl, entries: make(map[string]lockoutEntry)}
}

func (m *MemoryLockout) live(key string, now time.Time) lockoutEntry {
	e, ok := m.entries[key]
	if !ok {
		return lockoutEntry{}
	}
	if now.Sub(e.last) >= m.ttl {
		delete(m.entries, key)
		return lockoutEntry{}
	}
	return e
}

func (m *MemoryLockout) Failures(_ context.Context, key string, now time.Time) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key, now)
	return e.count, e.last, nil
}

func (m *MemoryLockout) RecordFailure(_ context.Context, key string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key, now)
	e.count++
	e.last = now
	m.entries[key] = e
	return e.count, nil
}

func (m *MemoryLockout) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
