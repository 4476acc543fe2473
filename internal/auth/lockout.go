package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/skilltrack/internal/models"
)

// LockoutConfig holds the failed-login lockout policy
type LockoutConfig struct {
	MaxAttempts  int           // Failures within Window that engage the lock
	Window       time.Duration // Counting window, measured from the first failure
	LockDuration time.Duration // How long the lock holds once engaged
}

// DefaultLockoutConfig returns the standard policy: 5 failures in 15 minutes locks for 15 minutes
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// attemptRecord exists only while an identifier has unresolved failures.
// count >= 1; lockedUntil, when set, is after windowStart.
type attemptRecord struct {
	count       int
	windowStart time.Time
	lockedUntil *time.Time
}

// LockoutTracker keeps per-identifier failed login state in memory.
// A single mutex guards the map, so every read-modify-write is atomic.
type LockoutTracker struct {
	mu      sync.Mutex
	records map[string]*attemptRecord
	config  LockoutConfig
	now     func() time.Time
}

// NewLockoutTracker creates a tracker; non-positive config values fall back to the defaults
func NewLockoutTracker(config LockoutConfig) *LockoutTracker {
	defaults := DefaultLockoutConfig()
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.LockDuration <= 0 {
		config.LockDuration = defaults.LockDuration
	}

	return &LockoutTracker{
		records: make(map[string]*attemptRecord),
		config:  config,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (lt *LockoutTracker) SetClock(now func() time.Time) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.now = now
}

// Config returns the effective policy
func (lt *LockoutTracker) Config() LockoutConfig {
	return lt.config
}

// RecordFailedAttempt counts one failed login for the identifier, engaging the lock
// once MaxAttempts failures fall inside the current window
func (lt *LockoutTracker) RecordFailedAttempt(identifier string) {
	key := normalizeIdentifier(identifier)

	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := lt.now()
	rec, ok := lt.records[key]

	// First failure, or the previous window has run out (this also drops a stale lock)
	if !ok || now.Sub(rec.windowStart) > lt.config.Window {
		lt.records[key] = &attemptRecord{count: 1, windowStart: now}
		return
	}

	rec.count++
	if rec.count >= lt.config.MaxAttempts {
		until := now.Add(lt.config.LockDuration)
		rec.lockedUntil = &until
	}
}

// ClearAttempts forgets all failures for the identifier (called after a successful login)
func (lt *LockoutTracker) ClearAttempts(identifier string) {
	key := normalizeIdentifier(identifier)

	lt.mu.Lock()
	defer lt.mu.Unlock()

	delete(lt.records, key)
}

// GetLockInfo reports whether the identifier is locked. A lock that has expired is
// removed as part of the same locked section, so the identifier starts clean.
func (lt *LockoutTracker) GetLockInfo(identifier string) models.LockInfo {
	key := normalizeIdentifier(identifier)

	lt.mu.Lock()
	defer lt.mu.Unlock()

	rec, ok := lt.records[key]
	if !ok || rec.lockedUntil == nil {
		return models.LockInfo{Locked: false}
	}

	if rec.lockedUntil.After(lt.now()) {
		return models.LockInfo{Locked: true, Until: *rec.lockedUntil}
	}

	delete(lt.records, key)
	return models.LockInfo{Locked: false}
}

// FailedAttempts returns the failure count in the current record without side effects
func (lt *LockoutTracker) FailedAttempts(identifier string) int {
	key := normalizeIdentifier(identifier)

	lt.mu.Lock()
	defer lt.mu.Unlock()

	if rec, ok := lt.records[key]; ok {
		return rec.count
	}
	return 0
}

// Len returns the number of identifiers currently tracked
func (lt *LockoutTracker) Len() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.records)
}

// Sweep removes records that can no longer affect a decision: expired locks, and
// unlocked records whose counting window has elapsed. Returns the number removed.
func (lt *LockoutTracker) Sweep() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := lt.now()
	removed := 0
	for key, rec := range lt.records {
		if rec.lockedUntil != nil {
			if !rec.lockedUntil.After(now) {
				delete(lt.records, key)
				removed++
			}
			continue
		}
		if now.Sub(rec.windowStart) > lt.config.Window {
			delete(lt.records, key)
			removed++
		}
	}
	return removed
}

// normalizeIdentifier makes lookups case- and whitespace-insensitive
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
