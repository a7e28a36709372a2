// Package testutils provides deterministic generators and utility functions for PolicyLens testing.
// These utilities ensure consistent test output while maintaining production format compatibility.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"policylens/pkg/policytypes"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic ID generation
	idCounter uint64
	idMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex

	// Thread-safe counter for deterministic session ID generation
	sessionCounter int64
	sessionMutex   sync.Mutex
)

// GenerateUUID generates a UUID that is deterministic in test mode but random in production.
// In test mode, returns UUIDs in format: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, etc.
// In production mode, returns standard random UUIDs.
func GenerateUUID(mode policytypes.TestModeProvider) string {
	if mode.IsTestMode() {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but real in production.
// In test mode, returns incrementing time starting from 2025-01-01T00:00:00Z
// In production mode, returns time.Now()
func GetCurrentTime(mode policytypes.TestModeProvider) time.Time {
	if mode.IsTestMode() {
		// Incrementing deterministic time keeps ordering assertions stable
		return getDeterministicTime()
	}
	return time.Now()
}

// GenerateSessionID generates a session ID token: session_<unix timestamp>.
// The suffix counter keeps IDs unique when two sessions are created within
// the same second. In test mode the base timestamp is fixed so IDs are
// session_1609459200, session_1609459201, ...
func GenerateSessionID(mode policytypes.TestModeProvider) string {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	base := time.Now().Unix()
	if mode.IsTestMode() {
		base = 1609459200 // 2021-01-01 00:00:00 UTC
	}
	if base <= sessionCounter {
		base = sessionCounter + 1
	}
	sessionCounter = base
	return fmt.Sprintf("session_%d", base)
}

// getDeterministicUUID generates a deterministic UUID maintaining UUID v4 format.
// Returns UUIDs like: 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002
func getDeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++

	// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
	// Where 4 indicates version 4, and y is 8, 9, a, or b (we use 8 for simplicity)
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

// getDeterministicTime generates incrementing deterministic timestamps for test mode.
// Each call returns a time that is 1 second later than the previous call.
// First call: 2025-01-01T00:00:01Z, second call: 2025-01-01T00:00:02Z, etc.
func getDeterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++

	baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return baseTime.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters resets the deterministic counters for testing.
// This should only be called from test code to ensure consistent test runs.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	sessionMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()
	defer sessionMutex.Unlock()

	idCounter = 0
	timeCounter = 0
	sessionCounter = 0
}

// TestMode is a trivial TestModeProvider for tests and standalone components.
type TestMode bool

// IsTestMode reports whether deterministic test mode is active.
func (t TestMode) IsTestMode() bool { return bool(t) }
