// Package session provides in-memory chat session management for PolicyLens.
// A Store owns the session history and the current-session pointer; sessions
// live only for the lifetime of the process and are never persisted.
package session

import (
	"errors"
	"sync"

	"policylens/internal/logger"
	"policylens/internal/testutils"
	"policylens/pkg/policytypes"
)

// ErrSessionNotFound is returned when loading a session that no longer
// exists (it may have been deleted or evicted).
var ErrSessionNotFound = errors.New("session not found")

// DefaultPreview is the preview shown for a session with no user message yet.
const DefaultPreview = "新对话"

// Store holds the ordered session history, newest first, capped at a fixed
// capacity. Creating a session beyond the cap silently evicts the oldest
// entry. Sessions are owned exclusively by the store; accessors hand out
// copies.
type Store struct {
	mu       sync.Mutex
	mode     policytypes.TestModeProvider
	capacity int
	history  []*policytypes.ChatSession // index 0 is newest
	byID     map[string]*policytypes.ChatSession
	current  string
}

// NewStore creates a session store with the given history capacity.
// A non-positive capacity falls back to the default of 20.
func NewStore(capacity int, mode policytypes.TestModeProvider) *Store {
	if capacity <= 0 {
		capacity = policytypes.DefaultHistoryCapacity
	}
	return &Store{
		mode:     mode,
		capacity: capacity,
		byID:     make(map[string]*policytypes.ChatSession),
	}
}

// CreateSession prepends a new session to history, makes it current, and
// returns its ID. If the history exceeds capacity the oldest entry is
// dropped; eviction is not an error.
func (s *Store) CreateSession(initialPreview string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := testutils.GetCurrentTime(s.mode)
	sess := &policytypes.ChatSession{
		ID:        testutils.GenerateSessionID(s.mode),
		Preview:   truncatePreview(initialPreview),
		Messages:  make([]policytypes.Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.history = append([]*policytypes.ChatSession{sess}, s.history...)
	s.byID[sess.ID] = sess
	if len(s.history) > s.capacity {
		evicted := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		delete(s.byID, evicted.ID)
		if s.current == evicted.ID {
			s.current = ""
		}
		logger.Debug("Session history full, evicted oldest", "session", evicted.ID)
	}

	s.current = sess.ID
	logger.Debug("Session created", "session", sess.ID)
	return sess.ID
}

// RecordExchange appends a user message and the assistant's reply, in that
// order, to the named session and recomputes its preview from the user
// message. A session that no longer exists is a silent no-op: the user may
// have deleted it while the request was in flight.
func (s *Store) RecordExchange(sessionID, userMessage, assistantMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.byID[sessionID]
	if !exists {
		logger.Debug("Exchange dropped, session gone", "session", sessionID)
		return
	}

	now := testutils.GetCurrentTime(s.mode)
	sess.Messages = append(sess.Messages,
		policytypes.Message{
			ID:        testutils.GenerateUUID(s.mode),
			Role:      "user",
			Content:   userMessage,
			Timestamp: now,
		},
		policytypes.Message{
			ID:        testutils.GenerateUUID(s.mode),
			Role:      "assistant",
			Content:   assistantMessage,
			Timestamp: now,
		},
	)
	sess.Preview = truncatePreview(userMessage)
	sess.UpdatedAt = now
	// History order is fixed at creation time; touching a session does not
	// re-promote it.
}

// RecordInterruption appends the user message followed by an assistant-side
// notice (cancellation, timeout or failure text) to the named session, so the
// user's bubble survives a request that produced no reply. The preview is
// recomputed from the user message. Missing sessions are a no-op.
func (s *Store) RecordInterruption(sessionID, userMessage, notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.byID[sessionID]
	if !exists {
		return
	}
	now := testutils.GetCurrentTime(s.mode)
	sess.Messages = append(sess.Messages,
		policytypes.Message{
			ID:        testutils.GenerateUUID(s.mode),
			Role:      "user",
			Content:   userMessage,
			Timestamp: now,
		},
		policytypes.Message{
			ID:        testutils.GenerateUUID(s.mode),
			Role:      "assistant",
			Content:   notice,
			Timestamp: now,
		},
	)
	sess.Preview = truncatePreview(userMessage)
	sess.UpdatedAt = now
}

// DeleteSession removes a session from history. If it was current, the
// current-session pointer is cleared; no other session is auto-selected.
// Deleting a missing session is a no-op.
func (s *Store) DeleteSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[sessionID]; !exists {
		return
	}
	delete(s.byID, sessionID)
	for i, sess := range s.history {
		if sess.ID == sessionID {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
	if s.current == sessionID {
		s.current = ""
	}
	logger.Debug("Session deleted", "session", sessionID)
}

// LoadSession makes the named session current and returns a copy of it.
// Returns ErrSessionNotFound when it is absent.
func (s *Store) LoadSession(sessionID string) (*policytypes.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.byID[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	s.current = sessionID
	return copySession(sess), nil
}

// Sessions returns a copy of the history, newest first.
func (s *Store) Sessions() []*policytypes.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*policytypes.ChatSession, 0, len(s.history))
	for _, sess := range s.history {
		out = append(out, copySession(sess))
	}
	return out
}

// CurrentID returns the current session's ID, or "" when none is selected.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Len returns the number of sessions in history.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// truncatePreview clips text to the preview budget, counting code points,
// and appends an ellipsis when it truncated. Empty text gets the default
// new-chat preview.
func truncatePreview(text string) string {
	if text == "" {
		return DefaultPreview
	}
	runes := []rune(text)
	if len(runes) <= policytypes.MaxPreviewRunes {
		return text
	}
	return string(runes[:policytypes.MaxPreviewRunes]) + "..."
}

func copySession(sess *policytypes.ChatSession) *policytypes.ChatSession {
	out := *sess
	out.Messages = make([]policytypes.Message, len(sess.Messages))
	copy(out.Messages, sess.Messages)
	return &out
}
