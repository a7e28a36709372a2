// Package policytypes defines the shared data types for PolicyLens.
// This file contains the conversation types: individual chat messages and
// the in-memory chat sessions that hold them.
package policytypes

import "time"

// MaxPreviewRunes is the number of code points a session preview keeps from
// the most recent user message before it is truncated with an ellipsis.
const MaxPreviewRunes = 30

// DefaultHistoryCapacity is the maximum number of chat sessions kept in
// history. Creating a session beyond this cap silently evicts the oldest.
const DefaultHistoryCapacity = 20

// Message represents a single message in a conversation.
// Messages are immutable once appended to a session; ordering is insertion
// order within the session.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession represents one independent chat conversation held in memory.
// Sessions live for the lifetime of the page; they are removed only by
// explicit user deletion or tail eviction of the history.
type ChatSession struct {
	ID        string    `json:"id"`      // Opaque token, session_<unix timestamp>
	Preview   string    `json:"preview"` // Most recent user message, truncated
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
