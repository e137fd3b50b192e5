// Package chat defines what the economy needs from the chat layer that
// carries user messages: who sent the command and a way to reply.
package chat

import (
	"strings"
	"sync"
)

// Context is supplied by the chat framework for every command invocation.
type Context interface {
	AuthorID() string
	Send(text string) error
}

// Buffer is an in-memory Context that collects replies.
type Buffer struct {
	Author string

	mu      sync.Mutex
	replies []string
}

// NewBuffer returns a Buffer for the given author.
func NewBuffer(author string) *Buffer {
	return &Buffer{Author: author}
}

// AuthorID returns the invoking user.
func (b *Buffer) AuthorID() string {
	return b.Author
}

// Send records a reply.
func (b *Buffer) Send(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, text)
	return nil
}

// Replies returns a copy of everything sent so far.
func (b *Buffer) Replies() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.replies))
	copy(out, b.replies)
	return out
}

// Last returns the most recent reply, or "" when nothing was sent.
func (b *Buffer) Last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.replies) == 0 {
		return ""
	}
	return b.replies[len(b.replies)-1]
}

// ParseCommand splits a message into a lowercase command name and its
// arguments. When prefix is non-empty the message must start with it
// (case-insensitive).
func ParseCommand(prefix, content string) (string, []string, bool) {
	text := strings.TrimSpace(content)
	if prefix != "" {
		if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
			return "", nil, false
		}
		text = text[len(prefix):]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
