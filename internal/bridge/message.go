// Package bridge exposes the economy's command layer over HTTP so any chat
// front end can forward messages to it and relay the replies.
package bridge

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/economy/internal/chat"
)

// ProtocolVersion identifies the bridge contract version exposed via /health.
const ProtocolVersion = "1.0.0"

// Message is one chat message forwarded by a front end.
type Message struct {
	MessageID string `json:"message_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
}

// Normalize trims identifiers and assigns a message id when the front end did
// not send one.
func (m *Message) Normalize() {
	if m == nil {
		return
	}
	m.MessageID = strings.TrimSpace(m.MessageID)
	m.AuthorID = strings.TrimSpace(m.AuthorID)
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
}

// Validate enforces the fields every message needs.
func (m Message) Validate() error {
	if m.AuthorID == "" {
		return errors.New("author_id is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// Dispatcher runs chat commands. economy.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx chat.Context, content string) (bool, error)
}

// DispatcherFunc adapts a function into a Dispatcher.
type DispatcherFunc func(ctx chat.Context, content string) (bool, error)

// Dispatch executes f(ctx, content).
func (f DispatcherFunc) Dispatch(ctx chat.Context, content string) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(ctx, content)
}

// Logger records bridge status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	LedgerReady   bool   `json:"ledger_ready"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type messageResponse struct {
	MessageID string   `json:"message_id"`
	Handled   bool     `json:"handled"`
	Replies   []string `json:"replies"`
}

type errorResponse struct {
	Error string `json:"error"`
}
