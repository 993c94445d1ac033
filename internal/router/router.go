// ABOUTME: Routing controller selecting the active conversation context
// ABOUTME: Dispatches outgoing sends and applies inbound events to the owned stores

package router

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/parley/internal/conversation"
	"github.com/2389/parley/internal/presence"
	"github.com/2389/parley/internal/protocol"
	"github.com/2389/parley/internal/session"
)

// ContextPublic is the active context value for the shared public room.
// Every other value is a peer's live connection identifier.
const ContextPublic = "public"

// Sink receives asynchronous UI effects. Synchronous operations (opening a
// chat, listing users) return their results directly instead.
type Sink interface {
	// MessageReceived renders an inbound message immediately. The context is
	// ContextPublic or the private conversation's connection ID.
	MessageReceived(context string, msg conversation.Message)

	// UnreadChanged reports a non-active conversation accumulating unread
	// messages.
	UnreadChanged(connectionID, peerLabel string, unread int)

	// PresenceChanged delivers the rendered online list after a snapshot.
	PresenceChanged(online []presence.Entry)

	// SessionChanged reports authentication transitions.
	SessionChanged(identity string, authenticated bool)

	// Notice surfaces a user-visible message (auth errors, confirmations).
	Notice(text string)
}

// noopSink discards all effects. Used when no UI is attached.
type noopSink struct{}

func (noopSink) MessageReceived(string, conversation.Message) {}
func (noopSink) UnreadChanged(string, string, int)            {}
func (noopSink) PresenceChanged([]presence.Entry)             {}
func (noopSink) SessionChanged(string, bool)                  {}
func (noopSink) Notice(string)                                {}

// Controller owns the routing state machine.
type Controller struct {
	mu sync.Mutex

	sessions      *session.Manager
	online        *presence.Tracker
	conversations *conversation.Store
	emitter       session.Emitter
	sink          Sink
	logger        *slog.Logger

	// active is ContextPublic or a peer connection ID. Exactly one context
	// is active at any time; it decides where sends go and which inbound
	// messages render immediately instead of incrementing unread.
	active string
}

// New creates a routing controller. Pass nil sink or logger for defaults.
func New(sessions *session.Manager, online *presence.Tracker, conversations *conversation.Store, emitter session.Emitter, sink Sink, logger *slog.Logger) *Controller {
	if sink == nil {
		sink = noopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sessions:      sessions,
		online:        online,
		conversations: conversations,
		emitter:       emitter,
		sink:          sink,
		logger:        logger.With("component", "router"),
		active:        ContextPublic,
	}
}

// Register forwards a registration request after local validation.
func (c *Controller) Register(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Register(username, password)
}

// Login forwards a login request after local validation.
func (c *Controller) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Login(username, password)
}

// Logout ends the session and resets all core state to its initial empty
// state in one step. No conversation state survives into a later session.
func (c *Controller) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.sessions.Logout()
	c.resetLocked()
	return err
}

// Send dispatches text to the active context: one outbound event and one
// optimistic local echo, never more. Empty text is a no-op; the client never
// waits for a server echo to record its own message.
func (c *Controller) Send(text string) error {
	if text == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == ContextPublic {
		if err := c.emitter.Emit(&protocol.PublicSend{Message: text}); err != nil {
			return err
		}
		c.conversations.AppendPublic(conversation.SenderSelf, text)
		return nil
	}

	if err := c.emitter.Emit(&protocol.PrivateSend{ToConnectionID: c.active, Message: text}); err != nil {
		return err
	}
	c.conversations.AppendOutgoing(c.active, text)
	return nil
}

// SwitchToPublic makes the public room the active context. Nothing is
// cleared and nothing is replayed; the public log is a live view only.
func (c *Controller) SwitchToPublic() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ContextPublic
}

// OpenPrivateChat makes a private conversation the active context, marking it
// read, and returns its full retained history for rendering.
func (c *Controller) OpenPrivateChat(connectionID, peerLabel string) []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conversations.Ensure(connectionID, peerLabel)
	c.active = connectionID
	c.conversations.MarkRead(connectionID)
	return c.conversations.History(connectionID)
}

// Active returns the current active context.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Online returns the rendered online list (self excluded).
func (c *Controller) Online() []presence.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online.Online()
}

// Conversations lists private conversations, most recently active first.
func (c *Controller) Conversations() []conversation.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversations.Summaries()
}

// Identity returns the authenticated identity, or "" when anonymous.
func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Identity()
}

// HandleEvent applies one inbound event to the state it belongs to. The
// transport calls this sequentially from a single goroutine, preserving
// arrival order. Malformed events are discarded, never fatal.
func (c *Controller) HandleEvent(ev protocol.Inbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case *protocol.Connected:
		if err := c.sessions.AttemptAutoLogin(); err != nil {
			c.logger.Warn("auto-login attempt failed", "error", err)
		}

	case *protocol.RegisterSuccess:
		c.sink.Notice(ev.Message)

	case *protocol.LoginSuccess:
		if ev.Username == "" || ev.Token == "" {
			c.logger.Warn("discarding login_success with missing fields")
			return
		}
		if err := c.sessions.HandleLoginSuccess(ev.Username, ev.Token); err != nil {
			c.logger.Warn("session established but token not persisted", "error", err)
		}
		c.sink.SessionChanged(ev.Username, true)

	case *protocol.LogoutSuccess:
		// Usually a no-op: Logout already reset everything locally. Covers a
		// server-forced logout as well.
		c.sessions.Reset()
		c.resetLocked()
		c.sink.Notice("logged out")

	case *protocol.AuthError:
		// No state change: a failed attempt never clobbers an existing session.
		c.sink.Notice(ev.Message)

	case *protocol.OnlineUsers:
		entries := make([]presence.Entry, 0, len(ev.Users))
		for _, u := range ev.Users {
			entries = append(entries, presence.Entry{
				ConnectionID: u.ConnectionID,
				Identity:     u.Username,
			})
		}
		c.online.ApplySnapshot(entries)
		c.sink.PresenceChanged(c.online.Online())

	case *protocol.PublicMessage:
		c.handlePublicMessage(ev)

	case *protocol.PrivateMessage:
		c.handlePrivateMessage(ev)

	default:
		c.logger.Warn("discarding unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

// handlePublicMessage renders an inbound public message only while the
// public room is the active context and the sender is not self. Own public
// sends were already echoed at send time, so the server's copy is dropped to
// prevent duplicate display.
func (c *Controller) handlePublicMessage(ev *protocol.PublicMessage) {
	if ev.From == "" {
		c.logger.Warn("discarding public message without sender")
		return
	}
	if c.active != ContextPublic || ev.From == c.sessions.Identity() {
		return
	}

	c.conversations.AppendPublic(ev.From, ev.Message)
	c.sink.MessageReceived(ContextPublic, conversation.Message{Sender: ev.From, Text: ev.Message})
}

// handlePrivateMessage routes an inbound private message to its conversation
// record. Active conversations render immediately and stay at zero unread;
// everything else accumulates silently.
func (c *Controller) handlePrivateMessage(ev *protocol.PrivateMessage) {
	if ev.ConnectionID == "" || ev.From == "" {
		c.logger.Warn("discarding private message with missing fields")
		return
	}

	active := c.active == ev.ConnectionID
	c.conversations.AppendIncoming(ev.ConnectionID, ev.From, ev.Message, active)

	if active {
		c.sink.MessageReceived(ev.ConnectionID, conversation.Message{Sender: ev.From, Text: ev.Message})
		return
	}
	c.sink.UnreadChanged(ev.ConnectionID, c.conversations.PeerLabel(ev.ConnectionID), c.conversations.Unread(ev.ConnectionID))
}

// resetLocked returns every owned component to its initial empty state.
// Must be called with mu held.
func (c *Controller) resetLocked() {
	c.conversations.Reset()
	c.online.Reset()
	c.active = ContextPublic
	c.sink.SessionChanged("", false)
}
