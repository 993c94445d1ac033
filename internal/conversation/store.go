// ABOUTME: Conversation store for the public log and private per-peer records
// ABOUTME: Lazy creation, append-order history, unread counts, LRU retention limits

package conversation

import (
	"container/list"
	"log/slog"
)

// SenderSelf is the sender label for the client's own messages. Everything
// else carries the sending identity reported by the server.
const SenderSelf = "you"

// Message is one chat message. Immutable once appended; insertion order is
// the displayed order.
type Message struct {
	Sender string
	Text   string
}

// FromSelf reports whether the message was sent by the local user.
func (m Message) FromSelf() bool { return m.Sender == SenderSelf }

// Limits bounds conversation retention. Zero values mean unlimited.
type Limits struct {
	MaxConversations int
	MaxMessages      int
}

// Summary describes one private conversation for list rendering.
type Summary struct {
	ConnectionID string
	PeerLabel    string
	Unread       int
}

// record is one private conversation's retained state.
type record struct {
	connectionID string
	peerLabel    string // fixed at creation
	messages     []Message
	unread       int
	element      *list.Element // position in the activity order list
}

// Store owns all conversation state. Not safe for concurrent use on its own;
// the routing controller serializes all access.
type Store struct {
	limits Limits
	logger *slog.Logger

	private map[string]*record
	order   *list.List // connection IDs, least recently active at front
	public  []Message
}

// NewStore creates a conversation store. Pass nil logger for default.
func NewStore(limits Limits, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		limits:  limits,
		logger:  logger.With("component", "conversation"),
		private: make(map[string]*record),
		order:   list.New(),
	}
}

// Ensure returns the private conversation for the given connection ID,
// creating it with empty history and zero unread if it does not exist.
// The peer label is fixed on creation; later calls never change it.
func (s *Store) Ensure(connectionID, peerLabel string) {
	s.ensure(connectionID, peerLabel)
}

func (s *Store) ensure(connectionID, peerLabel string) *record {
	if rec, ok := s.private[connectionID]; ok {
		s.touch(rec)
		return rec
	}

	if s.limits.MaxConversations > 0 && len(s.private) >= s.limits.MaxConversations {
		s.evictOldest()
	}

	rec := &record{
		connectionID: connectionID,
		peerLabel:    peerLabel,
	}
	rec.element = s.order.PushBack(connectionID)
	s.private[connectionID] = rec

	s.logger.Debug("private conversation created",
		"connection_id", connectionID,
		"peer", peerLabel)
	return rec
}

// AppendIncoming records an inbound private message, creating the
// conversation if needed (the peer label is inferred from the sender).
// The unread count increments unless the conversation is the active context,
// in which case the message counts as immediately seen.
func (s *Store) AppendIncoming(connectionID, senderLabel, text string, active bool) {
	rec := s.ensure(connectionID, senderLabel)
	rec.messages = append(rec.messages, Message{Sender: senderLabel, Text: text})
	s.trim(rec)

	if !active {
		rec.unread++
	}
}

// AppendOutgoing records a message sent by the local user to a private
// conversation. Outgoing messages never affect unread counts.
func (s *Store) AppendOutgoing(connectionID, text string) {
	rec := s.ensure(connectionID, "")
	rec.messages = append(rec.messages, Message{Sender: SenderSelf, Text: text})
	s.trim(rec)
}

// AppendPublic records a message in the public room log. The public room is a
// single shared transient log with no unread concept; it is never replayed.
func (s *Store) AppendPublic(senderLabel, text string) {
	s.public = append(s.public, Message{Sender: senderLabel, Text: text})
	if s.limits.MaxMessages > 0 && len(s.public) > s.limits.MaxMessages {
		s.public = s.public[len(s.public)-s.limits.MaxMessages:]
	}
}

// MarkRead resets the unread count. Called exactly when the conversation
// becomes the active context.
func (s *Store) MarkRead(connectionID string) {
	rec, ok := s.private[connectionID]
	if !ok {
		return
	}
	rec.unread = 0
	s.touch(rec)
}

// Unread returns the unread count for a conversation, zero if unknown.
func (s *Store) Unread(connectionID string) int {
	rec, ok := s.private[connectionID]
	if !ok {
		return 0
	}
	return rec.unread
}

// PeerLabel returns the display label fixed at the conversation's creation.
func (s *Store) PeerLabel(connectionID string) string {
	rec, ok := s.private[connectionID]
	if !ok {
		return ""
	}
	return rec.peerLabel
}

// History returns a copy of a private conversation's retained history in
// append order. Unknown conversations yield an empty history.
func (s *Store) History(connectionID string) []Message {
	rec, ok := s.private[connectionID]
	if !ok {
		return nil
	}
	out := make([]Message, len(rec.messages))
	copy(out, rec.messages)
	return out
}

// PublicHistory returns a copy of the public room log.
func (s *Store) PublicHistory() []Message {
	out := make([]Message, len(s.public))
	copy(out, s.public)
	return out
}

// Summaries lists all private conversations, most recently active first.
func (s *Store) Summaries() []Summary {
	out := make([]Summary, 0, len(s.private))
	for e := s.order.Back(); e != nil; e = e.Prev() {
		connID, _ := e.Value.(string)
		rec := s.private[connID]
		out = append(out, Summary{
			ConnectionID: connID,
			PeerLabel:    rec.peerLabel,
			Unread:       rec.unread,
		})
	}
	return out
}

// Reset drops all conversation state, returning the store to its initial
// empty state. Called on logout; nothing survives into the next session.
func (s *Store) Reset() {
	s.private = make(map[string]*record)
	s.order = list.New()
	s.public = nil
}

// touch moves a conversation to the back of the activity order.
func (s *Store) touch(rec *record) {
	s.order.MoveToBack(rec.element)
}

// trim enforces the per-conversation message cap by dropping from the front.
func (s *Store) trim(rec *record) {
	if s.limits.MaxMessages > 0 && len(rec.messages) > s.limits.MaxMessages {
		rec.messages = rec.messages[len(rec.messages)-s.limits.MaxMessages:]
	}
}

// evictOldest removes the least recently active conversation.
func (s *Store) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}

	connID, _ := front.Value.(string)
	s.order.Remove(front)
	delete(s.private, connID)

	s.logger.Debug("evicted least recently active conversation",
		"connection_id", connID)
}
