// Package conversation owns the client's message state: the transient public
// room log and one record per private conversation, keyed by the peer's live
// connection identifier.
//
// # Records
//
// A private conversation is created lazily on the first inbound or outbound
// interaction with a connection ID and holds:
//
//   - the peer's display label, fixed at creation
//   - the ordered message history (append order is display order)
//   - an unread count, non-zero only while the conversation is not active
//
// # Retention
//
// History is unbounded by default. Limits{MaxConversations, MaxMessages}
// bounds retention when configured: the least recently active conversation is
// evicted when the conversation cap is hit, and history is trimmed from the
// front when a conversation exceeds the message cap.
package conversation
