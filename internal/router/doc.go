// Package router is the top-level conversation state machine. It selects
// which conversation is active (the public room or one private peer),
// dispatches outgoing sends to the right destination with exactly one
// optimistic local echo, and applies inbound events to the session, presence
// and conversation state they belong to.
//
// All entry points serialize behind one mutex: inbound events arrive from the
// transport's single delivery goroutine and user actions may come from
// another, and every ordering invariant in the stores depends on mutations
// being applied one at a time.
package router
