// Package transport provides the persistent bidirectional event channel the
// state machine runs over: one websocket connection, a read pump delivering
// decoded events to a single handler in arrival order, a write pump draining
// a FIFO send queue, and transparent reconnection with exponential backoff.
// Every (re)connect delivers the connected lifecycle event, which is what
// re-triggers auto-login upstream.
package transport
