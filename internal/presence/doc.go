// Package presence tracks which identities are currently online. Every
// snapshot from the server is authoritative and fully replaces the previous
// one; there is no incremental add/remove protocol.
package presence
