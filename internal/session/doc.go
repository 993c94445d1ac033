// Package session owns the authentication state of the client.
//
// A session is either anonymous or authenticated; nothing else. The manager
// validates credentials locally before emitting register/login events,
// re-authenticates with a persisted token when the transport (re)connects,
// and tears the session down on logout. The identity is never persisted:
// only the opaque session token survives a restart, and the identity is
// re-derived from the server's login response every time.
package session
