// Package protocol defines the closed set of events exchanged with the chat
// server and the JSON envelope codec used on the wire. Each event is a typed
// variant; dispatch happens through an explicit decode table rather than
// untyped payloads keyed by string name.
package protocol
