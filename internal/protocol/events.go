// ABOUTME: Typed event variants for the chat wire contract, inbound and outbound
// ABOUTME: JSON envelope encoding/decoding with an explicit per-event decode table

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope errors
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed event payload")
)

// envelope is the on-wire frame: an event name plus its raw payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is an event delivered by the server (or the transport lifecycle).
type Inbound interface {
	inboundEvent() string
}

// Outbound is an event the client emits to the server.
type Outbound interface {
	outboundEvent() string
}

// Connected is the transport lifecycle event delivered on every (re)connect.
// It never appears on the wire; the transport synthesizes it.
type Connected struct{}

// RegisterSuccess reports a completed registration.
type RegisterSuccess struct {
	Message string `json:"message"`
}

// LoginSuccess carries the resolved identity and the reusable session token.
type LoginSuccess struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// LogoutSuccess acknowledges a logout.
type LogoutSuccess struct{}

// AuthError reports a failed register/login/auto-login attempt.
type AuthError struct {
	Message string `json:"message"`
}

// PresenceEntry is one online user in a presence snapshot.
type PresenceEntry struct {
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
}

// OnlineUsers is the authoritative presence snapshot. Every snapshot fully
// replaces the previous one; there is no incremental add/remove protocol.
// On the wire the payload is a bare array of entries.
type OnlineUsers struct {
	Users []PresenceEntry
}

// PublicMessage is a message in the shared public room.
type PublicMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// PrivateMessage is a direct message from one live connection.
type PrivateMessage struct {
	ConnectionID string `json:"connection_id"`
	From         string `json:"from"`
	Message      string `json:"message"`
}

// Register asks the server to create an account.
type Register struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates with credentials.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AutoLogin re-authenticates with a previously persisted token.
type AutoLogin struct {
	Token string `json:"token"`
}

// Logout ends the session identified by the token.
type Logout struct {
	Token string `json:"token"`
}

// PublicSend posts a message to the public room.
type PublicSend struct {
	Message string `json:"message"`
}

// PrivateSend addresses a message to one live connection.
type PrivateSend struct {
	ToConnectionID string `json:"to_connection_id"`
	Message        string `json:"message"`
}

func (Connected) inboundEvent() string       { return "connected" }
func (RegisterSuccess) inboundEvent() string { return "register_success" }
func (LoginSuccess) inboundEvent() string    { return "login_success" }
func (LogoutSuccess) inboundEvent() string   { return "logout_success" }
func (AuthError) inboundEvent() string       { return "auth_error" }
func (OnlineUsers) inboundEvent() string     { return "online_users" }
func (PublicMessage) inboundEvent() string   { return "public_message" }
func (PrivateMessage) inboundEvent() string  { return "private_message" }

func (Register) outboundEvent() string    { return "register" }
func (Login) outboundEvent() string       { return "login" }
func (AutoLogin) outboundEvent() string   { return "auto_login" }
func (Logout) outboundEvent() string      { return "logout" }
func (PublicSend) outboundEvent() string  { return "public_message" }
func (PrivateSend) outboundEvent() string { return "private_message" }

// Decode parses a wire frame into its typed inbound variant.
// Unknown event names return ErrUnknownEvent; payloads that fail to
// unmarshal return ErrBadPayload. Callers discard either case; a
// malformed event is dropped, never fatal.
func Decode(frame []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var ev Inbound
	switch env.Event {
	case "register_success":
		ev = &RegisterSuccess{}
	case "login_success":
		ev = &LoginSuccess{}
	case "logout_success":
		return &LogoutSuccess{}, nil
	case "auth_error":
		ev = &AuthError{}
	case "online_users":
		// The snapshot payload is a bare array, matching the original wire shape.
		var users []PresenceEntry
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &users); err != nil {
				return nil, fmt.Errorf("%w: online_users: %v", ErrBadPayload, err)
			}
		}
		return &OnlineUsers{Users: users}, nil
	case "public_message":
		ev = &PublicMessage{}
	case "private_message":
		ev = &PrivateMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
		}
	}
	return ev, nil
}

// Encode wraps an outbound event in its wire envelope.
func Encode(ev Outbound) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", ev.outboundEvent(), err)
	}
	frame, err := json.Marshal(envelope{Event: ev.outboundEvent(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s envelope: %w", ev.outboundEvent(), err)
	}
	return frame, nil
}

// EventName returns the wire name of an outbound event. Used in logs.
func EventName(ev Outbound) string { return ev.outboundEvent() }
