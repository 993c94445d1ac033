// ABOUTME: Session manager state machine, anonymous or authenticated
// ABOUTME: Handles register/login validation, auto-login on reconnect, and logout

package session

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/2389/parley/internal/protocol"
)

// Session errors
var (
	ErrEmptyCredentials = errors.New("username and password are required")
)

// Emitter sends an outbound event over the transport.
// Emission is fire-and-forget: responses arrive as later, independent events.
type Emitter interface {
	Emit(ev protocol.Outbound) error
}

// TokenStore persists the opaque session token across reconnects and restarts.
// Load returns an empty string when no token is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager owns the authentication state machine. It is not safe for
// concurrent use on its own; the routing controller serializes all access.
type Manager struct {
	emitter Emitter
	tokens  TokenStore
	logger  *slog.Logger

	// identity and token are set and cleared together: identity is present
	// iff token is present, except for the transient window between emitting
	// auto_login and receiving the server's response.
	identity string
	token    string
}

// NewManager creates a session manager. Pass nil logger for default.
func NewManager(emitter Emitter, tokens TokenStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		emitter: emitter,
		tokens:  tokens,
		logger:  logger.With("component", "session"),
	}
}

// Authenticated reports whether a session is established.
func (m *Manager) Authenticated() bool {
	return m.identity != ""
}

// Identity returns the authenticated display name, or "" when anonymous.
func (m *Manager) Identity() string {
	return m.identity
}

// Token returns the current session token, or "" when anonymous.
func (m *Manager) Token() string {
	return m.token
}

// Register validates credentials locally and forwards them to the server.
// No local state changes until a response event arrives.
func (m *Manager) Register(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	return m.emitter.Emit(&protocol.Register{Username: username, Password: password})
}

// Login validates credentials locally and forwards them to the server.
// The session becomes authenticated only when login_success arrives.
func (m *Manager) Login(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	return m.emitter.Emit(&protocol.Login{Username: username, Password: password})
}

// AttemptAutoLogin re-authenticates with the persisted token, if one exists.
// Called on every connection-established event. Idempotent: a no-op when the
// session is already authenticated, so duplicate connect events during a
// reconnection storm emit nothing.
func (m *Manager) AttemptAutoLogin() error {
	if m.Authenticated() {
		return nil
	}

	token, err := m.tokens.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	m.logger.Debug("attempting auto-login with persisted token")
	return m.emitter.Emit(&protocol.AutoLogin{Token: token})
}

// HandleLoginSuccess establishes the session and persists the token.
// Applies to both credential login and auto-login responses.
func (m *Manager) HandleLoginSuccess(identity, token string) error {
	m.identity = identity
	m.token = token

	if err := m.tokens.Save(token); err != nil {
		// The session is still usable; only auto-login after a restart is lost.
		m.logger.Warn("failed to persist session token", "error", err)
		return err
	}

	m.logger.Info("session established", "identity", identity)
	return nil
}

// Logout notifies the server, clears the persisted token, and resets the
// session to anonymous. Conversation and presence state are reset by the
// routing controller in the same step.
func (m *Manager) Logout() error {
	var emitErr error
	if m.token != "" {
		emitErr = m.emitter.Emit(&protocol.Logout{Token: m.token})
	}

	if err := m.tokens.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", "error", err)
	}
	m.Reset()

	return emitErr
}

// Reset drops the in-memory session without touching the token store.
// Used for the server-acknowledged logout, which may arrive after Logout
// already reset everything.
func (m *Manager) Reset() {
	m.identity = ""
	m.token = ""
}
