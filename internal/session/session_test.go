// ABOUTME: Tests for the session manager state machine
// ABOUTME: Covers validation, login, auto-login idempotence, and logout teardown

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/protocol"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	events []protocol.Outbound
}

func (e *recordingEmitter) Emit(ev protocol.Outbound) error {
	e.events = append(e.events, ev)
	return nil
}

// memTokenStore is an in-memory TokenStore for tests.
type memTokenStore struct {
	token string
}

func (s *memTokenStore) Load() (string, error) { return s.token, nil }
func (s *memTokenStore) Save(t string) error   { s.token = t; return nil }
func (s *memTokenStore) Clear() error          { s.token = ""; return nil }

func newTestManager() (*Manager, *recordingEmitter, *memTokenStore) {
	emitter := &recordingEmitter{}
	tokens := &memTokenStore{}
	return NewManager(emitter, tokens, nil), emitter, tokens
}

func TestManager_RegisterRejectsEmptyFields(t *testing.T) {
	m, emitter, _ := newTestManager()

	assert.ErrorIs(t, m.Register("", ""), ErrEmptyCredentials)
	assert.ErrorIs(t, m.Register("alice", ""), ErrEmptyCredentials)
	assert.ErrorIs(t, m.Register("", "hunter2"), ErrEmptyCredentials)
	assert.ErrorIs(t, m.Register("   ", "hunter2"), ErrEmptyCredentials)

	assert.Empty(t, emitter.events, "local validation failures must emit nothing")
}

func TestManager_LoginEmitsCredentials(t *testing.T) {
	m, emitter, _ := newTestManager()

	require.NoError(t, m.Login("alice", "hunter2"))

	require.Len(t, emitter.events, 1)
	login, ok := emitter.events[0].(*protocol.Login)
	require.True(t, ok)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, "hunter2", login.Password)

	// No local state change until the response arrives.
	assert.False(t, m.Authenticated())
}

func TestManager_LoginTrimsWhitespace(t *testing.T) {
	m, emitter, _ := newTestManager()

	require.NoError(t, m.Login("  alice  ", " hunter2 "))

	login := emitter.events[0].(*protocol.Login)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, "hunter2", login.Password)
}

func TestManager_HandleLoginSuccessPersistsToken(t *testing.T) {
	m, _, tokens := newTestManager()

	require.NoError(t, m.HandleLoginSuccess("alice", "tok123"))

	assert.True(t, m.Authenticated())
	assert.Equal(t, "alice", m.Identity())
	assert.Equal(t, "tok123", m.Token())
	assert.Equal(t, "tok123", tokens.token)
}

func TestManager_AutoLoginEmitsStoredToken(t *testing.T) {
	m, emitter, tokens := newTestManager()
	tokens.token = "tok123"

	require.NoError(t, m.AttemptAutoLogin())

	require.Len(t, emitter.events, 1)
	auto, ok := emitter.events[0].(*protocol.AutoLogin)
	require.True(t, ok)
	assert.Equal(t, "tok123", auto.Token)
}

func TestManager_AutoLoginWithoutTokenIsSilent(t *testing.T) {
	m, emitter, _ := newTestManager()

	require.NoError(t, m.AttemptAutoLogin())
	assert.Empty(t, emitter.events)
}

func TestManager_AutoLoginIsIdempotentWhenAuthenticated(t *testing.T) {
	m, emitter, tokens := newTestManager()
	tokens.token = "tok123"

	require.NoError(t, m.AttemptAutoLogin())
	require.NoError(t, m.HandleLoginSuccess("alice", "tok123"))

	// A duplicate connect event must not produce a second auto_login.
	require.NoError(t, m.AttemptAutoLogin())
	require.NoError(t, m.AttemptAutoLogin())

	count := 0
	for _, ev := range emitter.events {
		if _, ok := ev.(*protocol.AutoLogin); ok {
			count++
		}
	}
	assert.Equal(t, 1, count, "exactly one auto_login per unauthenticated connect")
}

func TestManager_LogoutResetsToInitialState(t *testing.T) {
	m, emitter, tokens := newTestManager()
	require.NoError(t, m.HandleLoginSuccess("alice", "tok123"))

	require.NoError(t, m.Logout())

	assert.False(t, m.Authenticated())
	assert.Empty(t, m.Identity())
	assert.Empty(t, m.Token())
	assert.Empty(t, tokens.token, "persisted token must be cleared")

	require.Len(t, emitter.events, 1)
	logout, ok := emitter.events[0].(*protocol.Logout)
	require.True(t, ok)
	assert.Equal(t, "tok123", logout.Token)
}

func TestManager_LogoutWhileAnonymousEmitsNothing(t *testing.T) {
	m, emitter, _ := newTestManager()

	require.NoError(t, m.Logout())
	assert.Empty(t, emitter.events)
}
