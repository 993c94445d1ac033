// ABOUTME: Tests for the event envelope codec and decode table
// ABOUTME: Covers typed decoding, unknown events, malformed payloads, encoding

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_LoginSuccess(t *testing.T) {
	frame := []byte(`{"event":"login_success","data":{"username":"alice","token":"tok123"}}`)

	ev, err := Decode(frame)
	require.NoError(t, err)

	login, ok := ev.(*LoginSuccess)
	require.True(t, ok, "expected *LoginSuccess, got %T", ev)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, "tok123", login.Token)
}

func TestDecode_OnlineUsersBareArray(t *testing.T) {
	frame := []byte(`{"event":"online_users","data":[` +
		`{"connection_id":"c1","username":"bob"},` +
		`{"connection_id":"c2","username":"carol"}]}`)

	ev, err := Decode(frame)
	require.NoError(t, err)

	snapshot, ok := ev.(*OnlineUsers)
	require.True(t, ok)
	require.Len(t, snapshot.Users, 2)
	assert.Equal(t, "c1", snapshot.Users[0].ConnectionID)
	assert.Equal(t, "carol", snapshot.Users[1].Username)
}

func TestDecode_PrivateMessage(t *testing.T) {
	frame := []byte(`{"event":"private_message","data":{"connection_id":"c1","from":"bob","message":"hey"}}`)

	ev, err := Decode(frame)
	require.NoError(t, err)

	msg, ok := ev.(*PrivateMessage)
	require.True(t, ok)
	assert.Equal(t, "c1", msg.ConnectionID)
	assert.Equal(t, "bob", msg.From)
	assert.Equal(t, "hey", msg.Message)
}

func TestDecode_LogoutSuccessWithoutPayload(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"logout_success"}`))
	require.NoError(t, err)
	assert.IsType(t, &LogoutSuccess{}, ev)
}

func TestDecode_UnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"typing_indicator","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecode_MalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestDecode_MalformedPayload(t *testing.T) {
	_, err := Decode([]byte(`{"event":"login_success","data":"not-an-object"}`))
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestEncode_PrivateSendEnvelope(t *testing.T) {
	frame, err := Encode(&PrivateSend{ToConnectionID: "c1", Message: "yo"})
	require.NoError(t, err)

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, "private_message", env.Event)
	assert.JSONEq(t, `{"to_connection_id":"c1","message":"yo"}`, string(env.Data))
}

func TestEncode_AutoLogin(t *testing.T) {
	frame, err := Encode(&AutoLogin{Token: "tok123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"auto_login","data":{"token":"tok123"}}`, string(frame))
}

func TestEventName_MatchesWireContract(t *testing.T) {
	assert.Equal(t, "public_message", EventName(&PublicSend{}))
	assert.Equal(t, "logout", EventName(&Logout{}))
}
