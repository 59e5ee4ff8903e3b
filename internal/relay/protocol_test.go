package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

func TestEncodeWrapsPayload(t *testing.T) {
	raw, err := Encode(EventUserTyping, models.UserRef{UserID: "u1", Email: "a@x.io"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user_typing","data":{"userId":"u1","email":"a@x.io"}}`, string(raw))

	raw, err = Encode(EventError, ErrNotInRoom)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"error","data":"User not authenticated or not in a room"}`, string(raw))
}

func TestDecodeRejectsBrokenEnvelope(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	frame, err := Decode([]byte(`{"event":"typing_start"}`))
	require.NoError(t, err)
	assert.Equal(t, EventTypingStart, frame.Event)
	assert.Empty(t, frame.Data)
}

func TestDecodeRoomIDIsLenient(t *testing.T) {
	cases := map[string]string{
		`"general"`: "general",
		`42`:        "42",
		`null`:      "",
		``:          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, decodeRoomID(json.RawMessage(in)), "input %q", in)
	}
}

func TestDecodeIdentityKeepsValidFields(t *testing.T) {
	p := decodeIdentity(json.RawMessage(`{"userId":"u1","email":7}`))
	assert.Equal(t, "u1", p.UserID)
	assert.Empty(t, p.Email)

	p = decodeIdentity(nil)
	assert.Equal(t, identityPayload{}, p)
}

func TestDecodeContent(t *testing.T) {
	content := decodeContent(json.RawMessage(`{"content":"hi"}`))
	require.NotNil(t, content)
	assert.Equal(t, "hi", *content)

	empty := decodeContent(json.RawMessage(`{"content":""}`))
	require.NotNil(t, empty)
	assert.Equal(t, "", *empty)

	for _, in := range []string{`{}`, `{"content":null}`, `{"content":5}`, `"bare"`, ``} {
		assert.Nil(t, decodeContent(json.RawMessage(in)), "input %q", in)
	}
}
