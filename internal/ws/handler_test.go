package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
)

func newTestServer(t *testing.T, messages *mocks.MessageRepositoryMock) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := relay.NewRouter(messages, nil, nil, relay.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go router.Run(ctx)
	t.Cleanup(cancel)

	engine := gin.New()
	engine.GET("/ws", NewHandler(router, NewOriginPolicy([]string{"http://allowed.test"}), 4096).Handle)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func mustDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, srv, "http://allowed.test")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func readFrame(t *testing.T, conn *websocket.Conn) relay.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame relay.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func readPresence(t *testing.T, conn *websocket.Conn) []models.PresenceEntry {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, relay.EventUsersUpdated, frame.Event)
	var list []models.PresenceEntry
	require.NoError(t, json.Unmarshal(frame.Data, &list))
	return list
}

func TestHandshakeRejectsDisallowedOrigin(t *testing.T) {
	srv := newTestServer(t, new(mocks.MessageRepositoryMock))

	_, resp, err := dial(t, srv, "http://evil.test")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandshakeWithoutOrigin(t *testing.T) {
	srv := newTestServer(t, new(mocks.MessageRepositoryMock))

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	conn.Close()
}

func TestRoundTripOverWebsocket(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	messages.On("RecentMessages", mock.Anything, "general", relay.DefaultHistoryLimit).Return([]models.Message{}, nil)
	messages.On("CreateMessage", mock.Anything, "general", "ua", mock.MatchedBy(func(content *string) bool {
		return content != nil && *content == "hi"
	})).Return("m1", nil)
	messages.On("GetMessage", mock.Anything, "m1").Return(models.Message{
		ID: "m1", Content: "hi", UserID: "ua", RoomID: "general",
		Profiles: models.MessageAuthor{Email: "a@x.io"},
	}, nil)
	srv := newTestServer(t, messages)

	a := mustDial(t, srv)
	emit(t, a, relay.EventUserJoin, map[string]string{"userId": "ua", "email": "a@x.io"})
	list := readPresence(t, a)
	require.Len(t, list, 1)
	assert.Equal(t, "ua", list[0].ID)
	assert.NotEmpty(t, list[0].SocketID)

	emit(t, a, relay.EventJoinRoom, "general")
	frame := readFrame(t, a)
	assert.Equal(t, relay.EventRoomMessages, frame.Event)
	assert.JSONEq(t, `[]`, string(frame.Data))

	emit(t, a, relay.EventSendMessage, map[string]string{"content": "hi"})
	frame = readFrame(t, a)
	require.Equal(t, relay.EventNewMessage, frame.Event)
	var msg models.Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "a@x.io", msg.Profiles.Email)
}

func TestSocketCloseFiresDisconnect(t *testing.T) {
	srv := newTestServer(t, new(mocks.MessageRepositoryMock))

	a := mustDial(t, srv)
	emit(t, a, relay.EventUserJoin, map[string]string{"userId": "ua", "email": "a@x.io"})
	require.Len(t, readPresence(t, a), 1)

	b := mustDial(t, srv)
	emit(t, b, relay.EventUserJoin, map[string]string{"userId": "ub", "email": "b@x.io"})
	require.Len(t, readPresence(t, b), 2)
	require.Len(t, readPresence(t, a), 2)

	require.NoError(t, a.Close())

	list := readPresence(t, b)
	require.Len(t, list, 1)
	assert.Equal(t, "ub", list[0].ID)
}

func TestSendClosesSlowClient(t *testing.T) {
	c := &Client{send: make(chan []byte, 1), info: ConnInfo{ConnID: "slow"}}

	assert.True(t, c.Send([]byte("one")))
	assert.False(t, c.Send([]byte("two")))
	assert.False(t, c.Send([]byte("three")))

	c.Close()
	frame, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, "one", string(frame))
	_, ok = <-c.send
	assert.False(t, ok)
}
