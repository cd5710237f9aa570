package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletEvent(userID string) domain.ChangeEvent {
	return domain.ChangeEvent{
		Table:  "wallets",
		Type:   "UPDATE",
		Record: json.RawMessage(`{"user_id":"` + userID + `","balance":900}`),
	}
}

func recv(t *testing.T, c *Client) ServerMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var m ServerMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
		return ServerMessage{}
	}
}

func TestHubRoutesByFilter(t *testing.T) {
	hub := NewHub()
	mine := NewClient(uid, domain.RoleClient, nil, hub)
	other := NewClient("22222222-2222-2222-2222-222222222222", domain.RoleClient, nil, hub)
	hub.Register(mine)
	hub.Register(other)
	defer hub.Unregister(mine)
	defer hub.Unregister(other)

	require.NoError(t, mine.subscribe(ClientMessage{Topic: "wallet", Table: "wallets", Filter: "user_id=eq." + uid}))
	require.NoError(t, other.subscribe(ClientMessage{Topic: "wallet", Table: "wallets", Filter: "user_id=eq." + other.UserID}))

	hub.Broadcast(walletEvent(uid))

	m := recv(t, mine)
	assert.Equal(t, MsgChange, m.Type)
	assert.Equal(t, "wallet", m.Topic)
	require.NotNil(t, m.Payload)
	assert.Equal(t, "wallets", m.Payload.Table)
	assert.Empty(t, other.send)
}

func TestUnregisterTearsDownSubscriptions(t *testing.T) {
	hub := NewHub()
	c := NewClient(uid, domain.RoleAdmin, nil, hub)
	hub.Register(c)
	require.NoError(t, c.subscribe(ClientMessage{Table: "wallets"}))
	assert.Equal(t, []string{"wallets"}, c.Topics())
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Empty(t, c.Topics())
	assert.Equal(t, 0, hub.ClientCount())

	hub.Broadcast(walletEvent(uid))
	assert.Empty(t, c.send)
}

func TestClientHandleMessages(t *testing.T) {
	c := NewClient(uid, domain.RoleClient, nil, NewHub())

	c.handle([]byte(`{"type":"ping"}`))
	assert.Equal(t, MsgPong, recv(t, c).Type)

	c.handle([]byte(`{"type":"subscribe","topic":"w","table":"wallets"}`))
	m := recv(t, c)
	assert.Equal(t, MsgError, m.Type)
	assert.Equal(t, ErrOwnFilterOnly.Error(), m.Message)

	c.handle([]byte(`{"type":"subscribe","topic":"w","table":"wallets","filter":"user_id=eq.` + uid + `"}`))
	assert.Equal(t, MsgSubscribed, recv(t, c).Type)

	c.handle([]byte(`{"type":"unsubscribe","topic":"w"}`))
	assert.Equal(t, MsgUnsubscribed, recv(t, c).Type)
	assert.Empty(t, c.Topics())

	c.handle([]byte(`{"type":"dance"}`))
	assert.Equal(t, MsgError, recv(t, c).Type)
	c.handle([]byte(`nope`))
	assert.Equal(t, MsgError, recv(t, c).Type)
}

func TestHandleRealtimeEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("realtime-test", time.Hour)
	token, err := service.GenerateJWT(uid, domain.RoleClient)
	require.NoError(t, err)

	hub := NewHub()
	r := gin.New()
	r.GET("/realtime", HandleRealtime(hub, ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/realtime", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ServerMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m ServerMessage
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	assert.Equal(t, MsgReady, read().Type)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgSubscribe, Topic: "wallet", Table: "wallets", Filter: "user_id=eq." + uid}))
	assert.Equal(t, MsgSubscribed, read().Type)

	hub.Broadcast(walletEvent(uid))
	m := read()
	assert.Equal(t, MsgChange, m.Type)
	assert.Equal(t, "wallet", m.Topic)
}
