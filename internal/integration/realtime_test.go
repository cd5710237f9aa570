package integration

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nego/internal/domain"
	"nego/internal/realtime"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// subscribe starts a listener and hub, opens a socket as user and returns
// a channel that yields the first change on table matching filter.
func subscribe(t *testing.T, e *env, user *domain.Profile, topic, table, filter string) <-chan realtime.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := realtime.NewHub()
	go realtime.NewListener(e.dsn, hub).Run(ctx)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/realtime", realtime.HandleRealtime(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := service.GenerateJWT(user.ID, user.Role)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func(d time.Duration) (realtime.ServerMessage, error) {
		_ = conn.SetReadDeadline(time.Now().Add(d))
		var m realtime.ServerMessage
		err := conn.ReadJSON(&m)
		return m, err
	}

	m, err := read(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, realtime.MsgReady, m.Type)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{
		Type:   realtime.MsgSubscribe,
		Topic:  topic,
		Table:  table,
		Filter: filter,
	}))
	m, err = read(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, realtime.MsgSubscribed, m.Type)

	changes := make(chan realtime.ServerMessage, 1)
	go func() {
		for {
			m, err := read(15 * time.Second)
			if err != nil {
				close(changes)
				return
			}
			if m.Type == realtime.MsgChange {
				changes <- m
				return
			}
		}
	}()
	return changes
}

// awaitChange repeats write until a change arrives, since the listener
// connects asynchronously.
func awaitChange(t *testing.T, changes <-chan realtime.ServerMessage, write func()) realtime.ServerMessage {
	t.Helper()
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case <-tick.C:
			write()
		case m, ok := <-changes:
			require.True(t, ok, "connection closed before a change arrived")
			require.NotNil(t, m.Payload)
			return m
		case <-timeout:
			t.Fatal("no change received")
		}
	}
}

func TestWalletChangesReachSubscriber(t *testing.T) {
	e := setup(t)
	client := e.newUser(t, domain.RoleClient, 0)

	changes := subscribe(t, e, client, "wallet", "wallets", "user_id=eq."+client.ID)
	m := awaitChange(t, changes, func() { e.fund(t, client.ID, 10) })
	assert.Equal(t, "wallet", m.Topic)
	assert.Equal(t, "wallets", m.Payload.Table)
}

func TestOversizedChangeIsLoadedFromTable(t *testing.T) {
	e := setup(t)
	talent := e.newUser(t, domain.RoleTalent, 0)
	viewer := e.newUser(t, domain.RoleClient, 0)

	changes := subscribe(t, e, viewer, "profile", "profiles", "id=eq."+talent.ID)
	m := awaitChange(t, changes, func() {
		// larger than a NOTIFY payload may be; the write itself must succeed
		_, err := e.pool.Exec(context.Background(),
			`UPDATE profiles SET bio = repeat('x', 9000) WHERE id = $1`, talent.ID)
		require.NoError(t, err)
	})
	assert.Equal(t, "profiles", m.Payload.Table)
	assert.Equal(t, "UPDATE", m.Payload.Type)
	assert.Len(t, gjson.GetBytes(m.Payload.Record, "bio").String(), 9000)
	assert.Equal(t, talent.ID, gjson.GetBytes(m.Payload.Record, "id").String())
	assert.False(t, gjson.GetBytes(m.Payload.Record, "email").Exists())
}
