package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"nego/internal/logger"
	"nego/internal/realtime"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Dials /realtime, subscribes to the caller's wallet and notifications and
// prints every message until interrupted or -timeout passes.
func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	token := flag.String("token", os.Getenv("NEGO_TOKEN"), "access token (see cmd/create_test_user)")
	timeout := flag.Duration("timeout", time.Minute, "stop after this long")
	flag.Parse()

	if *token == "" {
		logger.Fatal("token required: pass -token or set NEGO_TOKEN")
	}

	// the server verifies the token; we only need the subject for filters
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(*token, claims); err != nil {
		logger.Fatal("malformed token", "error", err)
	}
	userID, _ := claims["sub"].(string)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/realtime", RawQuery: "token=" + url.QueryEscape(*token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial failed", "url", u.Host+u.Path, "error", err)
	}
	defer conn.Close()

	subs := []realtime.ClientMessage{
		{Type: realtime.MsgSubscribe, Topic: "wallet", Table: "wallets", Event: "*"},
		{Type: realtime.MsgSubscribe, Topic: "notifications", Table: "notifications", Event: "INSERT"},
		{Type: realtime.MsgPing},
	}
	for _, m := range subs {
		if userID != "" && m.Table != "" {
			m.Filter = "user_id=eq." + userID
		}
		if err := conn.WriteJSON(m); err != nil {
			logger.Fatal("write failed", "error", err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	deadline := time.After(*timeout)

	msgs := make(chan realtime.ServerMessage)
	go func() {
		defer close(msgs)
		for {
			var m realtime.ServerMessage
			if err := conn.ReadJSON(&m); err != nil {
				logger.Warn("read ended", "error", err)
				return
			}
			msgs <- m
		}
	}()

	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				return
			}
			b, _ := json.Marshal(m)
			fmt.Println(string(b))
		case <-interrupt:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-deadline:
			fmt.Println("smoke test finished")
			return
		}
	}
}
