package realtime

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"nego/internal/domain"
	"nego/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize   = 4096
	maxSubscriptions = 50
	sendBuffer       = 256
)

var errTooManySubscriptions = errors.New("too many subscriptions")

// Client is one websocket connection and its subscriptions.
type Client struct {
	UserID string
	Role   domain.Role

	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu     sync.RWMutex
	subs   map[string]Subscription
	closed bool
}

func NewClient(userID string, role domain.Role, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		subs:   make(map[string]Subscription),
	}
}

// Run registers the client and blocks until the connection drops.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	c.trySend(encode(ServerMessage{Type: MsgReady}))
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("realtime read error", "user_id", c.UserID, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(raw []byte) {
	var m ClientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		c.sendError("", "invalid message")
		return
	}

	switch m.Type {
	case MsgPing:
		c.trySend(encode(ServerMessage{Type: MsgPong}))
	case MsgSubscribe:
		if err := c.subscribe(m); err != nil {
			c.sendError(m.Topic, err.Error())
			return
		}
		c.trySend(encode(ServerMessage{Type: MsgSubscribed, Topic: m.Topic}))
	case MsgUnsubscribe:
		c.unsubscribe(m.Topic)
		c.trySend(encode(ServerMessage{Type: MsgUnsubscribed, Topic: m.Topic}))
	default:
		c.sendError(m.Topic, "unknown message type")
	}
}

func (c *Client) subscribe(m ClientMessage) error {
	if m.Topic == "" {
		m.Topic = m.Table
	}
	event, err := normalizeEvent(m.Event)
	if err != nil {
		return err
	}
	f, err := ParseFilter(m.Filter)
	if err != nil {
		return err
	}
	if err := Authorize(c.UserID, c.Role, m.Table, f); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.subs[m.Topic]; !exists && len(c.subs) >= maxSubscriptions {
		return errTooManySubscriptions
	}
	c.subs[m.Topic] = Subscription{Topic: m.Topic, Table: m.Table, Event: event, Filter: f}
	return nil
}

func (c *Client) unsubscribe(topic string) {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
}

func (c *Client) clearSubscriptions() {
	c.mu.Lock()
	c.subs = make(map[string]Subscription)
	c.mu.Unlock()
}

// Topics lists the client's subscriptions in name order.
func (c *Client) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subs))
	for t := range c.subs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (c *Client) matching(ev domain.ChangeEvent) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var topics []string
	for _, s := range c.subs {
		if s.Matches(ev) {
			topics = append(topics, s.Topic)
		}
	}
	sort.Strings(topics)
	return topics
}

func (c *Client) sendError(topic, msg string) {
	c.trySend(encode(ServerMessage{Type: MsgError, Topic: topic, Message: msg}))
}

// trySend never blocks the hub; a full buffer drops the message.
func (c *Client) trySend(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		logger.Warn("realtime send buffer full, dropping message", "user_id", c.UserID)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
