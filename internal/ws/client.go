package ws

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Client is one websocket connection registered with the router.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	info ConnInfo

	mu     sync.Mutex
	closed bool
}

var _ relay.Conn = (*Client)(nil)

func newClient(conn *websocket.Conn, info ConnInfo, maxMessageSize int64) *Client {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		info: info,
	}
}

func (c *Client) ID() string {
	return c.info.ConnID
}

// Send queues frame for the write pump. A client that cannot keep up is closed.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		log.Printf("ws: send queue full, closing conn=%s", c.info.ConnID)
		c.closeLocked()
		return false
	}
}

// Close stops the write pump, which then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump feeds inbound frames to the router until the socket fails, then
// fires the disconnect. It returns the close reason.
func (c *Client) readPump(router Router) string {
	defer func() {
		router.Disconnect(c.info.ConnID)
		c.Close()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("ws: close error conn=%s: %v", c.info.ConnID, err)
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("ws: set read deadline conn=%s: %v", c.info.ConnID, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return err.Error()
		}
		if msgType != websocket.TextMessage {
			continue
		}
		router.Dispatch(c.info.ConnID, raw)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("ws: message from conn=%s exceeded read limit", c.info.ConnID)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		log.Printf("ws: conn=%s disconnected: %v", c.info.ConnID, err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		log.Printf("ws: conn=%s closed: %v", c.info.ConnID, err)
	default:
		log.Printf("ws: read error conn=%s: %v", c.info.ConnID, err)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("ws: close error conn=%s: %v", c.info.ConnID, err)
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("ws: write error conn=%s: %v", c.info.ConnID, err)
				}
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
