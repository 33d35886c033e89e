package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one push channel connection subscribed to a single list.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	listID int64
	userID int64
	send   chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, listID, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		listID: listID,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// offer queues data, evicting the oldest pending payload when the buffer is full.
func (c *Client) offer(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Run subscribes the client, starts the write pump, and runs the read pump.
// It blocks until the connection fails or is closed, then unsubscribes.
func (c *Client) Run(ctx context.Context) {
	c.hub.Subscribe(c)
	defer c.hub.Unsubscribe(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		c.writePump(ctx)
		cancel()
	}()
	c.readPump(ctx)
}

// readPump discards incoming messages; the channel is one-way.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump drains the send channel and pings periodically. Any write failure ends the
// connection, which prunes the client from the hub.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusNormalClosure, "")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, ws.MessageText, msg)
			cancel()
			if err != nil {
				c.hub.logger.Debug("push write failed", "list_id", c.listID, "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
