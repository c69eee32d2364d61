// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is a live subscriber connection
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// websocketClient serialises writes to a gorilla connection, which allows
// at most one concurrent writer.
type websocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWebsocketClient wraps conn for use with the hub
func NewWebsocketClient(conn *websocket.Conn) Client {
	return &websocketClient{conn: conn}
}

func (c *websocketClient) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *websocketClient) Close() error {
	return c.conn.Close()
}
