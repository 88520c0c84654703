// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/coldwatch/internal/logging"
)

// Connection timings. Consumers only send small control messages.
const (
	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
	maxInboundSize   = 4 * 1024
	sendBufferSize   = 256
)

// timings bounds one client's socket operations. The ping period is derived
// from the pong wait so a ping always lands before the peer's read deadline.
type timings struct {
	writeWait time.Duration
	pongWait  time.Duration
}

func (t timings) pingPeriod() time.Duration {
	return t.pongWait * 9 / 10
}

var defaultTimings = timings{writeWait: defaultWriteWait, pongWait: defaultPongWait}

// clientIDCounter orders clients for deterministic broadcasts.
var clientIDCounter atomic.Uint64

// Client is one subscriber to snapshot and connection updates. The hub owns
// the send channel and closes it when the client is dropped.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	timings timings
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBufferSize),
		timings: defaultTimings,
	}
}

// ID returns the client's registration order.
func (c *Client) ID() uint64 {
	return c.id
}

// Start runs the read and write loops. Register the client with the hub first.
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// reply queues a message for this client only. It never blocks the reader.
func (c *Client) reply(msg Message) {
	select {
	case c.send <- msg:
	default:
		logging.Debug().Uint64("client_id", c.id).Str("message_type", msg.Type).Msg("Reply dropped, send buffer full")
	}
}

// handle acts on one inbound control message.
func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong})
	case MessageTypeRefresh:
		c.hub.requestRefresh()
	default:
		logging.Debug().Uint64("client_id", c.id).Str("message_type", msg.Type).Msg("Ignoring inbound message")
	}
}

// readLoop reads control messages until the peer goes away, then unregisters.
func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timings.pongWait))
	}
	if err := extend(); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("WebSocket closed unexpectedly")
			}
			return
		}
		c.handle(msg)
	}
}

// writeLoop drains the send channel and keeps the peer alive with pings.
// A closed send channel ends the connection with a close frame.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.timings.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.timings.writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.timings.writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
