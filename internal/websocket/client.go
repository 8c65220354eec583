// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/transsync/fleetcore/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB
)

// clientIDCounter hands out monotonically increasing client IDs so broadcast
// and shutdown iterate clients in a stable order.
var clientIDCounter atomic.Uint64

// Identity is the authenticated principal behind a connection, extracted
// from the handshake token before the connection reaches the hub.
type Identity struct {
	TenantID string
	UserID   string
	Role     string
}

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	identity Identity
	record   ConnectionRecord
}

// NewClient creates a Client for an upgraded connection. The client is not
// registered until Hub.Connect accepts it.
func NewClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	connectionID := uuid.NewString()
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, 256),
		identity: identity,
		record: ConnectionRecord{
			ConnectionID: connectionID,
			TenantID:     identity.TenantID,
			UserID:       identity.UserID,
			Role:         identity.Role,
			ConnectedAt:  time.Now().UTC(),
		},
	}
}

// Identity returns the connection's authenticated identity.
func (c *Client) Identity() Identity { return c.identity }

// Record returns the connection's diagnostic record.
func (c *Client) Record() ConnectionRecord { return c.record }

// roomNames derives the exactly-three rooms implied by the identity.
func (c *Client) roomNames() [3]string {
	return [3]string{
		TenantRoom(c.identity.TenantID),
		UserRoom(c.identity.UserID),
		RoleRoom(c.identity.Role),
	}
}

// Start begins the read and write pumps for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// inboundMessage is the envelope clients send to the hub.
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readPump pumps inbound protocol events from the connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		c.handleInbound(msg)
	}
}

// handleInbound processes one protocol event from the client.
//
// Join requests are only honored for the rooms the connection's own identity
// already implies; a request for another tenant's (or user's, or role's)
// room is refused and logged, never applied.
func (c *Client) handleInbound(msg inboundMessage) {
	switch msg.Event {
	case EventJoinTenant:
		c.verifyJoin(msg.Data, "tenantId", c.identity.TenantID)
	case EventJoinUser:
		c.verifyJoin(msg.Data, "userId", c.identity.UserID)
	case EventJoinRole:
		c.verifyJoin(msg.Data, "role", c.identity.Role)
	case EventNotificationSend:
		c.forwardNotification(msg.Data)
	default:
		logging.Debug().Str("event", msg.Event).Msg("ignoring unknown websocket event")
	}
}

// verifyJoin checks a join request against the connection's own identity.
// Matching requests are no-ops (membership is derived at registration);
// everything else is a cross-identity join attempt.
func (c *Client) verifyJoin(data json.RawMessage, field, own string) {
	var req map[string]string
	if err := json.Unmarshal(data, &req); err != nil {
		logging.Warn().Err(err).Msg("malformed join request")
		return
	}
	if req[field] != own {
		logging.Warn().
			Str("connection", c.record.ConnectionID).
			Str("requested", req[field]).
			Str(field, own).
			Msg("refusing cross-identity room join")
	}
}

// notificationRequest is the payload of a notification:send event.
type notificationRequest struct {
	TargetType string      `json:"targetType"`
	TargetID   string      `json:"targetId"`
	Event      string      `json:"event"`
	Data       interface{} `json:"data"`
}

func (c *Client) forwardNotification(data json.RawMessage) {
	var req notificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logging.Warn().Err(err).Msg("malformed notification:send request")
		return
	}
	if err := c.hub.Route(req.TargetType, req.TargetID, req.Event, req.Data); err != nil {
		logging.Warn().Err(err).Str("target_type", req.TargetType).Msg("notification routing failed")
	}
}

// writePump pumps messages from the hub to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
