// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/metrics"
)

// Sentinel errors for connection registration and publish routing.
var (
	// ErrMissingIdentity is returned when a connection's handshake did not
	// supply all of tenantId, userId, and role.
	ErrMissingIdentity = errors.New("connection identity requires tenantId, userId, and role")

	// ErrInvalidTarget is returned by Route for target types other than
	// tenant, user, or role.
	ErrInvalidTarget = errors.New("invalid notification target type")
)

// Inbound protocol events sent by clients.
const (
	EventJoinTenant       = "join:tenant"
	EventJoinUser         = "join:user"
	EventJoinRole         = "join:role"
	EventNotificationSend = "notification:send"
)

// Outbound protocol events pushed to clients.
const (
	EventDriverCreated       = "driver:created"
	EventVehicleCreated      = "vehicle:created"
	EventRouteCreated        = "route:created"
	EventTripCreated         = "trip:created"
	EventExpirationAlert     = "expiration:alert"
	EventBrowserNotification = "browser:notification"
)

// Publish target types accepted by Route.
const (
	TargetTenant = "tenant"
	TargetUser   = "user"
	TargetRole   = "role"
)

// TenantRoom returns the room name every connection of a tenant joins.
func TenantRoom(tenantID string) string { return "tenant:" + tenantID }

// UserRoom returns the per-user room name.
func UserRoom(userID string) string { return "user:" + userID }

// RoleRoom returns the per-role room name.
func RoleRoom(role string) string { return "role:" + role }

// Message is the wire envelope for everything pushed to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope is an internal dispatch instruction: deliver msg to one room, or
// to every connected client when broadcast is set.
type envelope struct {
	room      string
	broadcast bool
	msg       Message
}

// ConnectionRecord describes one live connection for diagnostics.
type ConnectionRecord struct {
	ConnectionID string    `json:"connectionId"`
	TenantID     string    `json:"tenantId"`
	UserID       string    `json:"userId"`
	Role         string    `json:"role"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// ConnectionStats summarizes the connection registry for diagnostics.
type ConnectionStats struct {
	TotalConnections    int            `json:"totalConnections"`
	ConnectionsByTenant map[string]int `json:"connectionsByTenant"`
	ConnectionsByRole   map[string]int `json:"connectionsByRole"`
	UptimeSeconds       float64        `json:"uptimeSeconds"`
}

// Hub maintains the connection registry and room membership, and fans
// published messages out to the rooms' live connections.
//
// Room membership is derived, never stored independently: registering a
// client joins it to exactly the three rooms implied by its identity, and
// unregistering removes it from all of them. A client can never occupy
// another tenant's room.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	dispatch   chan envelope

	mu        sync.RWMutex
	startedAt time.Time
	now       func() time.Time
}

// NewHub creates a Hub. Call Run or RunWithContext to start processing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dispatch:   make(chan envelope, 256),
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

// Connect validates the client's identity and hands it to the run loop.
// Connections missing any of tenantId, userId, or role are rejected and
// never reach the registry.
func (h *Hub) Connect(c *Client) error {
	if c.identity.TenantID == "" || c.identity.UserID == "" || c.identity.Role == "" {
		return ErrMissingIdentity
	}
	h.register <- c
	return nil
}

// Disconnect removes the client from the registry and all rooms. Calling it
// again for the same client is a no-op, not an error.
func (h *Hub) Disconnect(c *Client) {
	h.unregister <- c
}

// Run starts the hub and blocks forever. Prefer RunWithContext under
// supervision.
//
// Lifecycle events (register/unregister) are drained with priority over
// dispatches so room membership is always consistent before a message fans
// out.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
			continue
		case c := <-h.unregister:
			h.removeClient(c)
			continue
		default:
		}

		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case env := <-h.dispatch:
			h.deliver(env)
		}
	}
}

// RunWithContext starts the hub and returns ctx.Err() once the context is
// canceled, after closing every connected client. Designed for suture
// supervision: the hub can be restarted without leaving orphaned
// connections.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.addClient(c)
			continue
		case c := <-h.unregister:
			h.removeClient(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case env := <-h.dispatch:
			h.deliver(env)
		}
	}
}

// addClient registers the client and joins its three derived rooms.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	for _, room := range c.roomNames() {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]bool)
			h.rooms[room] = members
		}
		members[c] = true
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Str("connection", c.record.ConnectionID).
		Str("tenant", c.identity.TenantID).
		Str("user", c.identity.UserID).
		Str("role", c.identity.Role).
		Int("total_clients", total).
		Msg("websocket client connected")
}

// removeClient is idempotent: unknown clients are ignored.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	h.dropClientLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Str("connection", c.record.ConnectionID).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

// dropClientLocked removes the client from the registry and every room and
// closes its send channel. Caller must hold the write lock.
func (h *Hub) dropClientLocked(c *Client) {
	delete(h.clients, c)
	for _, room := range c.roomNames() {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

// deliver fans the envelope out to its room's members (or all clients for a
// broadcast) in deterministic client-ID order. Clients whose send buffer is
// full are dropped: a slow consumer must not stall the room.
func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var recipients map[*Client]bool
	if env.broadcast {
		recipients = h.clients
	} else {
		recipients = h.rooms[env.room]
	}
	if len(recipients) == 0 {
		// Fire-and-forget: an empty room is a successful, silent drop.
		return
	}

	clients := make([]*Client, 0, len(recipients))
	for c := range recipients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, c := range clients {
		select {
		case c.send <- env.msg:
		default:
			toRemove = append(toRemove, c)
		}
	}

	for _, c := range toRemove {
		logging.Warn().
			Str("connection", c.record.ConnectionID).
			Msg("send buffer full, dropping websocket client")
		h.dropClientLocked(c)
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// shutdown closes every connected client during graceful teardown.
func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		h.dropClientLocked(c)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// enqueue hands an envelope to the dispatch queue without blocking. Once the
// queue accepts it the publish has succeeded from the caller's perspective;
// a full queue drops the message and logs it.
func (h *Hub) enqueue(env envelope) {
	select {
	case h.dispatch <- env:
		metrics.NotificationsSent.WithLabelValues(env.msg.Event).Inc()
	default:
		metrics.NotificationsDropped.Inc()
		logging.Warn().Str("event", env.msg.Event).Msg("dispatch queue full, dropping notification")
	}
}

// SendToTenant publishes an event to every connection in the tenant's room.
func (h *Hub) SendToTenant(tenantID, event string, payload interface{}) {
	h.enqueue(envelope{room: TenantRoom(tenantID), msg: Message{Event: event, Data: payload}})
}

// SendToUser publishes an event to every connection of one user.
func (h *Hub) SendToUser(userID, event string, payload interface{}) {
	h.enqueue(envelope{room: UserRoom(userID), msg: Message{Event: event, Data: payload}})
}

// SendToRole publishes an event to every connection holding the role.
func (h *Hub) SendToRole(role, event string, payload interface{}) {
	h.enqueue(envelope{room: RoleRoom(role), msg: Message{Event: event, Data: payload}})
}

// BroadcastAll publishes an event to every connected client regardless of
// room, used for browser-level notifications.
func (h *Hub) BroadcastAll(event string, payload interface{}) {
	h.enqueue(envelope{broadcast: true, msg: Message{Event: event, Data: payload}})
}

// Route dispatches a publish to the room family named by targetType.
// Any target type other than tenant, user, or role fails with
// ErrInvalidTarget.
func (h *Hub) Route(targetType, targetID, event string, payload interface{}) error {
	switch targetType {
	case TargetTenant:
		h.SendToTenant(targetID, event, payload)
	case TargetUser:
		h.SendToUser(targetID, event, payload)
	case TargetRole:
		h.SendToRole(targetID, event, payload)
	default:
		return ErrInvalidTarget
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected reports whether any live connection belongs to the user.
func (h *Hub) IsUserConnected(userID string) bool {
	room := UserRoom(userID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room]) > 0
}

// ConnectedClients lists the live connection records, ordered by connection
// time then ID for stable diagnostic output.
func (h *Hub) ConnectedClients() []ConnectionRecord {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	records := make([]ConnectionRecord, len(clients))
	for i, c := range clients {
		records[i] = c.record
	}
	return records
}

// Stats summarizes the registry for the diagnostic endpoint.
func (h *Hub) Stats() ConnectionStats {
	h.mu.RLock()
	stats := ConnectionStats{
		TotalConnections:    len(h.clients),
		ConnectionsByTenant: make(map[string]int),
		ConnectionsByRole:   make(map[string]int),
		UptimeSeconds:       h.now().Sub(h.startedAt).Seconds(),
	}
	for c := range h.clients {
		stats.ConnectionsByTenant[c.identity.TenantID]++
		stats.ConnectionsByRole[c.identity.Role]++
	}
	h.mu.RUnlock()

	return stats
}
