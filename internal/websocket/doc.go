// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

/*
Package websocket implements the room-based real-time notification hub.

Every authenticated connection joins exactly three rooms derived from its
identity: tenant:<tenantId>, user:<userId>, and role:<role>. Publishes target
one room (or all clients, for browser notifications) and fan out to every
member currently connected.

Delivery is fire-and-forget: a publish to a room with zero members succeeds
and the notification is silently dropped. There is no queueing, no replay for
late joiners, and no recall once a message has been handed to the transport
layer. Dispatch failures are logged and never propagate to the business
operation that triggered them.

The hub run loop processes client lifecycle events with priority over
broadcasts so room membership is always settled before a message fans out,
and it supports context-based shutdown for suture supervision.
*/
package websocket
