// Package ws implements the WebSocket feed stream for the collector.
//
// Hub manages a set of connected clients and pushes the current snapshot
// (latest feeds, alerts, outdoor dewpoint) to all of them on an interval.
//
// New(src, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// snapshot immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// The upgrader accepts all origins. Mounted at /ws/stream by the collector.
package ws
