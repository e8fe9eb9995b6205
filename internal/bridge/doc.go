// Package bridge implements a WebSocket event bridge for 2N devices.
//
// The 2N HTTP API only exposes its event log through subscription plus
// long polling (/api/log/subscribe and /api/log/pull), and each
// subscription channel is private to its creator. The bridge converts
// that model into a fan-out push feed: it holds a single subscription
// against the device and re-broadcasts every event to any number of
// connected WebSocket clients.
//
// # Wire Format
//
// Each event is delivered to clients as one JSON text message:
//
//	{
//	  "host": "192.168.1.69",
//	  "event": {
//	    "id": 1042,
//	    "tzShift": 0,
//	    "utcTime": 1756031402,
//	    "upTime": 483,
//	    "event": "KeyPressed",
//	    "params": {"key": "valid"}
//	  }
//	}
//
// # Usage Example
//
//	conn, _ := go2n.NewConnectionData("192.168.1.69", "admin", "secret")
//
//	config := &bridge.Config{
//	    Addr:     ":8765",
//	    Path:     "/events",
//	    LogLevel: "info",
//	}
//
//	srv, err := bridge.New(config, conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Subscription Handling
//
// The upstream subscription is renewed implicitly by every pull. If a
// pull fails (device restart, subscription expiry, network drop) the
// bridge logs the error, reopens the subscription after a short delay,
// and resumes. Clients stay connected across upstream hiccups; they
// simply receive no events until the subscription is re-established.
//
// # Client Keepalive
//
// Clients are pinged on a fixed period and must answer with pongs
// within the read deadline, matching the standard gorilla/websocket
// pump pattern. Clients that stop draining their send queue are
// dropped so one stalled consumer cannot block the others.
//
// # Graceful Shutdown
//
// The bridge handles SIGINT and SIGTERM for graceful shutdown:
//  1. Stop accepting new clients and close existing ones
//  2. Cancel the event pump and release the device subscription
//  3. Wait for goroutines to finish, bounded by a timeout
package bridge
