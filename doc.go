// Package go2n provides an HTTP client for 2N intercom and access-control devices.
//
// This package implements a thin client for the vendor's local REST API
// (the 2N HTTP API), mapping each device capability to one typed Go
// method: system identity and status, restart, audio test, switch and
// IO port control, and the event log. Responses are parsed from the
// vendor's JSON envelope into typed values; failures surface as typed
// errors distinguishing configuration, authentication, connectivity,
// protocol and device-reported problems.
//
// # Connecting
//
// A Device is built from a ConnectionData describing how to reach and
// authenticate to the unit, plus an optional shared *http.Client:
//
//	conn, err := go2n.NewConnectionData("192.168.1.69", "admin", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	device, err := go2n.NewDevice(ctx, nil, conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Close()
//
//	fmt.Println(device.Info().Summary())
//
// Construction performs an initial identity fetch; an unreachable
// device, rejected credentials, or an unparseable response fail the
// factory and no Device is returned.
//
// # Authentication
//
// HTTP Basic is the default. Devices configured to require Digest
// authentication are handled transparently: the request helper answers
// the WWW-Authenticate challenge with a computed MD5 digest response
// and retries exactly once.
//
//	conn, err := go2n.NewConnectionData("192.168.1.69", "admin", "secret",
//	    go2n.WithAuthMethod(go2n.AuthDigest),
//	    go2n.WithProtocol(go2n.ProtocolHTTPS))
//
// With ProtocolHTTPS, certificate verification follows SSLVerify only
// for the library-built client (nil *http.Client); an injected client's
// TLS configuration is authoritative and never modified.
//
// # Session Ownership
//
// The *http.Client passed to NewDevice is caller-owned: it may be
// shared across any number of devices and the library never closes or
// reconfigures it. Passing nil builds a private client with a 10 s
// default per-call timeout; Close releases that private client's idle
// connections.
//
// # Events
//
// The device event log is consumed through a subscription handle:
//
//	sub, err := device.Subscribe(ctx, go2n.EventFilter{Types: []string{"KeyPressed"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sub.Unsubscribe(context.Background())
//
//	for {
//	    events, err := sub.Pull(ctx, 30*time.Second)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, e := range events {
//	        fmt.Println(e.Time(), e.Type)
//	    }
//	}
//
// # Concurrency
//
// A Device is safe for concurrent use. Operations are independent HTTP
// requests with no ordering guarantees between them; the cached
// identity snapshot is guarded internally. The library never retries,
// backs off, or runs background tasks - retry policy belongs to the
// caller, and IsRetryable hints whether a retry could help.
//
// # Error Handling
//
// Every failure is an *Error carrying an ErrorType. Use the predicate
// helpers (IsAuthenticationError, IsConnectivityError, ...) or
// errors.As to branch on the category. Credentials never appear in
// error text or log output.
package go2n
