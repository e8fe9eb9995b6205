package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/go2n"
)

const mockSystemInfoResponse = `{
	"success": true,
	"result": {
		"variant": "2N IP Verso",
		"serialNumber": "54-0956-0004",
		"hwVersion": "535v1",
		"swVersion": "2.43.0.45.5",
		"buildType": "release",
		"deviceName": "Front Door",
		"macAddr": "7C-1E-B3-00-11-22"
	}
}`

const mockSystemStatusResponse = `{
	"success": true,
	"result": {
		"systemTime": 1703980800,
		"upTime": 8545
	}
}`

const mockSubscribeResponse = `{"success": true, "result": {"id": 7}}`

const mockEventPullResponse = `{
	"success": true,
	"result": {
		"events": [
			{"id": 1, "tzShift": 0, "utcTime": 1703980810, "upTime": 8555, "event": "KeyPressed", "params": {"key": "valid"}}
		]
	}
}`

const mockEmptyPullResponse = `{"success": true, "result": {"events": []}}`

const mockUnsupportedResponse = `{
	"success": false,
	"error": {"code": 1, "description": "function is not supported"}
}`

// mockDevice serves the minimal 2N API surface the bridge touches.
// The first event pull returns one KeyPressed event, later pulls
// report an empty log after a short delay.
func mockDevice(pulls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/system/info":
			fmt.Fprint(w, mockSystemInfoResponse)
		case "/api/system/status":
			fmt.Fprint(w, mockSystemStatusResponse)
		case "/api/switch/caps", "/api/switch/status", "/api/io/caps", "/api/io/status":
			fmt.Fprint(w, mockUnsupportedResponse)
		case "/api/log/subscribe":
			fmt.Fprint(w, mockSubscribeResponse)
		case "/api/log/pull":
			if pulls.Add(1) == 1 {
				fmt.Fprint(w, mockEventPullResponse)
			} else {
				time.Sleep(50 * time.Millisecond)
				fmt.Fprint(w, mockEmptyPullResponse)
			}
		case "/api/log/unsubscribe":
			fmt.Fprint(w, `{"success": true, "result": {}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success": false, "error": {"code": 9, "description": "no such endpoint"}}`)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	conn, err := go2n.NewConnectionData("192.168.1.69", "admin", "secret")
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	srv, err := New(&Config{Addr: ":8765"}, conn)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if srv.config.Path != "/events" {
		t.Errorf("Path = %s, want /events", srv.config.Path)
	}
	if srv.config.PullTimeout != DefaultPullTimeout {
		t.Errorf("PullTimeout = %v, want %v", srv.config.PullTimeout, DefaultPullTimeout)
	}
	if srv.GetActiveConnections() != 0 {
		t.Errorf("GetActiveConnections = %d, want 0", srv.GetActiveConnections())
	}
}

func TestHubBroadcast(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.run(ctx)

	c := &client{hub: h, send: make(chan []byte, 1), remoteAddr: "test:1"}
	h.register <- c

	h.broadcast <- []byte(`{"event":"test"}`)

	select {
	case msg := <-c.send:
		if string(msg) != `{"event":"test"}` {
			t.Errorf("message = %s, want {\"event\":\"test\"}", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast message not delivered")
	}

	h.unregister <- c

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel closed after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.run(ctx)

	// Unbuffered send channel that nothing drains
	c := &client{hub: h, send: make(chan []byte), remoteAddr: "slow:1"}
	h.register <- c

	h.broadcast <- []byte("first")

	deadline := time.Now().Add(time.Second)
	for h.activeClients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed for dropped client")
	}
}

func TestBridgeDeliversDeviceEvents(t *testing.T) {
	var pulls atomic.Int32
	device := httptest.NewServer(mockDevice(&pulls))
	defer device.Close()

	conn, err := go2n.NewConnectionData(strings.TrimPrefix(device.URL, "http://"), "admin", "secret")
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	dev, err := go2n.NewDevice(context.Background(), nil, conn)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer dev.Close()

	srv := &Server{
		config: &Config{Path: "/events", PullTimeout: time.Second},
		conn:   conn,
		device: dev,
		hub:    newHub(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.run(ctx)

	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveWS(srv.hub, w, r)
	}))
	defer ws.Close()

	wsURL := "ws" + strings.TrimPrefix(ws.URL, "http")
	clientConn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer clientConn.Close()

	// Start pulling only once the client is registered so the first
	// event cannot be broadcast before anyone is listening.
	deadline := time.Now().Add(time.Second)
	for srv.hub.activeClients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}
	go srv.pumpEvents(ctx)

	_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := clientConn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var envelope EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if envelope.Host != strings.TrimPrefix(device.URL, "http://") {
		t.Errorf("Host = %s, want %s", envelope.Host, strings.TrimPrefix(device.URL, "http://"))
	}
	if envelope.Event.Type != "KeyPressed" {
		t.Errorf("event type = %s, want KeyPressed", envelope.Event.Type)
	}
	if envelope.Event.ID != 1 {
		t.Errorf("event id = %d, want 1", envelope.Event.ID)
	}

	if pulls.Load() < 1 {
		t.Error("expected at least one event pull against the device")
	}
}
