package go2n

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const mockSubscribeResponse = `{"success": true, "result": {"id": 1634}}`

const mockPullResponse = `{
	"success": true,
	"result": {
		"events": [
			{
				"id": 1,
				"tzShift": 0,
				"utcTime": 1703980800,
				"upTime": 1000,
				"event": "KeyPressed",
				"params": {"key": "1"}
			},
			{
				"id": 2,
				"tzShift": 0,
				"utcTime": 1703980805,
				"upTime": 1005,
				"event": "InputChanged",
				"params": {"port": "input1", "state": true}
			}
		]
	}
}`

const mockPullEmptyResponse = `{"success": true, "result": {"events": []}}`

// newEventServer wraps the standard device fixtures with event log
// endpoints, capturing the query of each call
func newEventServer(queries map[string]url.Values, counts map[string]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/log/subscribe":
			queries[r.URL.Path] = r.URL.Query()
			counts[r.URL.Path]++
			fmt.Fprint(w, mockSubscribeResponse)
		case "/api/log/pull":
			queries[r.URL.Path] = r.URL.Query()
			counts[r.URL.Path]++
			fmt.Fprint(w, mockPullResponse)
		case "/api/log/unsubscribe":
			queries[r.URL.Path] = r.URL.Query()
			counts[r.URL.Path]++
			fmt.Fprint(w, mockCommandOKResponse)
		default:
			serveDeviceAPI(w, r)
		}
	}
}

func TestSubscribe(t *testing.T) {
	queries := make(map[string]url.Values)
	counts := make(map[string]int)
	server := httptest.NewServer(newEventServer(queries, counts))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{
		Types:          []string{"KeyPressed", "InputChanged"},
		IncludeHistory: true,
		Duration:       2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if sub.ID() != 1634 {
		t.Errorf("ID() = %d, want 1634", sub.ID())
	}

	query := queries["/api/log/subscribe"]
	if query.Get("include") != "all" {
		t.Errorf("include = %q, want all", query.Get("include"))
	}
	if query.Get("filter") != "KeyPressed,InputChanged" {
		t.Errorf("filter = %q, want KeyPressed,InputChanged", query.Get("filter"))
	}
	if query.Get("duration") != "120" {
		t.Errorf("duration = %q, want 120", query.Get("duration"))
	}
}

func TestSubscribe_Defaults(t *testing.T) {
	queries := make(map[string]url.Values)
	counts := make(map[string]int)
	server := httptest.NewServer(newEventServer(queries, counts))
	defer server.Close()

	device := newTestDevice(t, server)

	if _, err := device.Subscribe(context.Background(), EventFilter{}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	query := queries["/api/log/subscribe"]
	if query.Get("include") != "new" {
		t.Errorf("include = %q, want new", query.Get("include"))
	}
	if query.Has("filter") {
		t.Errorf("empty filter should omit the filter parameter, got %q", query.Get("filter"))
	}
	if query.Has("duration") {
		t.Errorf("zero duration should omit the duration parameter, got %q", query.Get("duration"))
	}
}

func TestPull(t *testing.T) {
	queries := make(map[string]url.Values)
	counts := make(map[string]int)
	server := httptest.NewServer(newEventServer(queries, counts))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	events, err := sub.Pull(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	query := queries["/api/log/pull"]
	if query.Get("id") != "1634" {
		t.Errorf("id = %q, want 1634", query.Get("id"))
	}
	if query.Get("timeout") != "30" {
		t.Errorf("timeout = %q, want 30", query.Get("timeout"))
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	e := events[0]
	if e.Type != "KeyPressed" {
		t.Errorf("Type = %q, want KeyPressed", e.Type)
	}
	if e.ID != 1 {
		t.Errorf("ID = %d, want 1", e.ID)
	}
	if !e.Time().Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v, want 2023-12-31T00:00:00Z", e.Time())
	}

	var params struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(e.Params, &params); err != nil {
		t.Fatalf("Params unmarshal failed: %v", err)
	}
	if params.Key != "1" {
		t.Errorf("params.key = %q, want 1", params.Key)
	}
}

func TestPull_ZeroTimeoutOmitsParam(t *testing.T) {
	queries := make(map[string]url.Values)
	counts := make(map[string]int)
	server := httptest.NewServer(newEventServer(queries, counts))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if _, err := sub.Pull(context.Background(), 0); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	if queries["/api/log/pull"].Has("timeout") {
		t.Error("zero timeout should omit the timeout parameter")
	}
}

func TestUnsubscribe(t *testing.T) {
	queries := make(map[string]url.Values)
	counts := make(map[string]int)
	server := httptest.NewServer(newEventServer(queries, counts))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	if queries["/api/log/unsubscribe"].Get("id") != "1634" {
		t.Errorf("unsubscribe id = %q, want 1634", queries["/api/log/unsubscribe"].Get("id"))
	}

	// Idempotent: the second call is a no-op, not a second request
	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Errorf("Second Unsubscribe should be a no-op, got %v", err)
	}
	if counts["/api/log/unsubscribe"] != 1 {
		t.Errorf("unsubscribe endpoint hit %d times, want 1", counts["/api/log/unsubscribe"])
	}

	// Pulling a closed subscription is refused without a request
	_, err = sub.Pull(context.Background(), time.Second)
	if !IsConfigurationError(err) {
		t.Errorf("Expected configuration error for closed subscription, got %v", err)
	}
	if !strings.Contains(err.Error(), "subscription is closed") {
		t.Errorf("Error = %q, should say the subscription is closed", err.Error())
	}
	if counts["/api/log/pull"] != 0 {
		t.Errorf("closed subscription still pulled %d times, want 0", counts["/api/log/pull"])
	}
}

func TestPull_ExpiredSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/log/subscribe":
			fmt.Fprint(w, mockSubscribeResponse)
		case "/api/log/pull":
			fmt.Fprint(w, `{"success": false, "error": {"code": 14, "param": "id", "description": "invalid subscription id"}}`)
		default:
			serveDeviceAPI(w, r)
		}
	}))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	_, err = sub.Pull(context.Background(), time.Second)
	if !IsDeviceError(err) {
		t.Fatalf("Expected device error for expired subscription, got %v", err)
	}
}

func TestEventCaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/log/caps" {
			fmt.Fprint(w, `{"success": true, "result": {"events": ["KeyPressed", "InputChanged", "CardEntered"]}}`)
			return
		}
		serveDeviceAPI(w, r)
	}))
	defer server.Close()

	device := newTestDevice(t, server)

	caps, err := device.EventCaps(context.Background())
	if err != nil {
		t.Fatalf("EventCaps failed: %v", err)
	}

	if len(caps) != 3 {
		t.Fatalf("got %d event types, want 3", len(caps))
	}
	if caps[0] != "KeyPressed" {
		t.Errorf("caps[0] = %q, want KeyPressed", caps[0])
	}
}

// A pull is allowed to stay open past the requested device-side
// timeout; only the grace window beyond it cuts the request off.
func TestPull_WaitsPastRequestedTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("long-poll timing test")
	}

	delay := 150 * time.Millisecond
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/log/subscribe":
			fmt.Fprint(w, mockSubscribeResponse)
		case "/api/log/pull":
			time.Sleep(delay)
			fmt.Fprint(w, mockPullEmptyResponse)
		default:
			serveDeviceAPI(w, r)
		}
	}))
	defer server.Close()

	device := newTestDevice(t, server)

	sub, err := device.Subscribe(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	events, err := sub.Pull(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Pull past the requested timeout failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 from empty poll", len(events))
	}
}
