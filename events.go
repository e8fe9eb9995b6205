package go2n

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// pullGrace is how much longer than the device-side long-poll timeout
// a Pull request is allowed to stay open before the context expires
const pullGrace = 5 * time.Second

// EventFilter configures an event log subscription
type EventFilter struct {
	// Types restricts the subscription to the named event types
	// (see Device.EventCaps); empty subscribes to every type the
	// device offers
	Types []string

	// IncludeHistory requests events already recorded in the device
	// log buffer in addition to events after subscription time
	IncludeHistory bool

	// Duration is the device-side subscription lifetime, renewed by
	// every Pull. Zero uses the device default (90 s).
	Duration time.Duration
}

// EventSubscription is a handle to a device-side event log channel.
// Events are drained with Pull and the channel is released with
// Unsubscribe. Subscriptions expire on the device when not pulled
// within their duration.
type EventSubscription struct {
	device *Device
	id     uint64

	mu     sync.Mutex
	closed bool
}

// Subscribe opens an event log channel on the device
// (/api/log/subscribe) and returns a handle for pulling events
func (d *Device) Subscribe(ctx context.Context, filter EventFilter) (*EventSubscription, error) {
	query := url.Values{}
	if filter.IncludeHistory {
		query.Set("include", "all")
	} else {
		query.Set("include", "new")
	}
	if len(filter.Types) > 0 {
		query.Set("filter", strings.Join(filter.Types, ","))
	}
	if filter.Duration > 0 {
		query.Set("duration", strconv.Itoa(int(filter.Duration.Seconds())))
	}

	var result subscribeResult
	if err := d.get(ctx, pathLogSubscribe, query, &result); err != nil {
		return nil, err
	}

	d.logger.Debug("event subscription opened",
		zap.Uint64("subscription_id", result.ID),
	)

	return &EventSubscription{device: d, id: result.ID}, nil
}

// ID returns the device-assigned subscription identifier
func (s *EventSubscription) ID() uint64 {
	return s.id
}

// Pull long-polls the subscription (/api/log/pull). The call blocks
// until at least one event is available or the device-side timeout
// elapses, returning an empty slice in the latter case. timeout <= 0
// asks the device to answer immediately with whatever is queued.
//
// The device renews the subscription lifetime on every Pull; a
// subscription that is not pulled within its duration expires and
// subsequent pulls fail with a device error.
func (s *EventSubscription) Pull(ctx context.Context, timeout time.Duration) ([]Event, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewConfigurationError("subscription is closed")
	}
	s.mu.Unlock()

	query := url.Values{}
	query.Set("id", strconv.FormatUint(s.id, 10))
	if timeout > 0 {
		query.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	}

	// Keep the request open past the device-side timeout, but not
	// unboundedly; the caller context still governs if it is shorter.
	pullCtx, cancel := context.WithTimeout(ctx, timeout+pullGrace)
	defer cancel()

	var result eventPullResult
	if err := s.device.get(pullCtx, pathLogPull, query, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

// Unsubscribe releases the device-side channel (/api/log/unsubscribe).
// The handle is unusable afterwards.
func (s *EventSubscription) Unsubscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	query := url.Values{}
	query.Set("id", strconv.FormatUint(s.id, 10))
	return s.device.post(ctx, pathLogUnsubscr, query)
}
