package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/go2n"
	"github.com/muurk/go2n/internal/logging"
)

// DefaultPullTimeout is the device-side long poll duration used when
// the config leaves PullTimeout zero. Kept below the default
// subscription lifetime so pulls renew the subscription in time.
const DefaultPullTimeout = 25 * time.Second

// subscribeRetryDelay is the pause before re-subscribing after the
// device drops or rejects an event log subscription
const subscribeRetryDelay = 5 * time.Second

// Config holds the bridge server configuration
type Config struct {
	Addr        string        // Listen address (e.g. ":8765")
	Path        string        // WebSocket endpoint path (e.g. "/events")
	PullTimeout time.Duration // Device long poll duration (0 = DefaultPullTimeout)
	LogLevel    string
	CertFile    string // Path to TLS certificate (optional)
	KeyFile     string // Path to TLS private key (optional)
}

// Server bridges a 2N device event log to WebSocket clients. It holds
// one upstream subscription against the device and re-broadcasts every
// pulled event as JSON to all connected clients.
type Server struct {
	config *Config
	conn   go2n.ConnectionData

	device *go2n.Device
	hub    *hub
	httpd  *http.Server

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// EventEnvelope is the JSON payload broadcast for each device event
type EventEnvelope struct {
	Host  string     `json:"host"`
	Event go2n.Event `json:"event"`
}

// New creates a new bridge Server instance
func New(config *Config, conn go2n.ConnectionData) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.Path == "" {
		config.Path = "/events"
	}
	if config.PullTimeout <= 0 {
		config.PullTimeout = DefaultPullTimeout
	}

	return &Server{
		config: config,
		conn:   conn,
		hub:    newHub(),
	}, nil
}

// Start connects to the device and serves WebSocket clients. It blocks
// until a shutdown signal arrives or the listener fails.
func (s *Server) Start() error {
	logging.Info("Starting 2N event bridge",
		zap.String("addr", s.config.Addr),
		zap.String("path", s.config.Path),
		zap.String("device", s.conn.Host),
		zap.Duration("pull_timeout", s.config.PullTimeout),
		zap.String("log_level", s.config.LogLevel),
	)

	// Connect upstream first so a bad device address fails fast
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	device, err := go2n.NewDevice(connectCtx, nil, s.conn)
	connectCancel()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to connect to device: %w", err)
	}
	s.device = device

	info := device.Info()
	logging.Info("Connected to device",
		zap.String("host", info.Host),
		zap.String("model", info.Model),
		zap.String("serial", info.Serial),
		zap.String("firmware", info.Firmware),
	)

	// Hub distributes events to clients
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.run(ctx)
	}()

	// Upstream event pump
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pumpEvents(ctx)
	}()

	// HTTP server with the WebSocket endpoint
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, func(w http.ResponseWriter, r *http.Request) {
		serveWS(s.hub, w, r)
	})
	s.httpd = &http.Server{
		Addr:    s.config.Addr,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.CertFile != "" && s.config.KeyFile != "" {
			logging.Info("Listening with TLS",
				zap.String("cert", s.config.CertFile),
				zap.String("key", s.config.KeyFile),
			)
			err = s.httpd.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
		} else {
			err = s.httpd.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	logging.Info("Bridge listening for clients",
		zap.String("addr", s.config.Addr),
		zap.String("path", s.config.Path),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err != nil {
			s.shutdownUpstream()
			return fmt.Errorf("listener failed: %w", err)
		}
		return nil
	}
}

// pumpEvents keeps one event log subscription alive against the device
// and broadcasts every pulled event. Dropped subscriptions are reopened
// after a short delay.
func (s *Server) pumpEvents(ctx context.Context) {
	host := s.device.Host()

	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := s.device.Subscribe(ctx, go2n.EventFilter{})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Error("Event subscription failed, retrying",
				zap.String("host", host),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(subscribeRetryDelay):
			}
			continue
		}

		logging.Info("Subscribed to device event log",
			zap.String("host", host),
			zap.Uint64("subscription_id", sub.ID()),
		)

		s.drainSubscription(ctx, sub)

		// Release the channel; the outer loop decides whether to resubscribe.
		// A fresh context is used because ctx may already be canceled.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sub.Unsubscribe(releaseCtx); err != nil {
			logging.Debug("Unsubscribe failed",
				zap.String("host", host),
				zap.Error(err),
			)
		}
		releaseCancel()
	}
}

// drainSubscription pulls events until the subscription errors or the
// context is canceled
func (s *Server) drainSubscription(ctx context.Context, sub *go2n.EventSubscription) {
	host := s.device.Host()

	for {
		events, err := sub.Pull(ctx, s.config.PullTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Warn("Event pull failed, resubscribing",
				zap.String("host", host),
				zap.Error(err),
			)
			return
		}

		for _, ev := range events {
			logging.LogDeviceEvent(host, ev.Type, ev.ID)

			data, err := json.Marshal(EventEnvelope{Host: host, Event: ev})
			if err != nil {
				logging.Error("Failed to marshal event", zap.Error(err))
				continue
			}

			select {
			case s.hub.broadcast <- data:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Shutdown gracefully shuts down the bridge
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	// Stop accepting new clients and close existing ones
	if s.httpd != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.httpd.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error shutting down listener", zap.Error(err))
		}
		cancel()
	}

	s.shutdownUpstream()

	// Wait for the hub, the pump and client goroutines with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	// Sync logger
	logging.Sync()

	return nil
}

// shutdownUpstream cancels the pump and releases the device client
func (s *Server) shutdownUpstream() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.device != nil {
		s.device.Close()
	}
}

// GetActiveConnections returns the number of connected clients
func (s *Server) GetActiveConnections() int {
	return s.hub.activeClients()
}
