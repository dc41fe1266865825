// Package publish pushes projected patterns to a socket.io server.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/metrics"
	"github.com/vk/patterngrid/internal/pattern"
)

// DefaultEvent is the event patterns are emitted under.
const DefaultEvent = "pattern"

// ErrNotConnected is returned when publishing through a disconnected client.
var ErrNotConnected = errors.New("socket.io client is not connected")

// Config describes the server to publish to.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	// ConnectTimeout bounds Dial. Zero means 15 seconds.
	ConnectTimeout time.Duration
}

// Publisher emits patterns over one socket.io connection.
type Publisher struct {
	io     *socket.Socket
	event  string
	logger *slog.Logger
}

// Dial connects to the server and waits for the connection to be accepted.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", cfg.URL)
	logger.Info("Connecting publisher...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must include a scheme and a host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	event := cfg.Event
	if event == "" {
		event = DefaultEvent
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Publisher connect_error event fired.", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		logger.Info("Publisher connected.", "sid", io.Id(), "event", event)
		return &Publisher{io: io, event: event, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

// Publish emits p under the configured event as a JSON object.
func (p *Publisher) Publish(ctx context.Context, data *pattern.Data) (err error) {
	defer func() { metrics.RecordPublish(err == nil) }()

	if !p.io.Connected() {
		return ErrNotConnected
	}
	encoded, err := EncodePattern(data)
	if err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return fmt.Errorf("failed to decode pattern payload: %w", err)
	}

	p.io.Emit(p.event, payload)
	ctxlog.FromContext(ctx).Debug("Pattern published.", "event", p.event, "revision", data.Revision, "bytes", len(encoded))
	return nil
}

// Close disconnects the client.
func (p *Publisher) Close() error {
	p.logger.Info("Closing publisher.", "sid", p.io.Id())
	p.io.Disconnect()
	return nil
}

// EncodePattern returns the JSON form of data that Publish emits.
func EncodePattern(data *pattern.Data) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("nil pattern")
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pattern: %w", err)
	}
	return encoded, nil
}
