// Package wslink carries link events and commands over a websocket as
// {"event": ..., "data": ...} envelopes.
package wslink

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/link"
	"codeberg.org/mutker/meterdash/internal/logger"
	"github.com/gorilla/websocket"
)

const (
	// EndpointPath is where the backend serves the event socket.
	EndpointPath = "/ws"

	defaultQueueSize    = 32
	defaultEventBuffer  = 256
	defaultWriteTimeout = 5 * time.Second
	defaultDialTimeout  = 10 * time.Second
)

// Client is a websocket connection to the backend. Send never blocks;
// inbound events are delivered on Events in arrival order, ending with a
// transport-closed event when the socket drops.
type Client struct {
	conn   *websocket.Conn
	log    logger.Logger
	send   chan link.Command
	events chan link.Event
	done   chan struct{}

	writeTimeout time.Duration
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

type options struct {
	queueSize    int
	eventBuffer  int
	writeTimeout time.Duration
	header       http.Header
	dialer       *websocket.Dialer
}

// Option configures a Client.
type Option func(*options)

func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// EndpointURL turns a backend base URL into its websocket endpoint.
func EndpointURL(backend string) (string, error) {
	errFactory := errors.New()

	u, err := url.Parse(strings.TrimSpace(backend))
	if err != nil {
		return "", errFactory.Wrap(ErrInvalidEndpoint, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errFactory.WithData(ErrInvalidEndpoint, backend)
	}
	if u.Host == "" {
		return "", errFactory.WithData(ErrInvalidEndpoint, backend)
	}

	if !strings.HasSuffix(u.Path, EndpointPath) {
		u.Path = strings.TrimSuffix(u.Path, "/") + EndpointPath
	}

	return u.String(), nil
}

// Dial connects to the backend's event socket.
func Dial(ctx context.Context, backend string, opts ...Option) (*Client, error) {
	errFactory := errors.New()

	o := options{
		queueSize:    defaultQueueSize,
		eventBuffer:  defaultEventBuffer,
		writeTimeout: defaultWriteTimeout,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultDialTimeout,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint, err := EndpointURL(backend)
	if err != nil {
		return nil, err
	}

	conn, resp, err := o.dialer.DialContext(ctx, endpoint, o.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errFactory.Wrap(ErrDialFailed, err)
	}

	c := &Client{
		conn:         conn,
		log:          logger.Get(),
		send:         make(chan link.Command, o.queueSize),
		events:       make(chan link.Event, o.eventBuffer),
		done:         make(chan struct{}),
		writeTimeout: o.writeTimeout,
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()

	c.log.Info().Str("endpoint", endpoint).Msg("Connected to backend")

	return c, nil
}

// Send queues a command for the writer goroutine.
func (c *Client) Send(cmd link.Command) error {
	errFactory := errors.New()

	select {
	case <-c.done:
		return errFactory.New(ErrClosed)
	default:
	}

	select {
	case c.send <- cmd:
		return nil
	case <-c.done:
		return errFactory.New(ErrClosed)
	default:
		return errFactory.WithData(ErrQueueFull, cmd.Name)
	}
}

// Events returns the inbound event stream. It is closed after the
// transport-closed event.
func (c *Client) Events() <-chan link.Event {
	return c.events
}

// Close shuts the socket down and waits for both goroutines to exit.
func (c *Client) Close() error {
	c.shutdown()
	c.wg.Wait()

	return nil
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.events)

	for {
		var ev link.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			select {
			case <-c.done:
				c.log.Debug().Err(err).Msg("Event socket closed")
			default:
				c.log.Warn().Err(err).Msg("Lost connection to backend")
			}
			c.emit(link.Event{Name: link.EventTransportClosed})
			c.shutdown()
			return
		}
		if ev.Name == "" {
			c.log.Debug().Msg("Ignoring message without event name")
			continue
		}
		c.emit(ev)
	}
}

func (c *Client) emit(ev link.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
		// Consumer may be gone; deliver only if there is room.
		select {
		case c.events <- ev:
		default:
		}
	}
}

func (c *Client) writeLoop() {
	defer c.wg.Done()
	defer c.conn.Close()

	for {
		select {
		case cmd := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.log.Debug().Err(err).Msg("Failed to set write deadline")
			}
			if err := c.conn.WriteJSON(cmd); err != nil {
				c.log.Warn().Err(err).Str("command", cmd.Name).Msg("Failed to send command")
				c.shutdown()
				return
			}
			c.log.Debug().Str("command", cmd.Name).Msg("Command sent")

		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			deadline := time.Now().Add(c.writeTimeout)
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				c.log.Debug().Err(err).Msg("Failed to send close frame")
			}
			return
		}
	}
}
