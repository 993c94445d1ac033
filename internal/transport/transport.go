// ABOUTME: Websocket event channel with reconnect, read/write pumps, and FIFO send queue
// ABOUTME: Delivers decoded inbound events sequentially to a single handler

package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/2389/parley/internal/protocol"
)

// defaultSendBuffer is the outbound queue depth. Sends are fire-and-forget;
// the queue only smooths bursts and survives a reconnect window.
const defaultSendBuffer = 64

// ErrSendQueueFull reports an outbound event dropped because the send queue
// was full. There is no retry: delivery failure is invisible to the core.
var ErrSendQueueFull = errors.New("send queue full")

// Handler receives decoded inbound events. Called sequentially from a single
// goroutine in arrival order; implementations own their internal locking.
type Handler interface {
	HandleEvent(ev protocol.Inbound)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev protocol.Inbound)

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev protocol.Inbound) { f(ev) }

// Options configures the event channel.
type Options struct {
	URL                 string
	DialTimeout         time.Duration
	ReconnectMinBackoff time.Duration
	ReconnectMaxBackoff time.Duration
	SendBuffer          int
}

// Channel is a persistent websocket event channel. Create with New, then
// call Run once; Emit may be called from any goroutine.
type Channel struct {
	opts    Options
	handler Handler
	logger  *slog.Logger
	send    chan []byte
}

// New creates an event channel. Pass nil logger for default.
func New(opts Options, handler Handler, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.ReconnectMinBackoff <= 0 {
		opts.ReconnectMinBackoff = time.Second
	}
	if opts.ReconnectMaxBackoff < opts.ReconnectMinBackoff {
		opts.ReconnectMaxBackoff = opts.ReconnectMinBackoff
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Channel{
		opts:    opts,
		handler: handler,
		logger:  logger.With("component", "transport"),
		send:    make(chan []byte, opts.SendBuffer),
	}
}

// Emit encodes an outbound event and queues it for sending. Fire-and-forget:
// once queued there is no acknowledgment, timeout, or retry.
func (c *Channel) Emit(ev protocol.Outbound) error {
	frame, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn("dropping outbound event, send queue full",
			"event", protocol.EventName(ev))
		return ErrSendQueueFull
	}
}

// Run connects and keeps the channel alive until ctx is cancelled,
// reconnecting with exponential backoff after any connection failure.
// Each established connection delivers a Connected event before any
// server events.
func (c *Channel) Run(ctx context.Context) error {
	backoff := c.opts.ReconnectMinBackoff

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("dial failed, retrying",
				"url", c.opts.URL,
				"backoff", backoff,
				"error", err)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, c.opts.ReconnectMaxBackoff)
			continue
		}
		backoff = c.opts.ReconnectMinBackoff

		connID := uuid.New().String()
		c.logger.Info("connected", "url", c.opts.URL, "conn_id", connID)

		// The lifecycle event fires before the read pump starts, so the
		// handler sees it strictly before any server event on this connection.
		c.handler.HandleEvent(&protocol.Connected{})

		err = c.pump(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("connection lost, reconnecting",
			"conn_id", connID,
			"backoff", backoff,
			"error", err)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, c.opts.ReconnectMaxBackoff)
	}
}

// dial establishes one websocket connection within the configured timeout.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, c.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// pump runs the read and write pumps until one fails or ctx is cancelled.
func (c *Channel) pump(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	// Closing the connection is the only way to unblock a pending read.
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})

	g.Go(func() error {
		return c.readPump(conn)
	})

	g.Go(func() error {
		return c.writePump(gctx, conn)
	})

	return g.Wait()
}

// readPump decodes inbound frames and delivers them to the handler one at a
// time. Frames that fail to decode are logged and skipped, never fatal.
func (c *Channel) readPump(conn *websocket.Conn) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, err := protocol.Decode(frame)
		if err != nil {
			c.logger.Warn("discarding undecodable frame", "error", err)
			continue
		}
		c.handler.HandleEvent(ev)
	}
}

// writePump drains the send queue onto the connection, preserving enqueue
// order. Events queued during a reconnect window are sent once reconnected.
func (c *Channel) writePump(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.send:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return err
			}
		}
	}
}

// nextBackoff doubles the delay up to the configured maximum.
func nextBackoff(current, ceiling time.Duration) time.Duration {
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}

// sleep waits for the given duration unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
