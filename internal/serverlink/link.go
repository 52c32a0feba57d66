// Package serverlink carries events from the game server and commands back
// to it over a WebSocket. Events are delivered in arrival order with no
// reordering, deduplication or replay.
package serverlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/protocol"
)

const (
	pingPeriod   = 54 * time.Second
	writeTimeout = 10 * time.Second
	bufferSize   = 256
)

var (
	// ErrClosed is returned when sending on a closed link
	ErrClosed = errors.New("link closed")
	// ErrBufferFull is returned when the outbound queue is full
	ErrBufferFull = errors.New("send buffer full")
)

// Options configure a Link
type Options struct {
	Clock quartz.Clock
	// ReconnectAttempts is how many times a dropped connection is redialled
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Dialer            *websocket.Dialer
}

// Link is a WebSocket connection to the game server
type Link struct {
	serverURL string
	logger    *log.Logger
	clock     quartz.Clock
	dialer    *websocket.Dialer
	attempts  int
	delay     time.Duration

	send   chan []byte
	events chan protocol.Event

	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closeOnce sync.Once
}

// New creates an unconnected link
func New(serverURL string, logger *log.Logger, opts Options) *Link {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Link{
		serverURL: serverURL,
		logger:    logger.WithPrefix("serverlink"),
		clock:     opts.Clock,
		dialer:    opts.Dialer,
		attempts:  opts.ReconnectAttempts,
		delay:     opts.ReconnectDelay,
		send:      make(chan []byte, bufferSize),
		events:    make(chan protocol.Event, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WebSocketURL normalises a server address to a ws:// or wss:// URL with a
// /ws path when none is given
func WebSocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect dials the server and starts delivering events
func (l *Link) Connect(ctx context.Context) error {
	target, err := WebSocketURL(l.serverURL)
	if err != nil {
		return err
	}

	l.logger.Info("Connecting to server", "url", target)

	conn, _, err := l.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	l.setConn(conn)
	l.logger.Info("Connected to server")

	go l.run(target, conn)
	return nil
}

// Events returns the inbound event stream. It is closed once the link gives
// up on the connection or is closed.
func (l *Link) Events() <-chan protocol.Event {
	return l.events
}

// Send queues a command for the server without blocking
func (l *Link) Send(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode %s: %w", cmd.CommandName(), err)
	}

	select {
	case <-l.ctx.Done():
		return ErrClosed
	default:
	}

	select {
	case l.send <- data:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	default:
		return ErrBufferFull
	}
}

// IsConnected returns whether a connection is currently open
func (l *Link) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Close shuts the link down
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.cancel()

		l.mu.Lock()
		defer l.mu.Unlock()

		if l.conn != nil {
			_ = l.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				l.clock.Now().Add(writeTimeout))
			_ = l.conn.Close() // Ignore close errors during shutdown
		}
		l.connected = false

		l.logger.Info("Disconnected from server")
	})
	return nil
}

func (l *Link) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = conn
	l.connected = conn != nil
}

// run serves connections until the link is closed or reconnecting fails
func (l *Link) run(target string, conn *websocket.Conn) {
	defer close(l.events)

	for conn != nil {
		err := l.serve(conn)
		l.setConn(nil)

		if l.ctx.Err() != nil {
			return
		}
		l.logger.Warn("Connection lost", "error", err)
		conn = l.reconnect(target)
	}
}

// serve pumps one connection until it fails, then closes it
func (l *Link) serve(conn *websocket.Conn) error {
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)

	go l.writePump(conn, done)
	return l.readPump(conn)
}

func (l *Link) reconnect(target string) *websocket.Conn {
	for attempt := 1; attempt <= l.attempts; attempt++ {
		timer := l.clock.NewTimer(l.delay, "serverlink", "reconnect")
		select {
		case <-timer.C:
		case <-l.ctx.Done():
			timer.Stop()
			return nil
		}

		conn, _, err := l.dialer.DialContext(l.ctx, target, nil)
		if err != nil {
			l.logger.Warn("Reconnect failed", "attempt", attempt, "max", l.attempts, "error", err)
			continue
		}

		l.setConn(conn)
		l.logger.Info("Reconnected to server", "attempt", attempt)
		return conn
	}

	if l.attempts > 0 {
		l.logger.Error("Giving up on server connection", "attempts", l.attempts)
	}
	return nil
}

// readPump decodes frames and forwards events in arrival order
func (l *Link) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.logger.Error("WebSocket error", "error", err)
			}
			return err
		}

		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownEvent) {
				l.logger.Debug("No handler for event", "error", err)
			} else {
				l.logger.Warn("Dropping malformed event", "error", err)
			}
			continue
		}

		l.logger.Debug("Received event", "event", ev.EventName())

		select {
		case l.events <- ev:
		case <-l.ctx.Done():
			return l.ctx.Err()
		}
	}
}

// writePump writes queued commands and keeps the connection alive
func (l *Link) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := l.clock.NewTicker(pingPeriod, "serverlink", "ping")
	defer ticker.Stop()

	for {
		select {
		case data := <-l.send:
			_ = conn.SetWriteDeadline(l.clock.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				l.logger.Error("Failed to write message", "error", err)
				_ = conn.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(l.clock.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}

		case <-done:
			return
		case <-l.ctx.Done():
			return
		}
	}
}
