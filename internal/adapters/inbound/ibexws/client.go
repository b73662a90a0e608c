// Package ibexws holds the websocket adapter for the game server: a
// reconnecting client that publishes parsed events onto the bus, and the
// frame parser.
package ibexws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ibex-tudelft/econagent/internal/events"
	"github.com/ibex-tudelft/econagent/internal/telemetry"
)

var errNotConnected = errors.New("ibexws: not connected")

// Client connects to the game server websocket and publishes every parsed
// event onto the bus from a single read loop, preserving arrival order.
//
// Gorilla/websocket supports one concurrent reader and one concurrent
// writer, so all writes are serialized through mu. Outbound messages are
// additionally rate limited so a misbehaving decider cannot flood the
// server.
type Client struct {
	url           string
	gameID        int
	recoveryToken string
	bus           *events.Bus
	limiter       *rate.Limiter
	done          chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(wsURL string, gameID int, recoveryToken string, sendRate float64, bus *events.Bus) *Client {
	if sendRate <= 0 {
		sendRate = 5
	}
	return &Client{
		url:           wsURL,
		gameID:        gameID,
		recoveryToken: recoveryToken,
		bus:           bus,
		limiter:       rate.NewLimiter(rate.Limit(sendRate), int(sendRate)),
		done:          make(chan struct{}),
	}
}

// Connect dials the server and starts the read loop. Returns once the first
// connection is established; reconnects happen in the background.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.runLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return c.sendJoin(ctx)
}

// sendJoin identifies this agent to the server. The recovery token lets the
// server re-attach a reconnecting agent to its participant slot.
func (c *Client) sendJoin(ctx context.Context) error {
	join := map[string]any{
		"gameId":   c.gameID,
		"type":     "join",
		"recovery": c.recoveryToken,
	}
	return c.Send(ctx, join)
}

// Send writes a JSON payload to the server. Safe for concurrent use;
// blocks on the rate limiter when the caller is sending too fast.
func (c *Client) Send(ctx context.Context, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	return c.conn.WriteJSON(payload)
}

// runLoop reads messages and reconnects on failure with exponential backoff.
func (c *Client) runLoop(ctx context.Context) {
	defer close(c.done)

	first := true
	for {
		if first {
			telemetry.Infof("[server] WS connected to %s (game %d)", c.url, c.gameID)
			first = false
		} else {
			telemetry.Infof("server WS reconnected")
		}

		c.readLoop(ctx)

		select {
		case <-ctx.Done():
			return
		default:
		}

		backoff := 1 * time.Second
		const maxBackoff = 30 * time.Second
		for attempt := 1; ; attempt++ {
			telemetry.Metrics.ReconnectAttempts.Inc()
			telemetry.Warnf("server WS reconnecting (attempt %d) in %s", attempt, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if err := c.dial(ctx); err != nil {
				telemetry.Warnf("server WS dial failed: %v", err)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			break
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			telemetry.Warnf("server WS read error: %v", err)
			return
		}

		if evt, ok := ParseMessage(msg); ok {
			c.bus.Publish(evt)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}
