package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crewlink/crewlink/internal/store"
)

// pongWait bounds the silence tolerated on the feed socket before the read
// loop declares it dead. crewd pings well inside this window.
const pongWait = 60 * time.Second

// Subscription failure conditions, each reported distinctly so the sync core
// can phrase user feedback per cause.
var (
	errFeedFailed   = errors.New("failed to connect to real-time updates")
	errFeedTimedOut = errors.New("connection timed out")
	errFeedClosed   = errors.New("connection closed")
)

// Subscribe opens the crew's change feed over a WebSocket. Every frame from
// the server means "something changed in this crew" and triggers onChange;
// the payload is deliberately ignored, consumers re-fetch. The read loop ends
// with exactly one onError call unless Unsubscribe got there first.
func (c *Client) Subscribe(ctx context.Context, crewID string, onChange func(), onError func(error)) (store.Subscription, error) {
	wsURL := httpToWS(c.baseURL) + "/crews/" + crewID + "/events"

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("rest.Client.Subscribe: %w: %w", errFeedFailed, err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	// closed flips when Unsubscribe runs so a locally initiated teardown is
	// not misreported as a remote failure.
	closed := make(chan struct{})

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(5*time.Second))
	})

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case <-closed:
					// Local unsubscribe; stay quiet.
				default:
					if onError != nil {
						onError(classifyFeedError(err))
					}
				}
				return
			}
			if onChange != nil {
				onChange()
			}
		}
	}()

	return store.NewSubscription(func() {
		close(closed)
		_ = conn.Close()
	}), nil
}

// classifyFeedError maps a socket read error onto one of the three distinct
// feed conditions.
func classifyFeedError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", errFeedTimedOut, err)
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return errFeedClosed
	}
	return fmt.Errorf("%w: %w", errFeedFailed, err)
}

// httpToWS rewrites an http(s) base URL to its ws(s) equivalent.
func httpToWS(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
