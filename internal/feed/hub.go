// Package feed delivers per-crew change notifications to clients over
// WebSockets. The Hub fans frames out to subscribers; the Listener bridges
// Postgres NOTIFY events into the Hub. A frame carries no payload beyond the
// crew ID — clients re-fetch the full member list on every frame, so a lost
// frame costs freshness, never correctness.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crewlink/crewlink/internal/metrics"
)

const (
	// pingInterval keeps NATs and proxies from idling out quiet feeds.
	// Well inside the client's 60s silence tolerance.
	pingInterval = 30 * time.Second

	// writeWait bounds every socket write.
	writeWait = 10 * time.Second

	// sendBuffer is how many undelivered frames a subscriber may accumulate
	// before the hub drops it. Frames are tiny and coalescing is safe, so
	// this mostly guards against dead peers holding memory.
	sendBuffer = 16
)

// conn is one subscribed WebSocket.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub tracks feed subscribers per crew and broadcasts change frames to them.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*conn]struct{}
}

// NewHub returns an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; the crew ID in the
			// URL is the only credential this feed has (auth is out of scope).
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*conn]struct{}),
	}
}

// ServeWS upgrades the request and registers the connection as a subscriber
// of crewID until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, crewID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade wrote its own error response.
		h.log.Warn("feed upgrade failed", "crew_id", crewID, "error", err)
		return
	}

	c := &conn{ws: ws, send: make(chan []byte, sendBuffer)}
	h.register(crewID, c)
	metrics.FeedConnections.Inc()
	h.log.Info("feed subscriber connected", "crew_id", crewID, "remote", ws.RemoteAddr())

	go h.writePump(crewID, c)
	go h.readPump(crewID, c)
}

// Broadcast queues a change frame for every subscriber of crewID.
// Subscribers that cannot keep up are dropped rather than allowed to stall
// the rest of the crew.
func (h *Hub) Broadcast(crewID string) {
	frame, err := json.Marshal(struct {
		CrewID string `json:"crew_id"`
	}{crewID})
	if err != nil {
		h.log.Error("failed to encode feed frame", "error", err)
		return
	}

	h.mu.Lock()
	var dropped []*conn
	for c := range h.subs[crewID] {
		select {
		case c.send <- frame:
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dropped {
		metrics.FeedDrops.Inc()
		h.log.Warn("dropping slow feed subscriber", "crew_id", crewID)
		h.unregister(crewID, c)
	}
}

// SubscriberCount reports how many sockets are subscribed to crewID.
func (h *Hub) SubscriberCount(crewID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[crewID])
}

// Shutdown closes every subscriber with a going-away frame. Clients treat the
// normal close as "connection closed" and surface Degraded, which is accurate
// during a server restart.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var all []*conn
	for crewID, conns := range h.subs {
		for c := range conns {
			all = append(all, c)
		}
		delete(h.subs, crewID)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range all {
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		close(c.send)
		metrics.FeedConnections.Dec()
	}
}

func (h *Hub) register(crewID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[crewID] == nil {
		h.subs[crewID] = make(map[*conn]struct{})
	}
	h.subs[crewID][c] = struct{}{}
}

// unregister removes c and closes its send channel exactly once (removal from
// the map is the guard).
func (h *Hub) unregister(crewID string, c *conn) {
	h.mu.Lock()
	conns, ok := h.subs[crewID]
	if ok {
		if _, present := conns[c]; !present {
			ok = false
		}
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.subs, crewID)
		}
	}
	h.mu.Unlock()

	if ok {
		close(c.send)
		metrics.FeedConnections.Dec()
	}
}

// writePump delivers queued frames and keepalive pings until the connection
// or the send channel dies.
func (h *Hub) writePump(crewID string, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				// Unregistered (slow, or hub shutdown).
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.unregister(crewID, c)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.unregister(crewID, c)
				return
			}
		}
	}
}

// readPump drains the connection. Clients never send data frames; reading is
// how the server notices the peer went away and how pong frames get processed.
func (h *Hub) readPump(crewID string, c *conn) {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			h.unregister(crewID, c)
			h.log.Info("feed subscriber disconnected", "crew_id", crewID)
			return
		}
	}
}
