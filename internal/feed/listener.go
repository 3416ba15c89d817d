package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewlink/crewlink/internal/metrics"
)

// channelName is the Postgres NOTIFY channel the member-change trigger fires
// on. The payload is the crew ID.
const channelName = "member_changes"

// reconnectWait is the pause before re-establishing a lost LISTEN connection.
const reconnectWait = time.Second

// Listener holds one dedicated Postgres connection on LISTEN and forwards
// every notification to the Hub. Notifications between reconnects are lost;
// clients recover on the next mutation or their own refresh, so the bridge
// favors simplicity over gap-free delivery.
type Listener struct {
	pool *pgxpool.Pool
	hub  *Hub
	log  *slog.Logger
}

// NewListener wires a Listener to pool and hub.
func NewListener(pool *pgxpool.Pool, hub *Hub, log *slog.Logger) *Listener {
	return &Listener{pool: pool, hub: hub, log: log}
}

// Run blocks listening for notifications until ctx is cancelled, reconnecting
// on connection loss. Call it in its own goroutine.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("notification listener lost, reconnecting", "error", err)
		}

		select {
		case <-time.After(reconnectWait):
		case <-ctx.Done():
			return
		}
	}
}

// listen acquires a dedicated connection, subscribes, and forwards
// notifications until the connection or ctx fails.
func (l *Listener) listen(ctx context.Context) error {
	pc, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// The connection spent its life on LISTEN; destroy rather than return it
	// to the pool with subscription state attached.
	defer func() {
		_ = pc.Hijack().Close(context.Background())
	}()

	conn := pc.Conn()
	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}
	l.log.Info("listening for member changes", "channel", channelName)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		metrics.ChangeNotifications.Inc()
		l.hub.Broadcast(n.Payload)
	}
}
