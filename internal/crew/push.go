package crew

import (
	"context"
	"time"

	"github.com/crewlink/crewlink/internal/geo"
)

// consumeUpdates drains the location source for the engine's lifetime. The
// watch outlives any single session: position is wanted for recentering even
// when not in a crew.
func (e *Engine) consumeUpdates(updates <-chan geo.Update) {
	for u := range updates {
		switch {
		case u.Reading != nil:
			e.onReading(*u.Reading)
		case u.Failure != nil:
			e.onGeoFailure(*u.Failure)
		}
	}
}

// onReading records the newest sample (last reading wins) and decides whether
// it warrants an immediate push: the first reading of a session always does,
// and so does any change in coordinate value — not a refreshed timestamp with
// identical coordinates.
func (e *Engine) onReading(r geo.Reading) {
	e.mu.Lock()
	prev := e.lastReading
	e.lastReading = &r

	if e.sess == nil {
		e.mu.Unlock()
		return
	}
	first := !e.pushedOnce
	moved := prev == nil || prev.Lat != r.Lat || prev.Lng != r.Lng
	e.mu.Unlock()

	if first || moved {
		e.push()
	}
}

// pushLoop fires a push on the fixed interval until the session ends. The
// cadence is decoupled from reading arrival to bound both battery usage and
// staleness; the interval triggers and the movement triggers feed the same
// guarded send.
func (e *Engine) pushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.push()
		case <-ctx.Done():
			return
		}
	}
}

// push sends the latest known reading to the store, if a session and a
// reading both exist. A single in-flight flag collapses concurrent triggers
// (tick + movement) into one send. A failed push is absorbed silently the
// first time and escalated to the user only when the next push also fails.
func (e *Engine) push() {
	e.mu.Lock()
	if e.inFlight || e.sess == nil || e.lastReading == nil {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	crewID := e.sess.CrewID
	memberID := e.sess.Member.ID
	reading := *e.lastReading
	e.mu.Unlock()

	err := e.store.UpsertLocation(e.runCtx, crewID, memberID, reading.Location(), reading.Speed)

	e.mu.Lock()
	e.inFlight = false
	e.pushedOnce = true
	ok := err == nil
	e.lastPushOK = &ok
	if err != nil {
		e.consecutiveFails++
		fails := e.consecutiveFails
		e.mu.Unlock()
		e.log.Warn("location push failed", "crew_id", crewID, "consecutive", fails, "error", err)
		if fails >= 2 {
			e.notifier.Errorf("Unable to share your location. Check your connection.")
		}
		return
	}
	e.consecutiveFails = 0
	e.mu.Unlock()
}

// onGeoFailure surfaces location failures per their kind: durable ones
// immediately, transient ones only once they repeat — a lone GPS timeout in
// a tunnel is not worth a toast.
func (e *Engine) onGeoFailure(f geo.Failure) {
	e.mu.Lock()
	first := e.lastReading == nil
	repeated := e.transientSeen[f.Kind]
	e.transientSeen[f.Kind] = true
	e.mu.Unlock()

	msg := f.Message
	if msg == "" {
		msg = geo.FailureMessage(f.Kind, first)
	}

	if f.Kind.Durable() {
		e.log.Error("location source failure", "kind", f.Kind)
		e.notifier.Errorf(msg)
		return
	}

	if repeated {
		e.log.Warn("location source failure repeating", "kind", f.Kind)
		e.notifier.Errorf(msg)
		return
	}
	e.log.Debug("location source failure absorbed", "kind", f.Kind)
}
