package crew

import "fmt"

// refresh re-fetches the full member list and swaps it in wholesale. Full
// refresh on any change is deliberate — correctness over efficiency; the
// known scalability limit is accepted until incremental diffing is worth it.
// Readers only ever see a complete list, never a partial merge.
func (e *Engine) refresh() {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess == nil {
		return
	}

	members, err := e.store.FetchMembers(e.runCtx, sess.CrewID)
	if err != nil {
		e.log.Warn("member snapshot fetch failed", "crew_id", sess.CrewID, "error", err)
		e.onFeedError(err)
		return
	}

	e.mu.Lock()
	// The session may have been torn down while the fetch was in flight;
	// applying a stale snapshot would resurrect a dead subscription's view.
	if e.sess == nil || e.sess.CrewID != sess.CrewID {
		e.mu.Unlock()
		return
	}
	e.members = members
	wasDegraded := e.state == StateDegraded
	e.state = StateLive
	timer := e.connectTimer
	e.connectTimer = nil
	e.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if wasDegraded {
		e.log.Info("crew feed recovered", "crew_id", sess.CrewID, "members", len(members))
	}
}

// onFeedChange runs on every change notification. The notification carries no
// payload guarantee beyond "something changed", so the only correct response
// is a full re-fetch.
func (e *Engine) onFeedChange() {
	e.refresh()
}

// onFeedError marks the session Degraded and tells the user, phrased to make
// clear that their own location is still being shared — the inbound and
// outbound paths fail independently.
func (e *Engine) onFeedError(err error) {
	e.mu.Lock()
	if e.sess == nil {
		// Stray callback from a subscription torn down mid-flight.
		e.mu.Unlock()
		return
	}
	e.state = StateDegraded
	e.mu.Unlock()

	e.log.Warn("crew feed degraded", "error", err)
	e.notifier.Errorf(fmt.Sprintf("Crew updates unavailable: %v. Your location is still being shared.", err))
}

// onConnectTimeout fires when no snapshot has arrived within the bounded wait
// after subscribing. There is no automatic resubscription: recovery comes
// from the next successful snapshot or from session re-establishment.
func (e *Engine) onConnectTimeout() {
	e.mu.Lock()
	if e.sess == nil || e.state != StateSubscribing {
		e.mu.Unlock()
		return
	}
	e.state = StateDegraded
	e.mu.Unlock()

	e.log.Warn("no crew snapshot within subscribe timeout")
	e.notifier.Errorf("Connection to crew updates lost. Your location is still being shared but you may not see others.")
}
