// Package crew implements the sync core: it bridges the device's location
// source and the remote membership store for exactly one active session, and
// derives the connectivity and staleness signals the presentation layer
// renders.
//
// Everything here is event-driven — feed callbacks, push ticks, location
// samples, and user commands all funnel through one mutex, so the core is
// correct under any interleaving of its event sources. The push path and the
// subscription path fail independently: losing sight of the crew never stops
// outbound sharing, and vice versa.
package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/geo"
	"github.com/crewlink/crewlink/internal/notify"
	"github.com/crewlink/crewlink/internal/store"
)

// SessionStore is what the engine needs from session persistence. Defined
// here, in the consumer, so tests can swap in a fake without touching SQLite.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, sess domain.Session) error
	Clear(ctx context.Context) error
}

// Config carries the engine's identity and timing knobs.
type Config struct {
	// Identity is the stable member ID used for every push this device makes.
	// It comes from the identity collaborator, not from the engine.
	Identity uuid.UUID

	// PushInterval is the fixed outbound push cadence. Defaults to 15s.
	PushInterval time.Duration

	// SubscribeTimeout bounds the wait for the first member snapshot before
	// the engine reports Degraded. Defaults to 10s.
	SubscribeTimeout time.Duration

	// CreateRetries is how many fresh crew IDs to try when creation collides
	// with an existing crew. Defaults to 3.
	CreateRetries int
}

func (c *Config) applyDefaults() {
	if c.PushInterval <= 0 {
		c.PushInterval = 15 * time.Second
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = 10 * time.Second
	}
	if c.CreateRetries <= 0 {
		c.CreateRetries = 3
	}
}

// Engine is the sync core. Construct with New, call Start once, then drive it
// with Join/Create/Leave. All methods are safe for concurrent use.
type Engine struct {
	store    store.CrewStore
	source   geo.Source
	sessions SessionStore
	notifier *notify.Notifier
	cfg      Config
	log      *slog.Logger

	runCtx context.Context

	mu      sync.Mutex
	sess    *domain.Session
	state   State
	members []domain.Member

	// push path
	lastReading      *geo.Reading
	pushedOnce       bool
	inFlight         bool
	lastPushOK       *bool
	consecutiveFails int

	// per-session resources; torn down together, idempotently
	sub           store.Subscription
	connectTimer  *time.Timer
	sessionCancel context.CancelFunc

	// location failure feedback
	transientSeen map[geo.FailureKind]bool
}

// New constructs an Engine. Nothing runs until Start.
func New(st store.CrewStore, src geo.Source, sessions SessionStore, notifier *notify.Notifier, cfg Config, log *slog.Logger) *Engine {
	cfg.applyDefaults()
	return &Engine{
		store:         st,
		source:        src,
		sessions:      sessions,
		notifier:      notifier,
		cfg:           cfg,
		log:           log,
		state:         StateIdle,
		transientSeen: make(map[geo.FailureKind]bool),
	}
}

// Start begins watching the location source and restores any persisted
// session. ctx scopes the engine's whole lifetime; cancelling it releases the
// device sensor and tears down any active session resources.
func (e *Engine) Start(ctx context.Context) error {
	e.runCtx = ctx

	updates, err := e.source.Watch(ctx)
	if err != nil {
		// No position capability at all. Surfaced immediately: it will not
		// self-resolve, and the engine is useless without readings.
		e.notifier.Errorf(geo.FailureMessage(geo.Unsupported, true))
		return fmt.Errorf("crew.Engine.Start: watch location source: %w", err)
	}
	go e.consumeUpdates(updates)

	go func() {
		<-ctx.Done()
		e.teardownSession()
	}()

	e.restore(ctx)
	return nil
}

// restore loads the persisted session and resumes it if it passes validation.
// Anything short of a complete record is discarded with a one-time notice —
// never an error, never a fetch or subscribe with an empty crew ID.
func (e *Engine) restore(ctx context.Context) {
	sess, err := e.sessions.Load(ctx)
	if err != nil {
		e.log.Warn("failed to load persisted session", "error", err)
		if clearErr := e.sessions.Clear(ctx); clearErr != nil {
			e.log.Warn("failed to clear persisted session", "error", clearErr)
		}
		e.notifier.Infof("Previous session could not be restored")
		return
	}
	if sess == nil {
		return
	}
	if !sess.Valid() {
		e.log.Warn("discarding incomplete persisted session", "crew_id", sess.CrewID)
		if clearErr := e.sessions.Clear(ctx); clearErr != nil {
			e.log.Warn("failed to clear persisted session", "error", clearErr)
		}
		e.notifier.Infof("Previous session could not be restored")
		return
	}

	e.log.Info("restored session", "crew_id", sess.CrewID, "member_id", sess.Member.ID)
	e.startSession(*sess)
}

// Create allocates a fresh human-readable crew ID, registers the crew and the
// local identity as its first member, persists the session, and goes live.
// ID collisions are retried with a new ID a bounded number of times.
func (e *Engine) Create(ctx context.Context, name, color string) (string, error) {
	for attempt := 0; attempt < e.cfg.CreateRetries; attempt++ {
		crewID := domain.NewCrewID()

		err := e.store.CreateCrew(ctx, crewID)
		if errors.Is(err, domain.ErrConflict) {
			e.log.Debug("crew id collision, retrying", "crew_id", crewID)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("crew.Engine.Create: %w", err)
		}

		member, err := e.store.CreateMember(ctx, crewID, e.cfg.Identity, name, color)
		if err != nil {
			return "", fmt.Errorf("crew.Engine.Create: %w", err)
		}

		sess := domain.Session{CrewID: crewID, Member: member}
		e.persistSession(ctx, sess)
		e.startSession(sess)
		return crewID, nil
	}
	return "", fmt.Errorf("crew.Engine.Create: no unused crew id after %d attempts: %w",
		e.cfg.CreateRetries, domain.ErrConflict)
}

// Join upserts the local identity into an existing crew. A missing crew is
// surfaced immediately with no writes; rejoining an already-joined crew
// updates the member record rather than duplicating it.
func (e *Engine) Join(ctx context.Context, crewID, name string) error {
	member, err := e.store.UpsertMember(ctx, crewID, e.cfg.Identity, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.notifier.Errorf("Crew not found.")
		}
		return fmt.Errorf("crew.Engine.Join: %w", err)
	}

	sess := domain.Session{CrewID: crewID, Member: member}
	e.persistSession(ctx, sess)
	e.startSession(sess)
	return nil
}

// Leave removes the local member record from the crew and clears the local
// session. The local clear is unconditional: a failed remote delete is logged
// and forgotten so the device can never get stuck unable to leave.
func (e *Engine) Leave(ctx context.Context) error {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()

	if sess != nil {
		if err := e.store.DeleteMember(ctx, sess.CrewID, sess.Member.ID); err != nil {
			e.log.Warn("remote member delete failed, leaving anyway",
				"crew_id", sess.CrewID, "member_id", sess.Member.ID, "error", err)
		}
	}

	e.teardownSession()

	if err := e.sessions.Clear(ctx); err != nil {
		e.log.Warn("failed to clear persisted session", "error", err)
	}
	return nil
}

// persistSession writes the session slot. Persistence is best-effort: the
// in-memory session stays usable even if the local disk write fails.
func (e *Engine) persistSession(ctx context.Context, sess domain.Session) {
	if err := e.sessions.Save(ctx, sess); err != nil {
		e.log.Warn("failed to persist session", "crew_id", sess.CrewID, "error", err)
	}
}

// startSession tears down any prior session, then establishes the membership
// subscription and the push ticker for sess. At most one subscription and one
// ticker exist per device; the teardown-first ordering is what guarantees
// that across rapid rejoins.
func (e *Engine) startSession(sess domain.Session) {
	e.teardownSession()

	sessCtx, cancel := context.WithCancel(e.runCtx)

	e.mu.Lock()
	e.sess = &sess
	e.state = StateSubscribing
	e.members = nil
	e.pushedOnce = false
	e.lastPushOK = nil
	e.consecutiveFails = 0
	e.sessionCancel = cancel
	e.connectTimer = time.AfterFunc(e.cfg.SubscribeTimeout, e.onConnectTimeout)
	hasReading := e.lastReading != nil
	e.mu.Unlock()

	sub, err := e.store.Subscribe(e.runCtx, sess.CrewID, e.onFeedChange, e.onFeedError)
	if err != nil {
		// Inbound visibility failed; outbound sharing proceeds regardless.
		e.onFeedError(err)
	} else {
		e.mu.Lock()
		e.sub = sub
		e.mu.Unlock()
		// Initial snapshot; further refreshes ride on feed notifications.
		go e.refresh()
	}

	go e.pushLoop(sessCtx)
	if hasReading {
		go e.push()
	}
}

// teardownSession releases the subscription, the connect timer, and the push
// ticker, and returns the engine to Idle. Idempotent and safe under repeated
// or concurrent calls; the location watch is deliberately left running
// (device position is wanted independent of crew membership).
func (e *Engine) teardownSession() {
	e.mu.Lock()
	sub := e.sub
	timer := e.connectTimer
	cancel := e.sessionCancel
	e.sub = nil
	e.connectTimer = nil
	e.sessionCancel = nil
	e.sess = nil
	e.state = StateIdle
	e.members = nil
	e.lastPushOK = nil
	e.consecutiveFails = 0
	e.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if timer != nil {
		timer.Stop()
	}
	if cancel != nil {
		cancel()
	}
}
