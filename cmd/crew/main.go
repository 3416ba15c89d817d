// Package main is the crew client: it shares this device's position with a
// crew and renders the crew's live state in the terminal. Wiring only — the
// sync behavior lives in internal/crew.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/config"
	"github.com/crewlink/crewlink/internal/crew"
	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/geo"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/notify"
	"github.com/crewlink/crewlink/internal/session"
	"github.com/crewlink/crewlink/internal/store"
	"github.com/crewlink/crewlink/internal/store/memory"
	"github.com/crewlink/crewlink/internal/store/rest"
)

// Default simulated start position (downtown Los Angeles) and sample cadence
// for the demo location source.
const (
	simLat      = 34.0522
	simLng      = -118.2437
	simInterval = 2 * time.Second
)

// memberColors is the palette assigned to newly created members, in join order
// by hash of the identity.
var memberColors = []string{"#EF4444", "#3B82F6", "#10B981", "#F59E0B", "#8B5CF6", "#EC4899"}

func main() {
	var (
		createFlag = flag.Bool("create", false, "create a new crew and join it")
		joinFlag   = flag.String("join", "", "crew code to join, e.g. quick-river-482")
		leaveFlag  = flag.Bool("leave", false, "leave the current crew and exit")
		nameFlag   = flag.String("name", "", "display name to join as")
		demoFlag   = flag.Bool("demo", false, "run against an in-process store with simulated crewmates")
	)
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log := logging.SetupClient(cfg.LogLevel)

	sessions, err := session.Open(cfg.SessionPath)
	if err != nil {
		log.Error("failed to open session store", "path", cfg.SessionPath, "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The identity must survive restarts so rejoining updates the existing
	// member instead of duplicating it. The persisted session carries it; a
	// fresh install mints one.
	identity := uuid.New()
	if sess, err := sessions.Load(ctx); err == nil && sess.Valid() {
		identity = sess.Member.ID
	}

	var crewStore store.CrewStore
	if *demoFlag {
		crewStore = demoStore(ctx)
	} else {
		crewStore = rest.New(cfg.ServerURL, log)
	}

	source := geo.NewSimSource(simLat, simLng, simInterval, time.Now().UnixNano())
	notifier := notify.New()

	engine := crew.New(crewStore, source, sessions, notifier, crew.Config{
		Identity:         identity,
		PushInterval:     cfg.PushInterval,
		SubscribeTimeout: cfg.SubscribeTimeout,
	}, log)

	if err := engine.Start(ctx); err != nil {
		log.Error("failed to start sync engine", "error", err)
		os.Exit(1)
	}

	switch {
	case *leaveFlag:
		if err := engine.Leave(ctx); err != nil {
			log.Warn("leave finished with errors", "error", err)
		}
		fmt.Println("Left crew.")
		return

	case *createFlag:
		crewID, err := engine.Create(ctx, displayName(*nameFlag), memberColors[identity[0]%byte(len(memberColors))])
		if err != nil {
			log.Error("failed to create crew", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Created crew %s — share this code with your crew.\n", crewID)

	case *joinFlag != "":
		if err := engine.Join(ctx, strings.TrimSpace(*joinFlag), displayName(*nameFlag)); err != nil {
			log.Error("failed to join crew", "crew_id", *joinFlag, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Joined crew %s.\n", *joinFlag)

	default:
		// No command: resume the persisted session if one exists.
		if engine.Status().State == crew.StateIdle {
			fmt.Println("Not in a crew. Use -create or -join CODE.")
			return
		}
	}

	render(ctx, engine, notifier)
}

// displayName falls back to the OS username so -name is optional.
func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}

// demoStore returns an in-process store pre-seeded with a drifting crew so the
// client has something to show without a server.
func demoStore(ctx context.Context) *memory.Store {
	st := memory.New()
	_ = st.CreateCrew(ctx, "quick-river-482")
	scout, _ := st.CreateMember(ctx, "quick-river-482", uuid.New(), "Scout", "#3B82F6")
	ranger, _ := st.CreateMember(ctx, "quick-river-482", uuid.New(), "Ranger", "#10B981")
	_ = st.UpsertLocation(ctx, "quick-river-482", scout.ID, domain.Location{Lat: simLat + 0.002, Lng: simLng - 0.001}, 0)
	_ = st.UpsertLocation(ctx, "quick-river-482", ranger.ID, domain.Location{Lat: simLat - 0.001, Lng: simLng + 0.002}, 0)

	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.Drift("quick-river-482")
			case <-ctx.Done():
				return
			}
		}
	}()
	return st
}

// render redraws the crew panel once a second until interrupted.
func render(ctx context.Context, engine *crew.Engine, notifier *notify.Notifier) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStill sharing next time you start. Use -leave to leave the crew.")
			return
		case <-ticker.C:
			drawStatus(engine.Status(), notifier.Current())
		}
	}
}

// drawStatus prints one status frame: connection state, each member with a
// staleness label, and the active toast if any.
func drawStatus(st crew.Status, toast *notify.Toast) {
	fmt.Printf("\033[2J\033[H") // clear screen, home cursor

	conn := "connecting"
	switch st.State {
	case crew.StateLive:
		conn = "live"
	case crew.StateDegraded:
		conn = "degraded — your location is still shared"
	case crew.StateIdle:
		conn = "not in a crew"
	}
	fmt.Printf("crew %s  [%s]\n\n", st.CrewID, conn)

	now := time.Now()
	for _, m := range st.Members {
		marker := " "
		if m.ID == st.SelfID {
			marker = "*"
		}
		fmt.Printf(" %s %-20s %9.4f, %9.4f  %4.1f m/s  %s\n",
			marker, m.Name, m.CurrentLocation.Lat, m.CurrentLocation.Lng, m.Speed,
			domain.Staleness(now, m.LastUpdate))
	}

	if st.LastPushOK != nil && !*st.LastPushOK {
		fmt.Println("\n ! last location push failed")
	}
	if toast != nil {
		fmt.Printf("\n [%s] %s\n", toast.Kind, toast.Message)
	}
}
