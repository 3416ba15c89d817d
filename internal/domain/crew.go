package domain

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// Crew is a named collection of members sharing live location visibility.
// Crews are created once and never mutated; abandoned crews persist
// indefinitely (garbage collection is an explicit non-goal).
type Crew struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Word lists for human-memorable crew IDs. Short on purpose: the ID is meant
// to be read over a radio or typed on a phone keyboard in a field.
var (
	crewAdjectives = []string{"quick", "blue", "green", "happy", "fast", "silent"}
	crewNouns      = []string{"river", "truck", "field", "squad", "unit", "crew"}
)

// crewIDPattern matches IDs produced by NewCrewID. Used to validate
// caller-supplied IDs on the server side.
var crewIDPattern = regexp.MustCompile(`^[a-z]+-[a-z]+-\d{3}$`)

// NewCrewID returns a fresh crew ID of the form <adjective>-<noun>-<3 digits>,
// e.g. "quick-river-482". Collisions are possible; callers that care check
// for ErrConflict on insert and retry with a new ID.
func NewCrewID() string {
	adj := crewAdjectives[rand.Intn(len(crewAdjectives))]
	noun := crewNouns[rand.Intn(len(crewNouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, rand.Intn(900)+100)
}

// ValidCrewID reports whether id has the shape produced by NewCrewID.
func ValidCrewID(id string) bool {
	return crewIDPattern.MatchString(id)
}
