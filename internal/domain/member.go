// Package domain contains the core data types for Crewlink.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler, store, crew).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Member is one participant's identity, display attributes, and latest known
// position within a crew. The member row is collectively owned by the
// membership store; clients hold read-only snapshots.
type Member struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name,omitempty"`
	Color           string     `json:"color"`
	CurrentLocation Location   `json:"current_location"`
	Path            []Location `json:"path"` // past positions, kept for future replay
	Speed           float64    `json:"speed"` // meters per second, never negative
	LastUpdate      time.Time  `json:"last_update"`
}

// Staleness buckets a member's age since last update into the label shown
// next to the member in the crew panel: "just now" under 5 seconds, whole
// seconds under a minute, whole minutes beyond that.
func Staleness(now, lastUpdate time.Time) string {
	age := now.Sub(lastUpdate)
	switch {
	case age < 5*time.Second:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	default:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
}
