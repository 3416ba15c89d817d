package domain

import "github.com/google/uuid"

// Session records which crew and member this device currently is. Exactly one
// session is active per device at a time; it is created on join/create,
// persisted locally, and cleared on leave or when the persisted record turns
// out to be corrupt.
type Session struct {
	CrewID string `json:"crew_id"`
	Member Member `json:"member"`
}

// Valid reports whether a persisted session carries enough to be restored:
// a non-empty crew ID and a non-empty member ID. Anything less is discarded
// rather than used, so the store is never queried with an empty crew ID.
func (s *Session) Valid() bool {
	return s != nil && s.CrewID != "" && s.Member.ID != uuid.Nil
}
