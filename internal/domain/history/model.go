package history

import (
	"fmt"
	"time"
)

// Match is a finished match kept for analytics. Rows are create-only: a
// duplicate external id is skipped, never updated.
type Match struct {
	ExternalID string
	// TeamIDs are the participants' external ids; at least two are required.
	TeamIDs  []int64
	WinnerID int64
	PlayedAt time.Time
	// Tournament may be empty.
	Tournament string
	SyncedAt   time.Time
}

func (m Match) Validate() error {
	if m.ExternalID == "" {
		return fmt.Errorf("historical match external id is required")
	}
	if len(m.TeamIDs) < 2 {
		return fmt.Errorf("historical match requires at least two teams")
	}
	if m.WinnerID <= 0 {
		return fmt.Errorf("historical match winner is required")
	}
	if !m.HasParticipant(m.WinnerID) {
		return fmt.Errorf("historical match winner %d is not a participant", m.WinnerID)
	}
	if m.PlayedAt.IsZero() {
		return fmt.Errorf("historical match played_at is required")
	}

	return nil
}

func (m Match) HasParticipant(teamExternalID int64) bool {
	for _, id := range m.TeamIDs {
		if id == teamExternalID {
			return true
		}
	}
	return false
}
