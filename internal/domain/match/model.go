package match

import (
	"strings"
	"time"
)

// Provider status values for live/upcoming matches.
const (
	StatusScheduled = "not_started"
	StatusRunning   = "running"
	StatusFinished  = "finished"
	StatusCanceled  = "canceled"
)

// Supported game disciplines.
const (
	GameCSGO     = "csgo"
	GameDota2    = "dota2"
	GameValorant = "valorant"
)

// Match is a live or upcoming match. It is upserted by external id on every
// fetch cycle; fields may be overwritten as the event progresses.
type Match struct {
	ExternalID int64
	Name       string
	// Team ids stay nil until both opponents are announced.
	Team1ID    *int64
	Team2ID    *int64
	StartTime  time.Time
	Tournament string
	Status     string
	Game       string
	// NextMap is the next not-started map in the series, when known.
	NextMap  string
	SyncedAt time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case StatusScheduled, StatusRunning, StatusFinished, StatusCanceled:
		return status
	case "postponed", "cancelled":
		return StatusCanceled
	case "":
		return StatusScheduled
	default:
		return status
	}
}

func IsKnownGame(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case GameCSGO, GameDota2, GameValorant:
		return true
	default:
		return false
	}
}

func GameDisplayName(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case GameCSGO:
		return "Counter-Strike 2"
	case GameDota2:
		return "Dota 2"
	case GameValorant:
		return "Valorant"
	default:
		return "Unknown Game"
	}
}
