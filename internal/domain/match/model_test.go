package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not_started": StatusScheduled,
		"Running":     StatusRunning,
		" finished ":  StatusFinished,
		"postponed":   StatusCanceled,
		"cancelled":   StatusCanceled,
		"canceled":    StatusCanceled,
		"":            StatusScheduled,
		"paused":      "paused",
	}
	for input, want := range cases {
		require.Equal(t, want, NormalizeStatus(input), "input %q", input)
	}
}

func TestIsKnownGame(t *testing.T) {
	t.Parallel()

	require.True(t, IsKnownGame("csgo"))
	require.True(t, IsKnownGame(" Dota2 "))
	require.True(t, IsKnownGame("valorant"))
	require.False(t, IsKnownGame("chess"))
	require.False(t, IsKnownGame(""))
}

func TestGameDisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Counter-Strike 2", GameDisplayName("csgo"))
	require.Equal(t, "Dota 2", GameDisplayName("dota2"))
	require.Equal(t, "Valorant", GameDisplayName("valorant"))
	require.Equal(t, "Unknown Game", GameDisplayName("chess"))
}
