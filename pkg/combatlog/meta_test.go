package combatlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectMetadataSniffsMapAndMode(t *testing.T) {
	lines := []Line{
		{Num: 1, Family: MatchStart, Raw: RawEvent{
			Time: "2025.05.01-12.00.00",
			Text: "Entering CONQUEST map, ranked queue",
		}},
		{Num: 2, Family: CombatMsg, Raw: RawEvent{
			Time: "2025.05.01-12.30.00", SourceOwner: "a", TargetOwner: "b",
		}},
	}

	meta := collectMetadata(lines)
	info := meta.info("somefile")

	require.Equal(t, "Conquest", info.MapName)
	require.Equal(t, "Ranked", info.GameMode)
	require.Equal(t, "match-somefile", info.MatchID)
	require.Equal(t, 1800, info.Duration)
}

func TestCollectMetadataExplicitFieldsWin(t *testing.T) {
	lines := []Line{
		{Num: 1, Family: MatchStart, Raw: RawEvent{
			Time:     "2025.05.01-12.00.00",
			MatchID:  "m-1",
			MapName:  "Joust",
			GameMode: "Custom",
			Text:     "arena casual",
		}},
		// Later values never overwrite the first ones seen.
		{Num: 2, Family: MatchStart, Raw: RawEvent{
			Time:    "2025.05.01-12.00.01",
			MatchID: "m-2",
			MapName: "Siege",
		}},
	}

	meta := collectMetadata(lines)
	info := meta.info("somefile")

	require.Equal(t, "m-1", info.MatchID)
	require.Equal(t, "Joust", info.MapName)
	require.Equal(t, "Custom", info.GameMode)
}

func TestCollectMetadataTimestampBounds(t *testing.T) {
	// Out of order timestamps still resolve to min and max.
	lines := []Line{
		{Num: 1, Family: CombatMsg, Raw: RawEvent{Time: "2025.05.01-12.10.00"}},
		{Num: 2, Family: CombatMsg, Raw: RawEvent{Time: "2025.05.01-12.05.00"}},
		{Num: 3, Family: CombatMsg, Raw: RawEvent{Time: "2025.05.01-12.45.30"}},
	}

	meta := collectMetadata(lines)
	info := meta.info("f")

	require.Equal(t, time.Date(2025, 5, 1, 12, 5, 0, 0, time.UTC), info.Start)
	require.Equal(t, time.Date(2025, 5, 1, 12, 45, 30, 0, time.UTC), info.End)
}

func TestCollectMetadataNoTimestamps(t *testing.T) {
	meta := collectMetadata([]Line{{Num: 1, Family: CombatMsg, Raw: RawEvent{}}})
	info := meta.info("f")

	require.True(t, info.Start.IsZero())
	require.Zero(t, info.Duration)
}
