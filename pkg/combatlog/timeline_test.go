package combatlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCurator(duration int) (*curator, *EntityRegistry) {
	registry := NewEntityRegistry()

	players := []Player{
		{Name: "Alice", Team: Order},
		{Name: "Bob", Team: Order},
		{Name: "Dave", Team: Chaos},
	}
	for _, player := range players {
		registry.PromotePlayer(player.Name, player.Team)
	}

	info := MatchInfo{
		MatchID:  "m-test",
		Start:    trackerBase,
		End:      trackerBase.Add(time.Duration(duration) * time.Second),
		Duration: duration,
	}

	return newCurator(NewConfig(), info, registry, players), registry
}

func TestTimelineKillImportance(t *testing.T) {
	cur, _ := testCurator(1800)

	cur.killPass([]KillRecord{
		{
			Event:  killEvent("Alice", "Dave", trackerBase.Add(300*time.Second)),
			Killer: "Alice", Victim: "Dave",
		},
		{
			Event:  killEvent("Dave", "Bob", trackerBase.Add(600*time.Second)),
			Killer: "Dave", Victim: "Bob",
			Assists: []string{"Erin", "Frank"},
		},
	})

	events := cur.finalize()
	require.Len(t, events, 2)

	require.Equal(t, CategoryCombat, events[0].Category)
	require.Equal(t, 5, events[0].Importance)
	require.Equal(t, Order, events[0].Team)
	require.Equal(t, "Alice killed Dave", events[0].Description)

	require.Equal(t, 7, events[1].Importance)
	require.Equal(t, 2, events[1].Value)
	require.Equal(t, "m-test", events[1].MatchID)
}

func TestTimelineSkipsNonPlayerVictims(t *testing.T) {
	cur, registry := testCurator(1800)
	registry.Observe("Archer Minion")

	cur.killPass([]KillRecord{{
		Event:  killEvent("Alice", "Archer Minion", trackerBase.Add(60*time.Second)),
		Killer: "Alice", Victim: "Archer Minion",
	}})

	require.Empty(t, cur.finalize())
}

func TestTimelineObjectiveImportance(t *testing.T) {
	cur, registry := testCurator(1800)

	names := []string{"Chaos Tower 1", "Chaos Phoenix Mid", "Chaos Titan", "Gold Fury", "Fire Giant"}
	for _, name := range names {
		registry.Observe(name)
	}

	var kills []KillRecord
	for i, name := range names {
		kills = append(kills, KillRecord{
			Event:  killEvent("Alice", name, trackerBase.Add(time.Duration(i)*time.Minute)),
			Killer: "Alice", Victim: name,
		})
	}

	cur.objectivePass(kills)

	events := cur.finalize()
	require.Len(t, events, 5)
	require.Equal(t, 6, events[0].Importance)  // tower
	require.Equal(t, 8, events[1].Importance)  // phoenix
	require.Equal(t, 10, events[2].Importance) // titan
	require.Equal(t, 5, events[3].Importance)  // gold fury
	require.Equal(t, 7, events[4].Importance)  // fire giant

	for _, event := range events {
		require.Equal(t, CategoryObjective, event.Category)
	}
}

func TestTimelineOrdinaryCampsSkipped(t *testing.T) {
	cur, registry := testCurator(1800)
	registry.Observe("Mid Harpy")

	cur.objectivePass([]KillRecord{{
		Event:  killEvent("Alice", "Mid Harpy", trackerBase.Add(60*time.Second)),
		Killer: "Alice", Victim: "Mid Harpy",
	}})

	require.Empty(t, cur.finalize())
}

func TestTimelineEconomyThresholds(t *testing.T) {
	cur, _ := testCurator(1800)

	cheap := 900
	late := 2750
	early := 2750

	cur.economyPass([]ItemEvent{
		{EventTime: trackerBase.Add(60 * time.Second), Player: "Alice", ItemName: "Boots", Cost: &cheap},
		{EventTime: trackerBase.Add(120 * time.Second), Player: "Alice", ItemName: "Rage", Cost: &early},
		{EventTime: trackerBase.Add(1500 * time.Second), Player: "Bob", ItemName: "Deathbringer", Cost: &late},
	}, nil)

	events := cur.finalize()
	require.Len(t, events, 2)

	// Early game buys weigh one more than the same purchase later on.
	require.Equal(t, 4, events[0].Importance)
	require.Equal(t, "Alice purchased Rage", events[0].Description)
	require.Equal(t, 3, events[1].Importance)
}

func TestTimelineRewardSpikes(t *testing.T) {
	cur, _ := testCurator(1800)

	spike := 600
	small := 499
	neutral := 900

	cur.economyPass(nil, []RewardEvent{
		{EventTime: trackerBase.Add(100 * time.Second), Type: "Currency", Entity: "Alice", Amount: &spike},
		{EventTime: trackerBase.Add(110 * time.Second), Type: "Currency", Entity: "Alice", Amount: &small},
		{EventTime: trackerBase.Add(120 * time.Second), Type: "Currency", Entity: "Gold Fury", Amount: &neutral},
	})

	events := cur.finalize()
	require.Len(t, events, 1)
	require.Equal(t, CategoryMilestone, events[0].Category)
	require.Equal(t, 2, events[0].Importance)
	require.Equal(t, 600, events[0].Value)
}

func TestTimelineOrderingAndTies(t *testing.T) {
	cur, registry := testCurator(1800)
	registry.Observe("Chaos Tower 1")

	at := trackerBase.Add(500 * time.Second)
	cost := 2500

	// Same instant: the objective outranks the kill outranks the purchase.
	cur.economyPass([]ItemEvent{
		{EventTime: at, Player: "Alice", ItemName: "Rage", Cost: &cost},
	}, nil)
	cur.killPass([]KillRecord{{
		Event:  killEvent("Alice", "Dave", at),
		Killer: "Alice", Victim: "Dave",
	}})
	cur.objectivePass([]KillRecord{{
		Event:  killEvent("Alice", "Chaos Tower 1", at),
		Killer: "Alice", Victim: "Chaos Tower 1",
	}})

	events := cur.finalize()
	require.Len(t, events, 3)
	require.Equal(t, CategoryObjective, events[0].Category)
	require.Equal(t, CategoryCombat, events[1].Category)
	require.Equal(t, CategoryEconomy, events[2].Category)
}

func TestTimelineImportanceClamped(t *testing.T) {
	cur, _ := testCurator(1800)

	assists := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	cur.killPass([]KillRecord{{
		Event:  killEvent("Alice", "Dave", trackerBase.Add(60*time.Second)),
		Killer: "Alice", Victim: "Dave",
		Assists: assists,
	}})

	events := cur.finalize()
	require.Len(t, events, 1)
	require.Equal(t, ImportanceMax, events[0].Importance)
}
