package combatlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var trackerBase = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func trackerRoster() []Player {
	return []Player{
		{Name: "Alice", Team: Order},
		{Name: "Bob", Team: Order},
		{Name: "Carol", Team: Order},
		{Name: "Dave", Team: Chaos},
		{Name: "Erin", Team: Chaos},
	}
}

func newTestTracker(conf Config) *Tracker {
	registry := NewEntityRegistry()
	for _, player := range trackerRoster() {
		registry.PromotePlayer(player.Name, player.Team)
	}

	return NewTracker(conf, "m-test", trackerRoster(), registry)
}

func damageEvent(source string, target string, amount int, at time.Time) CombatEvent {
	return CombatEvent{
		MatchID:   "m-test",
		EventTime: at,
		Type:      "Damage",
		Source:    source,
		Target:    target,
		Damage:    &amount,
	}
}

func killEvent(source string, target string, at time.Time) CombatEvent {
	return CombatEvent{
		MatchID:   "m-test",
		EventTime: at,
		Type:      "KillingBlow",
		Source:    source,
		Target:    target,
	}
}

func statFor(t *testing.T, stats []PlayerStat, name string) PlayerStat {
	t.Helper()

	for _, stat := range stats {
		if stat.Player == name {
			return stat
		}
	}

	t.Fatalf("no stat row for %s", name)

	return PlayerStat{}
}

func TestAssistBelowThreshold(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	// Damage inside the window but below the significance threshold earns
	// nothing.
	tracker.ApplyCombat(damageEvent("Alice", "Dave", 80, trackerBase.Add(10*time.Second)))
	tracker.ApplyCombat(damageEvent("Bob", "Dave", 20, trackerBase.Add(18*time.Second)))
	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	stats := tracker.Stats()
	require.Equal(t, 1, statFor(t, stats, "Alice").Kills)
	require.Equal(t, 0, statFor(t, stats, "Alice").Assists)
	require.Equal(t, 0, statFor(t, stats, "Bob").Assists)
	require.Equal(t, 1, statFor(t, stats, "Dave").Deaths)
}

func TestAssistCumulativeInsideWindow(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	// Two hits of 30 accumulate past the threshold inside one window.
	tracker.ApplyCombat(damageEvent("Bob", "Dave", 30, trackerBase.Add(12*time.Second)))
	tracker.ApplyCombat(damageEvent("Bob", "Dave", 30, trackerBase.Add(16*time.Second)))
	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	stats := tracker.Stats()
	require.Equal(t, 1, statFor(t, stats, "Bob").Assists)

	kills := tracker.Kills()
	require.Len(t, kills, 1)
	require.Equal(t, []string{"Bob"}, kills[0].Assists)
}

func TestAssistWindowExcludesOldDamage(t *testing.T) {
	conf := NewConfig()
	tracker := newTestTracker(conf)

	// 200 damage dealt just before the window opens counts for nothing.
	tracker.ApplyCombat(damageEvent("Bob", "Dave", 200, trackerBase.Add(5*time.Second)))
	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	require.Equal(t, 0, statFor(t, tracker.Stats(), "Bob").Assists)

	// The boundary itself is inclusive.
	boundary := newTestTracker(conf)
	boundary.ApplyCombat(damageEvent("Bob", "Dave", 200, trackerBase.Add(10*time.Second)))
	boundary.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	require.Equal(t, 1, statFor(t, boundary.Stats(), "Bob").Assists)
}

func TestAssistExcludesKillerAndVictim(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	tracker.ApplyCombat(damageEvent("Alice", "Dave", 500, trackerBase.Add(15*time.Second)))
	tracker.ApplyCombat(damageEvent("Dave", "Dave", 500, trackerBase.Add(16*time.Second)))
	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	kills := tracker.Kills()
	require.Len(t, kills, 1)
	require.Empty(t, kills[0].Assists)
}

func TestAssistExcludesNonRosterAttackers(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	tracker.ApplyCombat(damageEvent("Archer Minion", "Dave", 999, trackerBase.Add(15*time.Second)))
	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(20*time.Second)))

	kills := tracker.Kills()
	require.Len(t, kills, 1)
	require.Empty(t, kills[0].Assists)
}

func TestAssistListSorted(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	tracker.ApplyCombat(damageEvent("Erin", "Bob", 100, trackerBase.Add(14*time.Second)))
	tracker.ApplyCombat(damageEvent("Dave", "Bob", 100, trackerBase.Add(15*time.Second)))
	tracker.ApplyCombat(killEvent("Carol", "Bob", trackerBase.Add(20*time.Second)))

	kills := tracker.Kills()
	require.Len(t, kills, 1)
	require.Equal(t, []string{"Dave", "Erin"}, kills[0].Assists)
}

func TestKillsEqualDeaths(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	tracker.ApplyCombat(killEvent("Alice", "Dave", trackerBase.Add(60*time.Second)))
	tracker.ApplyCombat(killEvent("Dave", "Alice", trackerBase.Add(90*time.Second)))
	tracker.ApplyCombat(killEvent("Erin", "Bob", trackerBase.Add(120*time.Second)))
	// Suicide credits both sides.
	tracker.ApplyCombat(killEvent("Carol", "Carol", trackerBase.Add(150*time.Second)))

	var kills, deaths int

	for _, stat := range tracker.Stats() {
		kills += stat.Kills
		deaths += stat.Deaths
	}

	require.Equal(t, 4, kills)
	require.Equal(t, kills, deaths)
}

func TestStructureDamageSeparated(t *testing.T) {
	registry := NewEntityRegistry()
	registry.PromotePlayer("Alice", Order)
	registry.Observe("Chaos Tower 1")

	tracker := NewTracker(NewConfig(), "m-test", []Player{{Name: "Alice", Team: Order}}, registry)

	tracker.ApplyCombat(damageEvent("Alice", "Chaos Tower 1", 450, trackerBase))
	tracker.ApplyCombat(damageEvent("Alice", "Chaos Tower 1", 50, trackerBase.Add(time.Second)))

	stat := statFor(t, tracker.Stats(), "Alice")
	require.Equal(t, 500, stat.DamageDealt)
	require.Equal(t, 500, stat.StructureDamage)
}

func TestHealingAndCrowdControl(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	heal := 240
	tracker.ApplyCombat(CombatEvent{
		EventTime: trackerBase, Type: "Healing", Source: "Carol", Target: "Alice", Damage: &heal,
	})

	stun := 2
	tracker.ApplyCombat(CombatEvent{
		EventTime: trackerBase, Type: "CrowdControl", Source: "Dave", Target: "Bob", Damage: &stun,
	})

	stats := tracker.Stats()
	require.Equal(t, 240, statFor(t, stats, "Carol").HealingDone)
	require.Equal(t, 2, statFor(t, stats, "Dave").CCTimeInflicted)
}

func TestRewardAccumulation(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	gold := 300
	xp := 120

	tracker.ApplyReward(RewardEvent{EventTime: trackerBase, Type: "Currency", Entity: "Alice", Amount: &gold})
	tracker.ApplyReward(RewardEvent{EventTime: trackerBase, Type: "Experience", Entity: "Alice", Amount: &xp})
	// Rewards to non-roster entities are ignored.
	tracker.ApplyReward(RewardEvent{EventTime: trackerBase, Type: "Currency", Entity: "Gold Fury", Amount: &gold})

	stat := statFor(t, tracker.Stats(), "Alice")
	require.Equal(t, 300, stat.GoldEarned)
	require.Equal(t, 120, stat.ExperienceEarned)
}

func TestStatsDeterministic(t *testing.T) {
	run := func() []PlayerStat {
		tracker := newTestTracker(NewConfig())
		tracker.ApplyCombat(damageEvent("Alice", "Dave", 80, trackerBase.Add(10*time.Second)))
		tracker.ApplyCombat(damageEvent("Bob", "Dave", 60, trackerBase.Add(12*time.Second)))
		tracker.ApplyCombat(killEvent("Carol", "Dave", trackerBase.Add(19*time.Second)))

		return tracker.Stats()
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
}

func TestEveryRosterPlayerGetsRow(t *testing.T) {
	tracker := newTestTracker(NewConfig())

	stats := tracker.Stats()
	require.Len(t, stats, 5)

	for _, stat := range stats {
		require.Equal(t, "m-test", stat.MatchID)
		require.Zero(t, stat.Kills)
	}
}
