package combatlog

import (
	"sort"
	"time"
)

// damageHit is one entry in the per-victim damage log used for assist
// attribution. The log is append-only and time-ordered because events are
// applied in original line order.
type damageHit struct {
	Attacker string
	Amount   int
	At       time.Time
}

// KillRecord is one killing blow with its credited assists, kept for the
// timeline kill pass so assist credit is computed exactly once.
type KillRecord struct {
	Event   CombatEvent
	Killer  string
	Victim  string
	Assists []string
}

// Tracker folds the normalized combat and reward streams into one PlayerStat
// per roster player. It carries no state between runs: recomputing over the
// same event set yields identical rows.
type Tracker struct {
	conf     Config
	matchID  string
	registry *EntityRegistry
	roster   map[string]Team
	sums     map[string]*PlayerStat
	// damageLog holds, per victim, every damage event against them. Entries
	// are only ever appended; assist attribution reads a trailing window.
	damageLog map[string][]damageHit
	kills     []KillRecord
}

// NewTracker builds a tracker over a known roster. Every roster player gets a
// stat row even if they emit no events at all.
func NewTracker(conf Config, matchID string, players []Player, registry *EntityRegistry) *Tracker {
	tracker := &Tracker{
		conf:      conf,
		matchID:   matchID,
		registry:  registry,
		roster:    map[string]Team{},
		sums:      map[string]*PlayerStat{},
		damageLog: map[string][]damageHit{},
	}

	for _, player := range players {
		tracker.roster[player.Name] = player.Team
		tracker.sums[player.Name] = &PlayerStat{
			MatchID: matchID,
			Player:  player.Name,
			Team:    player.Team,
		}
	}

	return tracker
}

func (t *Tracker) isPlayer(name string) bool {
	_, found := t.roster[name]

	return found
}

func (t *Tracker) sum(name string) *PlayerStat {
	return t.sums[name]
}

// ApplyCombat folds one combat event. Events must arrive in original line
// order; the assist window depends on it.
func (t *Tracker) ApplyCombat(event CombatEvent) {
	var combatType CombatType
	if !ParseCombatType(event.Type, &combatType) {
		return
	}

	amount := 0
	if event.Damage != nil {
		amount = *event.Damage
	}

	switch combatType {
	case Damage, CritDamage:
		t.applyDamage(event, amount)
	case Healing:
		if source := t.sum(event.Source); source != nil {
			source.HealingDone += amount
		}
	case CrowdControl:
		if source := t.sum(event.Source); source != nil {
			source.CCTimeInflicted += amount
		}
	case KillingBlow:
		t.applyKillingBlow(event)
	case CombatUnknown:
	}
}

func (t *Tracker) applyDamage(event CombatEvent, amount int) {
	if source := t.sum(event.Source); source != nil {
		source.DamageDealt += amount

		if target := t.registry.Get(event.Target); target != nil && target.Type == EntityObjective {
			source.StructureDamage += amount
		}
	}

	if target := t.sum(event.Target); target != nil {
		target.DamageTaken += amount

		if event.Mitigated != nil {
			target.DamageMitigated += *event.Mitigated
		}
	}

	t.damageLog[event.Target] = append(t.damageLog[event.Target], damageHit{
		Attacker: event.Source,
		Amount:   amount,
		At:       event.EventTime,
	})
}

func (t *Tracker) applyKillingBlow(event CombatEvent) {
	if target := t.sum(event.Target); target != nil {
		target.Deaths++
	}

	// Suicides credit both sides so kills and deaths stay balanced across
	// the match.
	if source := t.sum(event.Source); source != nil {
		source.Kills++
	}

	assists := t.creditAssists(event.Source, event.Target, event.EventTime)
	for _, assist := range assists {
		t.sums[assist].Assists++
	}

	t.kills = append(t.kills, KillRecord{
		Event:   event,
		Killer:  event.Source,
		Victim:  event.Target,
		Assists: assists,
	})
}

// creditAssists returns the distinct roster players, other than the killer
// and the victim, whose cumulative damage against the victim inside the
// trailing assist window reaches the significance threshold.
func (t *Tracker) creditAssists(killer string, victim string, at time.Time) []string {
	hits := t.damageLog[victim]
	if len(hits) == 0 {
		return nil
	}

	windowStart := at.Add(-t.conf.AssistWindow)
	totals := map[string]int{}

	for _, hit := range hits {
		if hit.At.Before(windowStart) || hit.At.After(at) {
			continue
		}

		if hit.Attacker == killer || hit.Attacker == victim {
			continue
		}

		if !t.isPlayer(hit.Attacker) {
			continue
		}

		totals[hit.Attacker] += hit.Amount
	}

	var assists []string

	for attacker, total := range totals {
		if total >= t.conf.AssistThreshold {
			assists = append(assists, attacker)
		}
	}

	sort.Strings(assists)

	return assists
}

// ApplyReward folds one reward event, filtered by reward subtype.
func (t *Tracker) ApplyReward(event RewardEvent) {
	sum := t.sum(event.Entity)
	if sum == nil {
		return
	}

	amount := 0
	if event.Amount != nil {
		amount = *event.Amount
	}

	var rewardType RewardType
	if !ParseRewardType(event.Type, &rewardType) {
		return
	}

	switch rewardType {
	case Currency:
		sum.GoldEarned += amount
	case Experience:
		sum.ExperienceEarned += amount
	case RewardUnknown:
	}
}

// Kills returns every killing blow with its credited assists, in apply order.
func (t *Tracker) Kills() []KillRecord {
	return t.kills
}

// Stats returns the final rows ordered by team then player name.
func (t *Tracker) Stats() []PlayerStat {
	stats := make([]PlayerStat, 0, len(t.sums))
	for _, sum := range t.sums {
		stats = append(stats, *sum)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Team != stats[j].Team {
			return stats[i].Team < stats[j].Team
		}

		return stats[i].Player < stats[j].Player
	})

	return stats
}
