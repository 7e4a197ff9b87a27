package combatlog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Objective importance per class. Lesser structures rank below the
// match-ending ones; jungle bosses sit in between.
const (
	importanceKillBase  = 5
	importanceTower     = 6
	importancePhoenix   = 8
	importanceTitan     = 10
	importanceGoldFury  = 5
	importanceFireGiant = 7
	importancePurchase  = 3
	importanceSpike     = 2
)

// jungleBossMarkers are the neutral objectives worth a timeline entry, as
// opposed to ordinary jungle camps.
var jungleBossMarkers = []string{"fire giant", "firegiant", "gold fury", "goldfury"}

// curator assembles the curated timeline from the tracker's kill records and
// the normalized event streams. Each pass is independent and only appends.
type curator struct {
	conf     Config
	info     MatchInfo
	registry *EntityRegistry
	roster   map[string]Team
	events   []TimelineEvent
}

func newCurator(conf Config, info MatchInfo, registry *EntityRegistry, players []Player) *curator {
	roster := map[string]Team{}
	for _, player := range players {
		roster[player.Name] = player.Team
	}

	return &curator{conf: conf, info: info, registry: registry, roster: roster}
}

func clampImportance(value int) int {
	if value < ImportanceMin {
		return ImportanceMin
	}

	if value > ImportanceMax {
		return ImportanceMax
	}

	return value
}

// earlyGame reports whether a moment falls in the opening third of the match.
func (c *curator) earlyGame(at time.Time) bool {
	if c.info.Duration <= 0 {
		return false
	}

	cutoff := c.info.Start.Add(time.Duration(c.info.Duration/3) * time.Second)

	return at.Before(cutoff)
}

func (c *curator) append(event TimelineEvent) {
	event.MatchID = c.info.MatchID
	event.Importance = clampImportance(event.Importance)
	c.events = append(c.events, event)
}

// killPass emits one combat entry per killing blow on a player, importance
// raised by each credited assist.
func (c *curator) killPass(kills []KillRecord) {
	for _, kill := range kills {
		if _, victimIsPlayer := c.roster[kill.Victim]; !victimIsPlayer {
			continue
		}

		killerTeam := c.roster[kill.Killer]

		c.append(TimelineEvent{
			EventTime:   kill.Event.EventTime,
			Category:    CategoryCombat,
			Importance:  importanceKillBase + len(kill.Assists),
			Team:        killerTeam,
			Entity:      kill.Killer,
			Target:      kill.Victim,
			Value:       len(kill.Assists),
			Assists:     kill.Assists,
			Description: fmt.Sprintf("%s killed %s", kill.Killer, kill.Victim),
		})
	}
}

// objectivePass emits structure destructions and jungle boss takedowns with a
// fixed importance per objective class.
func (c *curator) objectivePass(kills []KillRecord) {
	for _, kill := range kills {
		target := c.registry.Get(kill.Victim)
		if target == nil {
			continue
		}

		importance, matched := objectiveImportance(target)
		if !matched {
			continue
		}

		c.append(TimelineEvent{
			EventTime:   kill.Event.EventTime,
			Category:    CategoryObjective,
			Importance:  importance,
			Team:        c.roster[kill.Killer],
			Entity:      kill.Killer,
			Target:      kill.Victim,
			Description: fmt.Sprintf("%s destroyed %s", kill.Killer, kill.Victim),
		})
	}
}

func objectiveImportance(entity *Entity) (int, bool) {
	lower := strings.ToLower(entity.Name)

	if entity.Type == EntityObjective {
		switch {
		case strings.Contains(lower, "titan"):
			return importanceTitan, true
		case strings.Contains(lower, "phoenix"):
			return importancePhoenix, true
		default:
			return importanceTower, true
		}
	}

	if entity.Type == EntityJungle {
		for _, marker := range jungleBossMarkers {
			if strings.Contains(lower, marker) {
				if strings.Contains(marker, "giant") {
					return importanceFireGiant, true
				}

				return importanceGoldFury, true
			}
		}
	}

	return 0, false
}

// economyPass emits high-value purchases and reward spikes. Purchase weight
// shifts with game stage; an early power spike matters more than a late
// routine buy.
func (c *curator) economyPass(items []ItemEvent, rewards []RewardEvent) {
	for _, item := range items {
		if item.Cost == nil || *item.Cost < c.conf.ItemCostMilestone {
			continue
		}

		importance := importancePurchase
		if c.earlyGame(item.EventTime) {
			importance++
		}

		c.append(TimelineEvent{
			EventTime:   item.EventTime,
			Category:    CategoryEconomy,
			Importance:  importance,
			Team:        c.roster[item.Player],
			Entity:      item.Player,
			Value:       *item.Cost,
			Description: fmt.Sprintf("%s purchased %s", item.Player, item.ItemName),
		})
	}

	for _, reward := range rewards {
		if reward.Amount == nil || *reward.Amount < c.conf.RewardSpikeThreshold {
			continue
		}

		if _, isPlayer := c.roster[reward.Entity]; !isPlayer {
			continue
		}

		c.append(TimelineEvent{
			EventTime:   reward.EventTime,
			Category:    CategoryMilestone,
			Importance:  importanceSpike,
			Team:        c.roster[reward.Entity],
			Entity:      reward.Entity,
			Value:       *reward.Amount,
			Description: fmt.Sprintf("%s earned %d %s", reward.Entity, *reward.Amount, strings.ToLower(reward.Type)),
		})
	}
}

// finalize orders the collection by timestamp ascending, ties broken by
// category priority (objective > combat > economy > milestone).
func (c *curator) finalize() []TimelineEvent {
	sort.SliceStable(c.events, func(i, j int) bool {
		if !c.events[i].EventTime.Equal(c.events[j].EventTime) {
			return c.events[i].EventTime.Before(c.events[j].EventTime)
		}

		return c.events[i].Category > c.events[j].Category
	})

	return c.events
}
