package combatlog

import (
	"time"
)

// RawEvent is the loosely typed envelope shared by every line in the combat
// log. Everything arrives as a string; typed values are produced by the
// per-family transformers. Field lookup through mapstructure is
// case-insensitive, which also covers the writer's matchID/matchid drift.
type RawEvent struct {
	EventType   string `mapstructure:"eventType"`
	Type        string `mapstructure:"type"`
	Time        string `mapstructure:"time"`
	SourceOwner string `mapstructure:"sourceowner"`
	TargetOwner string `mapstructure:"targetowner"`
	ItemID      string `mapstructure:"itemid"`
	ItemName    string `mapstructure:"itemname"`
	Value1      string `mapstructure:"value1"`
	Value2      string `mapstructure:"value2"`
	LocationX   string `mapstructure:"locationx"`
	LocationY   string `mapstructure:"locationy"`
	Text        string `mapstructure:"text"`
	MatchID     string `mapstructure:"matchid"`
	MapName     string `mapstructure:"mapname"`
	GameMode    string `mapstructure:"gamemode"`
}

// Line is one decoded log line along with its position in the source file.
type Line struct {
	Num    int
	Family EventFamily
	Raw    RawEvent
	// Fields keeps the original decoded object so unknown envelopes remain
	// retrievable for diagnostics.
	Fields map[string]any
}

// CombatEvent is the normalized form of a CombatMsg line.
type CombatEvent struct {
	MatchID   string
	EventTime time.Time
	// Offset is seconds from match start, filled once metadata is final.
	Offset    int
	Type      string
	Source    string
	Target    string
	Ability   string
	Damage    *int
	Mitigated *int
	LocX      *float64
	LocY      *float64
	Text      string
}

// RewardEvent is the normalized form of a RewardMsg line.
type RewardEvent struct {
	MatchID    string
	EventTime  time.Time
	Offset     int
	Type       string
	Entity     string
	Amount     *int
	SourceType string
	LocX       *float64
	LocY       *float64
	Text       string
}

// ItemEvent is the normalized form of an itemmsg line.
type ItemEvent struct {
	MatchID   string
	EventTime time.Time
	Offset    int
	Type      string
	Player    string
	ItemID    *int
	ItemName  string
	Cost      *int
	LocX      *float64
	LocY      *float64
	Text      string
}

// PlayerEvent is the normalized form of a playermsg line.
type PlayerEvent struct {
	MatchID   string
	EventTime time.Time
	Offset    int
	Type      string
	Player    string
	Team      Team
	Value     string
	ItemID    *int
	ItemName  string
	LocX      *float64
	LocY      *float64
	Text      string
}

// Entity is one named actor seen anywhere in the log.
type Entity struct {
	Name string
	Type EntityType
	Team Team
	// TeamKnown distinguishes a resolved neutral side from an ambiguous one;
	// ambiguous teams persist as NULL rather than a guess.
	TeamKnown bool
}

// Player is a roster entry. Role and god stay empty for players that never
// emitted a RoleAssigned/GodPicked event but still appeared in combat.
type Player struct {
	Name    string
	Team    Team
	Role    string
	GodID   *int
	GodName string
}

// PlayerStat is the wholly derived per-player stat row. Recomputed from the
// normalized events on every run; identical input yields identical values.
type PlayerStat struct {
	MatchID          string
	Player           string
	Team             Team
	Kills            int
	Deaths           int
	Assists          int
	DamageDealt      int
	DamageTaken      int
	DamageMitigated  int
	HealingDone      int
	StructureDamage  int
	GoldEarned       int
	ExperienceEarned int
	CCTimeInflicted  int
}

// TimelineCategory buckets curated timeline events. Priority resolves
// ordering ties between events sharing a timestamp.
type TimelineCategory int

const (
	CategoryMilestone TimelineCategory = 1
	CategoryEconomy   TimelineCategory = 2
	CategoryCombat    TimelineCategory = 3
	CategoryObjective TimelineCategory = 4
)

func (c TimelineCategory) String() string {
	switch c {
	case CategoryObjective:
		return "objective"
	case CategoryCombat:
		return "combat"
	case CategoryEconomy:
		return "economy"
	default:
		return "milestone"
	}
}

// Importance bounds for timeline events.
const (
	ImportanceMin = 1
	ImportanceMax = 10
)

// TimelineEvent is one curated moment of the match narrative.
type TimelineEvent struct {
	MatchID     string
	EventTime   time.Time
	Offset      int
	Category    TimelineCategory
	Importance  int
	Team        Team
	Entity      string
	Target      string
	Value       int
	Assists     []string
	Description string
}

// MatchInfo is the per-file match metadata.
type MatchInfo struct {
	MatchID    string
	SourceFile string
	MapName    string
	GameMode   string
	Start      time.Time
	End        time.Time
	// Duration in whole seconds; zero when no timestamp parsed at all.
	Duration int
}

// Ability is a lookup row for an ability identifier observed in combat.
type Ability struct {
	MatchID string
	Name    string
	Source  string
}

// Item is a lookup row for an item identifier observed in purchases.
type Item struct {
	MatchID string
	ItemID  int
	Name    string
}

// Summary reports what a run read, dropped and produced. A run with nonzero
// drop counts is still a successful run; callers judge completeness from it.
type Summary struct {
	LinesRead    int
	LinesSkipped int

	DroppedCombat int
	DroppedReward int
	DroppedItem   int
	DroppedPlayer int
	UnknownEvents int

	Players        int
	Entities       int
	CombatEvents   int
	RewardEvents   int
	ItemEvents     int
	PlayerEvents   int
	PlayerStats    int
	TimelineEvents int
}

// Result is the complete output of one engine run over one log file, ready to
// hand to the persistence gateway as a unit.
type Result struct {
	Info      MatchInfo
	Players   []Player
	Entities  []Entity
	Abilities []Ability
	Items     []Item

	Combat   []CombatEvent
	Rewards  []RewardEvent
	ItemEv   []ItemEvent
	PlayerEv []PlayerEvent

	Stats    []PlayerStat
	Timeline []TimelineEvent

	Summary Summary
}
