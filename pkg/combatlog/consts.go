package combatlog

import "strings"

// EventFamily is the coarse classification of a raw log line, taken from the
// "eventType" envelope field.
type EventFamily int

const (
	// UnknownFamily is any envelope we cannot map. Lines are kept in raw form.
	UnknownFamily EventFamily = 0
	MatchStart    EventFamily = 1
	PlayerMsg     EventFamily = 10
	ItemMsg       EventFamily = 11
	CombatMsg     EventFamily = 12
	RewardMsg     EventFamily = 13
)

func (f EventFamily) String() string {
	switch f {
	case MatchStart:
		return "start"
	case PlayerMsg:
		return "playermsg"
	case ItemMsg:
		return "itemmsg"
	case CombatMsg:
		return "combatmsg"
	case RewardMsg:
		return "rewardmsg"
	default:
		return "unknown"
	}
}

// ParseEventFamily maps the eventType envelope value onto a family. The log
// writer is not consistent about casing ("CombatMsg" vs "itemmsg"), so the
// comparison is case-insensitive.
func ParseEventFamily(eventType string, family *EventFamily) bool {
	switch strings.ToLower(eventType) {
	case "start", "match":
		*family = MatchStart
	case "playermsg":
		*family = PlayerMsg
	case "itemmsg":
		*family = ItemMsg
	case "combatmsg":
		*family = CombatMsg
	case "rewardmsg":
		*family = RewardMsg
	default:
		return false
	}

	return true
}

// CombatType is the parsed combat event subtype. The raw subtype string is
// preserved on the normalized event; this enum exists for the stat fold.
type CombatType int

const (
	CombatUnknown CombatType = 0
	Damage        CombatType = 1
	CritDamage    CombatType = 2
	CrowdControl  CombatType = 3
	Healing       CombatType = 4
	// KillingBlow marks a target death, distinct from ordinary damage.
	KillingBlow CombatType = 5
)

// ParseCombatType maps raw subtypes onto CombatType. Older log vintages write
// "Kill" where newer ones write "KillingBlow"; both mark a death so that every
// kill has exactly one credited death regardless of log age.
func ParseCombatType(subtype string, combatType *CombatType) bool {
	switch strings.ToLower(subtype) {
	case "damage":
		*combatType = Damage
	case "critdamage":
		*combatType = CritDamage
	case "crowdcontrol":
		*combatType = CrowdControl
	case "healing", "heal":
		*combatType = Healing
	case "killingblow", "kill":
		*combatType = KillingBlow
	default:
		return false
	}

	return true
}

// RewardType is the parsed reward event subtype.
type RewardType int

const (
	RewardUnknown RewardType = 0
	Currency      RewardType = 1
	Experience    RewardType = 2
)

func ParseRewardType(subtype string, rewardType *RewardType) bool {
	switch strings.ToLower(subtype) {
	case "currency", "gold":
		*rewardType = Currency
	case "experience", "xp":
		*rewardType = Experience
	default:
		return false
	}

	return true
}

// Team is a side of the map. SMITE assigns 1 to the Order side and 2 to the
// Chaos side; neutral entities (jungle camps) carry TeamNone.
type Team int

const (
	TeamNone Team = 0
	Order    Team = 1
	Chaos    Team = 2
)

func (t Team) String() string {
	switch t {
	case Order:
		return "order"
	case Chaos:
		return "chaos"
	default:
		return "none"
	}
}

func ParseTeam(teamID int, team *Team) bool {
	switch teamID {
	case 1:
		*team = Order
	case 2:
		*team = Chaos
	default:
		return false
	}

	return true
}

// Spawn fountain coordinates per side. Player events that arrive without a
// location (role/god selection fires before the player spawns) are backfilled
// with these so spatial aggregation never sees a null player position.
var (
	spawnOrder = Pos{X: -10500.0, Y: 0.0}
	spawnChaos = Pos{X: 10500.0, Y: 0.0}
)

// SpawnPos returns the fixed fountain position for a side.
func SpawnPos(team Team) (Pos, bool) {
	switch team {
	case Order:
		return spawnOrder, true
	case Chaos:
		return spawnChaos, true
	default:
		return Pos{}, false
	}
}

// Pos is a position on the map. The combat log only carries x/y.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EntityType classifies a named actor. Classification upgrades monotonically
// as evidence accumulates and never regresses to a less specific type.
type EntityType int

const (
	EntityUnknown   EntityType = 0
	EntityMinion    EntityType = 1
	EntityJungle    EntityType = 2
	EntityObjective EntityType = 3
	EntityPlayer    EntityType = 4
)

func (e EntityType) String() string {
	switch e {
	case EntityPlayer:
		return "player"
	case EntityMinion:
		return "minion"
	case EntityJungle:
		return "jungle"
	case EntityObjective:
		return "objective"
	default:
		return "unknown"
	}
}
