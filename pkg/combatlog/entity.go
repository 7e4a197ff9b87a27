package combatlog

import (
	"sort"
	"strings"
)

// Lexical patterns for non-roster entity classification. These track the
// names the SMITE log writer actually emits; an unmatched name stays unknown
// until combat participation demotes it to minion.
var (
	objectiveMarkers = []string{"tower", "phoenix", "titan"}

	minionMarkers = []string{"archer", "brute", "swordsman", "champion"}

	jungleMarkers = []string{
		"fury", "pyromancer", "harpy", "satyr", "cyclops", "chimera",
		"manticore", "centaur", "naga", "minotaur", "scorpion", "giant",
	}
)

// EntityRegistry holds exactly one Entity per distinct name within a match.
// Classification only moves toward more specific types; an ambiguous team is
// recorded as unknown rather than guessed.
type EntityRegistry struct {
	entities map[string]*Entity
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{entities: map[string]*Entity{}}
}

// Observe registers a name if unseen and applies lexical classification.
func (r *EntityRegistry) Observe(name string) *Entity {
	if name == "" {
		return nil
	}

	entity, found := r.entities[name]
	if !found {
		entity = &Entity{Name: name}
		r.entities[name] = entity
		r.classify(entity)
	}

	return entity
}

// PromotePlayer marks a roster member. Roster membership outranks every
// lexical rule.
func (r *EntityRegistry) PromotePlayer(name string, team Team) {
	entity := r.Observe(name)
	if entity == nil {
		return
	}

	entity.Type = EntityPlayer

	if team != TeamNone {
		entity.Team = team
		entity.TeamKnown = true
	}
}

// ObserveCombatant registers a combat source/target. A name with no stronger
// signal that only ever shows up in combat is taken to be a lane minion.
func (r *EntityRegistry) ObserveCombatant(name string) {
	entity := r.Observe(name)
	if entity == nil {
		return
	}

	if entity.Type == EntityUnknown {
		entity.Type = EntityMinion
	}
}

func (r *EntityRegistry) classify(entity *Entity) {
	lower := strings.ToLower(entity.Name)

	for _, marker := range objectiveMarkers {
		if strings.Contains(lower, marker) {
			entity.Type = EntityObjective
			entity.Team, entity.TeamKnown = sideFromName(lower)

			return
		}
	}

	for _, marker := range jungleMarkers {
		if strings.Contains(lower, marker) {
			// Jungle camps are neutral; TeamNone here is a resolved value,
			// not a gap.
			entity.Type = EntityJungle
			entity.Team = TeamNone
			entity.TeamKnown = true

			return
		}
	}

	for _, marker := range minionMarkers {
		if strings.Contains(lower, marker) {
			entity.Type = EntityMinion
			entity.Team, entity.TeamKnown = sideFromName(lower)

			return
		}
	}
}

// sideFromName infers the side from Order/Chaos naming markers. Anything
// ambiguous stays unresolved.
func sideFromName(lower string) (Team, bool) {
	switch {
	case strings.Contains(lower, "order"):
		return Order, true
	case strings.Contains(lower, "chaos"):
		return Chaos, true
	default:
		return TeamNone, false
	}
}

// Get returns the entity for a name, or nil when unseen.
func (r *EntityRegistry) Get(name string) *Entity {
	return r.entities[name]
}

// Len returns the number of distinct names observed.
func (r *EntityRegistry) Len() int {
	return len(r.entities)
}

// All returns every entity ordered by name for deterministic output.
func (r *EntityRegistry) All() []Entity {
	entities := make([]Entity, 0, len(r.entities))
	for _, entity := range r.entities {
		entities = append(entities, *entity)
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Name < entities[j].Name
	})

	return entities
}
