package combatlog

import (
	"sort"
	"strings"
	"time"
)

// Map and game mode markers sniffed from event text when the start record
// does not carry them explicitly.
var (
	mapMarkers  = []string{"conquest", "joust", "arena", "assault", "clash", "siege"}
	modeMarkers = []string{"casual", "ranked", "custom", "tutorial", "practice"}
)

// rosterEntry accumulates what the player-message stream tells us about a
// roster member before the Player rows are built.
type rosterEntry struct {
	team    Team
	role    string
	godID   *int
	godName string
	// explicit is set by a RoleAssigned event; combat-only players stay false
	// and keep a null role.
	explicit bool
}

// metadata is the engine's first-pass accumulation over the classified lines.
type metadata struct {
	matchID  string
	mapName  string
	gameMode string
	start    time.Time
	end      time.Time
	roster   map[string]*rosterEntry
}

// collectMetadata walks every classified line once, resolving match identity,
// the observed timestamp bounds and the player roster. Start/end come from
// the full pass since some logs omit an end marker.
func collectMetadata(lines []Line) metadata {
	meta := metadata{roster: map[string]*rosterEntry{}}

	for _, line := range lines {
		raw := line.Raw

		if timestamp, parsedOk := ParseTimestamp(raw.Time); parsedOk {
			if meta.start.IsZero() || timestamp.Before(meta.start) {
				meta.start = timestamp
			}

			if meta.end.IsZero() || timestamp.After(meta.end) {
				meta.end = timestamp
			}
		}

		if raw.MatchID != "" && meta.matchID == "" {
			meta.matchID = raw.MatchID
		}

		if raw.MapName != "" && meta.mapName == "" {
			meta.mapName = raw.MapName
		}

		if raw.GameMode != "" && meta.gameMode == "" {
			meta.gameMode = raw.GameMode
		}

		if line.Family == PlayerMsg {
			meta.applyPlayerMsg(raw)
		}
	}

	// Fall back to text sniffing when no explicit map/mode field appeared.
	if meta.mapName == "" || meta.gameMode == "" {
		meta.sniffText(lines)
	}

	return meta
}

func (m *metadata) applyPlayerMsg(raw RawEvent) {
	if raw.SourceOwner == "" {
		return
	}

	switch raw.Type {
	case "RoleAssigned":
		entry := m.entry(raw.SourceOwner)
		entry.explicit = true
		entry.role = NormalizeRole(raw.ItemName)

		if teamID := convertInt(raw.Value1); teamID != nil {
			ParseTeam(*teamID, &entry.team)
		}
	case "GodPicked":
		entry := m.entry(raw.SourceOwner)
		entry.godID = convertInt(raw.ItemID)
		entry.godName = raw.ItemName
	}
}

func (m *metadata) entry(name string) *rosterEntry {
	entry, found := m.roster[name]
	if !found {
		entry = &rosterEntry{}
		m.roster[name] = entry
	}

	return entry
}

// registerCombatant adds a roster row for a player-looking name seen only in
// combat. Such players keep a null role and character but are never dropped.
func (m *metadata) registerCombatant(name string) {
	if _, found := m.roster[name]; !found {
		m.roster[name] = &rosterEntry{}
	}
}

func (m *metadata) sniffText(lines []Line) {
	for _, line := range lines {
		text := strings.ToLower(line.Raw.Text)
		if text == "" {
			continue
		}

		if m.mapName == "" {
			for _, marker := range mapMarkers {
				if strings.Contains(text, marker) {
					m.mapName = capitalize(marker)

					break
				}
			}
		}

		if m.gameMode == "" {
			for _, marker := range modeMarkers {
				if strings.Contains(text, marker) {
					m.gameMode = capitalize(marker)

					break
				}
			}
		}

		if m.mapName != "" && m.gameMode != "" {
			return
		}
	}
}

func capitalize(word string) string {
	if word == "" {
		return word
	}

	return strings.ToUpper(word[:1]) + word[1:]
}

// info finalizes the MatchInfo. Identity falls back to a value derived from
// the source filename when the log carried no explicit match identifier.
func (m *metadata) info(sourceFile string) MatchInfo {
	matchID := m.matchID
	if matchID == "" {
		matchID = "match-" + sourceFile
	}

	info := MatchInfo{
		MatchID:    matchID,
		SourceFile: sourceFile,
		MapName:    m.mapName,
		GameMode:   m.gameMode,
		Start:      m.start,
		End:        m.end,
	}

	if !m.start.IsZero() && !m.end.IsZero() {
		info.Duration = int(m.end.Sub(m.start) / time.Second)
	}

	return info
}

// players produces the roster rows ordered by team then name.
func (m *metadata) players() []Player {
	players := make([]Player, 0, len(m.roster))

	for name, entry := range m.roster {
		players = append(players, Player{
			Name:    name,
			Team:    entry.team,
			Role:    entry.role,
			GodID:   entry.godID,
			GodName: entry.godName,
		})
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Team != players[j].Team {
			return players[i].Team < players[j].Team
		}

		return players[i].Name < players[j].Name
	})

	return players
}

// isPlayer reports roster membership.
func (m *metadata) isPlayer(name string) bool {
	_, found := m.roster[name]

	return found
}
