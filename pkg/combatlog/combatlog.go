// Package combatlog normalizes SMITE 2 combat log files into typed match
// records and derived per-player statistics.
//
// The log is line-delimited JSON with loosely typed, string-everywhere
// payloads and inconsistent field usage between event families. The engine
// runs a strict two-stage model: lines decode into an opaque raw envelope
// with minimal validation, then per-family transformers produce fully typed
// normalized events. Coercion failures stay localized to that boundary; the
// aggregation stages only ever see typed values.
package combatlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leighmacdonald/smitelog/pkg/log"
)

// Config holds the tunable aggregation constants. Zero values are not usable;
// start from NewConfig.
type Config struct {
	// AssistWindow is the trailing window before a killing blow in which
	// damage counts toward an assist.
	AssistWindow time.Duration
	// AssistThreshold is the cumulative damage inside the window required
	// for an assist credit.
	AssistThreshold int
	// ItemCostMilestone is the minimum purchase cost worth a timeline entry.
	ItemCostMilestone int
	// RewardSpikeThreshold is the minimum single reward worth a timeline
	// milestone.
	RewardSpikeThreshold int
}

func NewConfig() Config {
	return Config{
		AssistWindow:         time.Second * 10,
		AssistThreshold:      50,
		ItemCostMilestone:    1000,
		RewardSpikeThreshold: 500,
	}
}

// Engine converts one complete, closed log file into a Result. It performs no
// network I/O and holds no state between runs.
type Engine struct {
	conf Config
}

func New(conf Config) *Engine {
	return &Engine{conf: conf}
}

// ProcessFile opens and processes a single combat log file. The match source
// name is the file's base name without extension.
func (e *Engine) ProcessFile(ctx context.Context, path string) (*Result, error) {
	logFile, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, fmt.Errorf("failed to open log file: %w", errOpen)
	}

	defer log.Closer(logFile)

	base := filepath.Base(path)
	source := strings.TrimSuffix(base, filepath.Ext(base))

	return e.Process(ctx, source, logFile)
}

// Process runs the full pipeline over a byte stream: read/decode, classify,
// extract metadata, resolve entities, transform, fold stats, curate the
// timeline. The context is honored between input lines.
func (e *Engine) Process(ctx context.Context, source string, reader io.Reader) (*Result, error) {
	result := &Result{}

	lines, errRead := readLines(ctx, reader, &result.Summary)
	if errRead != nil {
		return nil, errRead
	}

	meta := collectMetadata(lines)
	registry := NewEntityRegistry()

	// Lexical classification first, so the roster supplement below can tell
	// an unnamed player apart from a jungle camp with a kill to its name.
	for _, line := range lines {
		registry.Observe(line.Raw.SourceOwner)
		registry.Observe(line.Raw.TargetOwner)
	}

	supplementRoster(&meta, lines, registry)

	result.Info = meta.info(source)
	result.Players = meta.players()

	for _, player := range result.Players {
		registry.PromotePlayer(player.Name, player.Team)
	}

	e.transformAll(lines, result, registry)

	result.Entities = registry.All()

	tracker := NewTracker(e.conf, result.Info.MatchID, result.Players, registry)

	for _, event := range result.Combat {
		tracker.ApplyCombat(event)
	}

	for _, event := range result.Rewards {
		tracker.ApplyReward(event)
	}

	result.Stats = tracker.Stats()

	cur := newCurator(e.conf, result.Info, registry, result.Players)
	cur.killPass(tracker.Kills())
	cur.objectivePass(tracker.Kills())
	cur.economyPass(result.ItemEv, result.Rewards)
	result.Timeline = cur.finalize()

	e.fillOffsets(result)
	collectLookups(result)
	fillCounts(result)

	slog.Info("Processed combat log",
		slog.String("match_id", result.Info.MatchID),
		slog.Int("lines", result.Summary.LinesRead),
		slog.Int("skipped", result.Summary.LinesSkipped),
		slog.Int("players", result.Summary.Players))

	return result, nil
}

// supplementRoster registers combat participants that carry player signals
// but never emitted a role assignment. They get a roster row with a null
// role/god rather than being dropped.
func supplementRoster(meta *metadata, lines []Line, registry *EntityRegistry) {
	maybePlayer := func(name string) {
		if name == "" || meta.isPlayer(name) {
			return
		}

		entity := registry.Get(name)
		if entity != nil && entity.Type != EntityUnknown {
			return
		}

		meta.registerCombatant(name)
	}

	for _, line := range lines {
		raw := line.Raw

		switch line.Family {
		case PlayerMsg:
			maybePlayer(raw.SourceOwner)
		case ItemMsg:
			maybePlayer(raw.SourceOwner)
		case CombatMsg:
			var combatType CombatType
			if ParseCombatType(raw.Type, &combatType) && combatType == KillingBlow {
				maybePlayer(raw.SourceOwner)
				maybePlayer(raw.TargetOwner)
			}
		case MatchStart, RewardMsg, UnknownFamily:
		}

		// The writer tags anonymous clients Player1..Player10.
		if strings.Contains(raw.SourceOwner, "Player") {
			maybePlayer(raw.SourceOwner)
		}
	}
}

// transformAll runs the per-family transformers in original line order.
// Transformation failures drop the event and bump the family drop counter;
// they never abort the run.
func (e *Engine) transformAll(lines []Line, result *Result, registry *EntityRegistry) {
	matchID := result.Info.MatchID

	for _, line := range lines {
		switch line.Family {
		case CombatMsg:
			event, errTransform := transformCombat(matchID, line)
			if errTransform != nil {
				result.Summary.DroppedCombat++

				slog.Warn("Dropped combat event", slog.Int("line", line.Num), log.ErrAttr(errTransform))

				continue
			}

			registry.ObserveCombatant(event.Source)
			registry.ObserveCombatant(event.Target)

			result.Combat = append(result.Combat, event)
		case RewardMsg:
			event, errTransform := transformReward(matchID, line)
			if errTransform != nil {
				result.Summary.DroppedReward++

				slog.Warn("Dropped reward event", slog.Int("line", line.Num), log.ErrAttr(errTransform))

				continue
			}

			result.Rewards = append(result.Rewards, event)
		case ItemMsg:
			event, errTransform := transformItem(matchID, line)
			if errTransform != nil {
				result.Summary.DroppedItem++

				slog.Warn("Dropped item event", slog.Int("line", line.Num), log.ErrAttr(errTransform))

				continue
			}

			result.ItemEv = append(result.ItemEv, event)
		case PlayerMsg:
			event, errTransform := transformPlayer(matchID, line)
			if errTransform != nil {
				result.Summary.DroppedPlayer++

				slog.Warn("Dropped player event", slog.Int("line", line.Num), log.ErrAttr(errTransform))

				continue
			}

			result.PlayerEv = append(result.PlayerEv, event)
		case MatchStart:
			// Consumed by metadata collection.
		case UnknownFamily:
			result.Summary.UnknownEvents++
		}
	}
}

func (e *Engine) fillOffsets(result *Result) {
	start := result.Info.Start
	if start.IsZero() {
		return
	}

	offset := func(at time.Time) int {
		return int(at.Sub(start) / time.Second)
	}

	for i := range result.Combat {
		result.Combat[i].Offset = offset(result.Combat[i].EventTime)
	}

	for i := range result.Rewards {
		result.Rewards[i].Offset = offset(result.Rewards[i].EventTime)
	}

	for i := range result.ItemEv {
		result.ItemEv[i].Offset = offset(result.ItemEv[i].EventTime)
	}

	for i := range result.PlayerEv {
		result.PlayerEv[i].Offset = offset(result.PlayerEv[i].EventTime)
	}

	for i := range result.Timeline {
		result.Timeline[i].Offset = offset(result.Timeline[i].EventTime)
	}
}

// collectLookups populates the incremental ability and item registries from
// identifiers observed during the run.
func collectLookups(result *Result) {
	abilities := map[string]string{}

	for _, event := range result.Combat {
		if event.Ability == "" {
			continue
		}

		if _, seen := abilities[event.Ability]; !seen {
			abilities[event.Ability] = event.Source
		}
	}

	names := make([]string, 0, len(abilities))
	for name := range abilities {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		result.Abilities = append(result.Abilities, Ability{
			MatchID: result.Info.MatchID,
			Name:    name,
			Source:  abilities[name],
		})
	}

	items := map[int]string{}

	for _, event := range result.ItemEv {
		if event.ItemID == nil {
			continue
		}

		if _, seen := items[*event.ItemID]; !seen {
			items[*event.ItemID] = event.ItemName
		}
	}

	itemIDs := make([]int, 0, len(items))
	for itemID := range items {
		itemIDs = append(itemIDs, itemID)
	}

	sort.Ints(itemIDs)

	for _, itemID := range itemIDs {
		result.Items = append(result.Items, Item{
			MatchID: result.Info.MatchID,
			ItemID:  itemID,
			Name:    items[itemID],
		})
	}
}

func fillCounts(result *Result) {
	result.Summary.Players = len(result.Players)
	result.Summary.Entities = len(result.Entities)
	result.Summary.CombatEvents = len(result.Combat)
	result.Summary.RewardEvents = len(result.Rewards)
	result.Summary.ItemEvents = len(result.ItemEv)
	result.Summary.PlayerEvents = len(result.PlayerEv)
	result.Summary.PlayerStats = len(result.Stats)
	result.Summary.TimelineEvents = len(result.Timeline)
}
