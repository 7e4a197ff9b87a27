package combatlog

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrDecodeRaw    = errors.New("failed to decode raw event")
	ErrMissingField = errors.New("required field missing")
	ErrBadTimestamp = errors.New("unparsable timestamp")
)

// The two literal timestamp layouts the log writer produces, tried in order.
const (
	layoutDotted = "2006.01.02-15.04.05"
	layoutDashed = "2006-01-02-15:04:05"
)

// ParseTimestamp parses either supported layout into the same instant.
func ParseTimestamp(value string) (time.Time, bool) {
	for _, layout := range []string{layoutDotted, layoutDashed} {
		if parsed, errParse := time.Parse(layout, value); errParse == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

// unmarshalRaw maps a decoded object onto the RawEvent envelope. Weak typing
// lets numeric JSON values land in the string fields the same way the
// original writer's string-everywhere records do.
func unmarshalRaw(input map[string]any, output *RawEvent) error {
	decoder, errDecoder := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if errDecoder != nil {
		return errors.Join(errDecoder, ErrDecodeRaw)
	}

	if errDecode := decoder.Decode(input); errDecode != nil {
		return errors.Join(errDecode, ErrDecodeRaw)
	}

	return nil
}

// convertInt coerces a numeric string, returning nil on anything unparsable.
// Callers decide whether nil is a fallback or a drop.
func convertInt(value string) *int {
	if value == "" {
		return nil
	}

	parsed, errParse := strconv.Atoi(strings.TrimSpace(value))
	if errParse != nil {
		return nil
	}

	return &parsed
}

func convertFloat(value string) *float64 {
	if value == "" {
		return nil
	}

	parsed, errParse := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if errParse != nil {
		return nil
	}

	return &parsed
}

// coerceAmount applies the lossy numeric contract: an unparsable value nulls
// the numeric field, keeps the original string visible in the text field and
// logs a warning. Never a hard failure. When the text field already carries
// content the value is appended in brackets so it survives in the record,
// not just the log.
func coerceAmount(field string, value string, text *string, lineNum int) *int {
	amount := convertInt(value)
	if amount == nil && value != "" {
		switch {
		case *text == "":
			*text = value
		case !strings.Contains(*text, value):
			*text += " [" + field + "=" + value + "]"
		}

		slog.Warn("Non-numeric value retained as text",
			slog.String("field", field),
			slog.String("value", value),
			slog.Int("line", lineNum))
	}

	return amount
}

func requireField(name string, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	return nil
}

func requireTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: time", ErrMissingField)
	}

	parsed, parsedOk := ParseTimestamp(value)
	if !parsedOk {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, value)
	}

	return parsed, nil
}

// transformCombat converts one CombatMsg envelope into a typed CombatEvent.
func transformCombat(matchID string, line Line) (CombatEvent, error) {
	raw := line.Raw

	timestamp, errTime := requireTimestamp(raw.Time)
	if errTime != nil {
		return CombatEvent{}, errTime
	}

	if errSource := requireField("sourceowner", raw.SourceOwner); errSource != nil {
		return CombatEvent{}, errSource
	}

	if errTarget := requireField("targetowner", raw.TargetOwner); errTarget != nil {
		return CombatEvent{}, errTarget
	}

	event := CombatEvent{
		MatchID:   matchID,
		EventTime: timestamp,
		Type:      raw.Type,
		Source:    raw.SourceOwner,
		Target:    raw.TargetOwner,
		Ability:   raw.ItemName,
		LocX:      convertFloat(raw.LocationX),
		LocY:      convertFloat(raw.LocationY),
		Text:      raw.Text,
	}

	event.Damage = coerceAmount("value1", raw.Value1, &event.Text, line.Num)
	event.Mitigated = coerceAmount("value2", raw.Value2, &event.Text, line.Num)

	return event, nil
}

// transformReward converts one RewardMsg envelope into a typed RewardEvent.
func transformReward(matchID string, line Line) (RewardEvent, error) {
	raw := line.Raw

	timestamp, errTime := requireTimestamp(raw.Time)
	if errTime != nil {
		return RewardEvent{}, errTime
	}

	if errSource := requireField("sourceowner", raw.SourceOwner); errSource != nil {
		return RewardEvent{}, errSource
	}

	event := RewardEvent{
		MatchID:    matchID,
		EventTime:  timestamp,
		Type:       raw.Type,
		Entity:     raw.SourceOwner,
		SourceType: raw.ItemName,
		LocX:       convertFloat(raw.LocationX),
		LocY:       convertFloat(raw.LocationY),
		Text:       raw.Text,
	}

	event.Amount = coerceAmount("value1", raw.Value1, &event.Text, line.Num)

	return event, nil
}

// transformItem converts one itemmsg envelope into a typed ItemEvent. When
// value1 is missing or zero the cost is recovered from the parenthesized
// value the writer appends to the text field ("Purchased Deathbringer (2750)").
func transformItem(matchID string, line Line) (ItemEvent, error) {
	raw := line.Raw

	timestamp, errTime := requireTimestamp(raw.Time)
	if errTime != nil {
		return ItemEvent{}, errTime
	}

	if errSource := requireField("sourceowner", raw.SourceOwner); errSource != nil {
		return ItemEvent{}, errSource
	}

	eventType := raw.Type
	if eventType == "" {
		eventType = "ItemPurchase"
	}

	event := ItemEvent{
		MatchID:   matchID,
		EventTime: timestamp,
		Type:      eventType,
		Player:    raw.SourceOwner,
		ItemID:    convertInt(raw.ItemID),
		ItemName:  raw.ItemName,
		LocX:      convertFloat(raw.LocationX),
		LocY:      convertFloat(raw.LocationY),
		Text:      raw.Text,
	}

	event.Cost = coerceAmount("value1", raw.Value1, &event.Text, line.Num)
	if event.Cost == nil || *event.Cost == 0 {
		if cost := costFromText(raw.Text); cost != nil {
			event.Cost = cost
		}
	}

	return event, nil
}

func costFromText(text string) *int {
	open := strings.LastIndexByte(text, '(')
	closing := strings.LastIndexByte(text, ')')

	if open < 0 || closing <= open+1 {
		return nil
	}

	return convertInt(text[open+1 : closing])
}

// playerEventTypesWithSpawn are the selection events that fire before the
// player has a map position.
func needsSpawnBackfill(eventType string) bool {
	switch eventType {
	case "RoleAssigned", "GodPicked", "GodHovered":
		return true
	default:
		return false
	}
}

// transformPlayer converts one playermsg envelope into a typed PlayerEvent.
// The team identifier rides in value1. Selection events missing coordinates
// are pinned to their team's fountain rather than left null.
func transformPlayer(matchID string, line Line) (PlayerEvent, error) {
	raw := line.Raw

	timestamp, errTime := requireTimestamp(raw.Time)
	if errTime != nil {
		return PlayerEvent{}, errTime
	}

	if errSource := requireField("sourceowner", raw.SourceOwner); errSource != nil {
		return PlayerEvent{}, errSource
	}

	event := PlayerEvent{
		MatchID:   matchID,
		EventTime: timestamp,
		Type:      raw.Type,
		Player:    raw.SourceOwner,
		Value:     raw.Value1,
		ItemID:    convertInt(raw.ItemID),
		ItemName:  raw.ItemName,
		LocX:      convertFloat(raw.LocationX),
		LocY:      convertFloat(raw.LocationY),
		Text:      raw.Text,
	}

	if teamID := convertInt(raw.Value1); teamID != nil {
		ParseTeam(*teamID, &event.Team)
	}

	if (event.LocX == nil || event.LocY == nil) && needsSpawnBackfill(event.Type) {
		if spawn, spawnOk := SpawnPos(event.Team); spawnOk {
			event.LocX = &spawn.X
			event.LocY = &spawn.Y
		}
	}

	return event, nil
}

// NormalizeRole strips the writer's "E" prefix from role names, EJungle ->
// Jungle. Single-word roles without the prefix pass through unchanged.
func NormalizeRole(role string) string {
	if len(role) > 1 && role[0] == 'E' {
		return role[1:]
	}

	return role
}
