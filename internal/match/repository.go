package match

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/smitelog/internal/database"
	"github.com/leighmacdonald/smitelog/internal/domain"
	"github.com/leighmacdonald/smitelog/pkg/combatlog"
)

type matchRepository struct {
	database database.Database
}

func NewMatchRepository(database database.Database) domain.MatchRepository {
	return &matchRepository{database: database}
}

// matchTables lists every per-match table except match itself, in delete
// order. Reinsertion happens in reverse.
var matchTables = []string{
	"match_timeline_event",
	"match_player_stat",
	"match_player_event",
	"match_item_event",
	"match_reward_event",
	"match_combat_event",
	"match_item",
	"match_ability",
	"match_entity",
	"match_player",
}

// MatchSave replaces all stored rows for the match inside one transaction, so
// a re-run over the same file converges instead of accumulating duplicates.
func (r *matchRepository) MatchSave(ctx context.Context, result *combatlog.Result) error {
	ingestID, errID := uuid.NewV4()
	if errID != nil {
		return errors.Join(errID, domain.ErrUUIDGen)
	}

	return r.database.WrapTx(ctx, func(transaction pgx.Tx) error {
		if err := r.deleteMatch(ctx, transaction, result.Info.MatchID); err != nil {
			return err
		}

		if err := r.insertMatch(ctx, transaction, result, ingestID); err != nil {
			return err
		}

		if err := r.insertRoster(ctx, transaction, result); err != nil {
			return err
		}

		return r.insertEvents(ctx, transaction, result)
	})
}

func (r *matchRepository) deleteMatch(ctx context.Context, transaction pgx.Tx, matchID string) error {
	for _, table := range matchTables {
		query, args, errQuery := r.database.
			Builder().
			Delete(table).
			Where(sq.Eq{"match_id": matchID}).
			ToSql()
		if errQuery != nil {
			return database.DBErr(errQuery)
		}

		if _, errExec := transaction.Exec(ctx, query, args...); errExec != nil {
			return database.DBErr(errExec)
		}
	}

	query, args, errQuery := r.database.
		Builder().
		Delete("match").
		Where(sq.Eq{"match_id": matchID}).
		ToSql()
	if errQuery != nil {
		return database.DBErr(errQuery)
	}

	if _, errExec := transaction.Exec(ctx, query, args...); errExec != nil {
		return database.DBErr(errExec)
	}

	return nil
}

func (r *matchRepository) insertMatch(ctx context.Context, transaction pgx.Tx, result *combatlog.Result, ingestID uuid.UUID) error {
	info := result.Info

	query, args, errQuery := r.database.
		Builder().
		Insert("match").
		Columns("match_id", "ingest_id", "source_file", "map_name", "game_mode",
			"started_on", "ended_on", "duration").
		Values(info.MatchID, ingestID, info.SourceFile, info.MapName, info.GameMode,
			nullTime(info.Start), nullTime(info.End), info.Duration).
		ToSql()
	if errQuery != nil {
		return database.DBErr(errQuery)
	}

	if _, errExec := transaction.Exec(ctx, query, args...); errExec != nil {
		return database.DBErr(errExec)
	}

	return nil
}

func (r *matchRepository) insertRoster(ctx context.Context, transaction pgx.Tx, result *combatlog.Result) error {
	matchID := result.Info.MatchID
	batch := &pgx.Batch{}

	for _, player := range result.Players {
		batch.Queue(`
			INSERT INTO match_player (match_id, player_name, team, role, god_id, god_name)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			matchID, player.Name, int(player.Team), nullString(player.Role),
			player.GodID, nullString(player.GodName))
	}

	for _, entity := range result.Entities {
		var team *int
		if entity.TeamKnown {
			value := int(entity.Team)
			team = &value
		}

		batch.Queue(`
			INSERT INTO match_entity (match_id, entity_name, entity_type, team)
			VALUES ($1, $2, $3, $4)`,
			matchID, entity.Name, int(entity.Type), team)
	}

	for _, ability := range result.Abilities {
		batch.Queue(`
			INSERT INTO match_ability (match_id, ability_name, source_name)
			VALUES ($1, $2, $3)`,
			matchID, ability.Name, ability.Source)
	}

	for _, item := range result.Items {
		batch.Queue(`
			INSERT INTO match_item (match_id, item_id, item_name)
			VALUES ($1, $2, $3)`,
			matchID, item.ItemID, item.Name)
	}

	return sendBatch(ctx, transaction, batch)
}

func (r *matchRepository) insertEvents(ctx context.Context, transaction pgx.Tx, result *combatlog.Result) error {
	matchID := result.Info.MatchID
	batch := &pgx.Batch{}

	for _, event := range result.Combat {
		batch.Queue(`
			INSERT INTO match_combat_event (match_id, event_time, event_offset, event_type,
				source_name, target_name, ability_name, damage, mitigated, loc_x, loc_y, event_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			matchID, event.EventTime, event.Offset, event.Type, event.Source, event.Target,
			event.Ability, event.Damage, event.Mitigated, event.LocX, event.LocY, event.Text)
	}

	for _, event := range result.Rewards {
		batch.Queue(`
			INSERT INTO match_reward_event (match_id, event_time, event_offset, event_type,
				entity_name, amount, source_type, loc_x, loc_y, event_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			matchID, event.EventTime, event.Offset, event.Type, event.Entity,
			event.Amount, event.SourceType, event.LocX, event.LocY, event.Text)
	}

	for _, event := range result.ItemEv {
		batch.Queue(`
			INSERT INTO match_item_event (match_id, event_time, event_offset, event_type,
				player_name, item_id, item_name, cost, loc_x, loc_y, event_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			matchID, event.EventTime, event.Offset, event.Type, event.Player,
			event.ItemID, event.ItemName, event.Cost, event.LocX, event.LocY, event.Text)
	}

	for _, event := range result.PlayerEv {
		batch.Queue(`
			INSERT INTO match_player_event (match_id, event_time, event_offset, event_type,
				player_name, team, event_value, item_id, item_name, loc_x, loc_y, event_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			matchID, event.EventTime, event.Offset, event.Type, event.Player, int(event.Team),
			event.Value, event.ItemID, event.ItemName, event.LocX, event.LocY, event.Text)
	}

	for _, stat := range result.Stats {
		batch.Queue(`
			INSERT INTO match_player_stat (match_id, player_name, team, kills, deaths, assists,
				damage_dealt, damage_taken, damage_mitigated, healing_done, structure_damage,
				gold_earned, experience_earned, cc_time_inflicted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			matchID, stat.Player, int(stat.Team), stat.Kills, stat.Deaths, stat.Assists,
			stat.DamageDealt, stat.DamageTaken, stat.DamageMitigated, stat.HealingDone,
			stat.StructureDamage, stat.GoldEarned, stat.ExperienceEarned, stat.CCTimeInflicted)
	}

	for _, event := range result.Timeline {
		// Assist-less kills carry a nil slice which would encode as NULL and
		// trip the not-null constraint on the array column.
		assists := event.Assists
		if assists == nil {
			assists = []string{}
		}

		batch.Queue(`
			INSERT INTO match_timeline_event (match_id, event_time, event_offset, category,
				importance, team, entity_name, target_name, event_value, assists, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			matchID, event.EventTime, event.Offset, int(event.Category), event.Importance,
			int(event.Team), event.Entity, event.Target, event.Value, assists,
			event.Description)
	}

	return sendBatch(ctx, transaction, batch)
}

func sendBatch(ctx context.Context, transaction pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := transaction.SendBatch(ctx, batch)

	for i := 0; i < batch.Len(); i++ {
		if _, errExec := results.Exec(); errExec != nil {
			_ = results.Close()

			return database.DBErr(errExec)
		}
	}

	return database.DBErr(results.Close())
}

func (r *matchRepository) Matches(ctx context.Context, opts domain.MatchesQueryOpts) ([]domain.MatchSummary, int64, error) {
	countBuilder := r.database.
		Builder().
		Select("count(m.match_id)").
		From("match m")

	builder := r.database.
		Builder().
		Select("m.match_id", "m.ingest_id", "m.source_file", "m.map_name", "m.game_mode",
			"coalesce(m.started_on, to_timestamp(0))", "coalesce(m.ended_on, to_timestamp(0))",
			"m.duration",
			"(select count(*) from match_player mp where mp.match_id = m.match_id)").
		From("match m").
		OrderBy("m.started_on desc", "m.match_id")

	if opts.MapName != "" {
		builder = builder.Where(sq.Eq{"m.map_name": opts.MapName})
		countBuilder = countBuilder.Where(sq.Eq{"m.map_name": opts.MapName})
	}

	if opts.GameMode != "" {
		builder = builder.Where(sq.Eq{"m.game_mode": opts.GameMode})
		countBuilder = countBuilder.Where(sq.Eq{"m.game_mode": opts.GameMode})
	}

	if opts.Limit > 0 {
		builder = builder.Limit(opts.Limit)
	}

	if opts.Offset > 0 {
		builder = builder.Offset(opts.Offset)
	}

	count, errCount := r.database.GetCount(ctx, countBuilder)
	if errCount != nil {
		return nil, 0, database.DBErr(errCount)
	}

	rows, errQuery := r.database.QueryBuilder(ctx, builder)
	if errQuery != nil {
		return nil, 0, errors.Join(errQuery, domain.ErrMatchQuery)
	}

	defer rows.Close()

	var matches []domain.MatchSummary

	for rows.Next() {
		var summary domain.MatchSummary
		if errScan := rows.Scan(&summary.MatchID, &summary.IngestID, &summary.SourceFile,
			&summary.MapName, &summary.GameMode, &summary.StartedOn, &summary.EndedOn,
			&summary.Duration, &summary.Players); errScan != nil {
			return nil, 0, errors.Join(errScan, domain.ErrScanResult)
		}

		matches = append(matches, summary)
	}

	if rows.Err() != nil {
		return nil, 0, errors.Join(rows.Err(), domain.ErrRowResults)
	}

	return matches, count, nil
}

func (r *matchRepository) MatchGetByID(ctx context.Context, matchID string, summary *domain.MatchSummary) error {
	row, errRow := r.database.QueryRowBuilder(ctx, r.database.
		Builder().
		Select("m.match_id", "m.ingest_id", "m.source_file", "m.map_name", "m.game_mode",
			"coalesce(m.started_on, to_timestamp(0))", "coalesce(m.ended_on, to_timestamp(0))",
			"m.duration",
			"(select count(*) from match_player mp where mp.match_id = m.match_id)").
		From("match m").
		Where(sq.Eq{"m.match_id": matchID}))
	if errRow != nil {
		return database.DBErr(errRow)
	}

	if errScan := row.Scan(&summary.MatchID, &summary.IngestID, &summary.SourceFile,
		&summary.MapName, &summary.GameMode, &summary.StartedOn, &summary.EndedOn,
		&summary.Duration, &summary.Players); errScan != nil {
		return database.DBErr(errScan)
	}

	return nil
}

func (r *matchRepository) PlayerStats(ctx context.Context, matchID string) ([]combatlog.PlayerStat, error) {
	rows, errQuery := r.database.QueryBuilder(ctx, r.database.
		Builder().
		Select("match_id", "player_name", "team", "kills", "deaths", "assists",
			"damage_dealt", "damage_taken", "damage_mitigated", "healing_done",
			"structure_damage", "gold_earned", "experience_earned", "cc_time_inflicted").
		From("match_player_stat").
		Where(sq.Eq{"match_id": matchID}).
		OrderBy("team", "player_name"))
	if errQuery != nil {
		return nil, errors.Join(errQuery, domain.ErrMatchQuery)
	}

	defer rows.Close()

	var stats []combatlog.PlayerStat

	for rows.Next() {
		var (
			stat combatlog.PlayerStat
			team int
		)

		if errScan := rows.Scan(&stat.MatchID, &stat.Player, &team, &stat.Kills, &stat.Deaths,
			&stat.Assists, &stat.DamageDealt, &stat.DamageTaken, &stat.DamageMitigated,
			&stat.HealingDone, &stat.StructureDamage, &stat.GoldEarned, &stat.ExperienceEarned,
			&stat.CCTimeInflicted); errScan != nil {
			return nil, errors.Join(errScan, domain.ErrScanResult)
		}

		stat.Team = combatlog.Team(team)

		stats = append(stats, stat)
	}

	if rows.Err() != nil {
		return nil, errors.Join(rows.Err(), domain.ErrRowResults)
	}

	return stats, nil
}

func (r *matchRepository) Timeline(ctx context.Context, matchID string) ([]combatlog.TimelineEvent, error) {
	rows, errQuery := r.database.QueryBuilder(ctx, r.database.
		Builder().
		Select("match_id", "event_time", "event_offset", "category", "importance", "team",
			"entity_name", "target_name", "event_value", "assists", "description").
		From("match_timeline_event").
		Where(sq.Eq{"match_id": matchID}).
		OrderBy("event_time", "category desc"))
	if errQuery != nil {
		return nil, errors.Join(errQuery, domain.ErrMatchQuery)
	}

	defer rows.Close()

	var timeline []combatlog.TimelineEvent

	for rows.Next() {
		var (
			event    combatlog.TimelineEvent
			category int
			team     int
		)

		if errScan := rows.Scan(&event.MatchID, &event.EventTime, &event.Offset, &category,
			&event.Importance, &team, &event.Entity, &event.Target, &event.Value,
			&event.Assists, &event.Description); errScan != nil {
			return nil, errors.Join(errScan, domain.ErrScanResult)
		}

		event.Category = combatlog.TimelineCategory(category)
		event.Team = combatlog.Team(team)

		timeline = append(timeline, event)
	}

	if rows.Err() != nil {
		return nil, errors.Join(rows.Err(), domain.ErrRowResults)
	}

	return timeline, nil
}

func nullTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}

	return &value
}

func nullString(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
