package domain

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/leighmacdonald/smitelog/pkg/combatlog"
)

type MatchRepository interface {
	// MatchSave persists a complete engine result as a single unit, replacing
	// any previous rows for the same match id.
	MatchSave(ctx context.Context, result *combatlog.Result) error
	Matches(ctx context.Context, opts MatchesQueryOpts) ([]MatchSummary, int64, error)
	MatchGetByID(ctx context.Context, matchID string, summary *MatchSummary) error
	PlayerStats(ctx context.Context, matchID string) ([]combatlog.PlayerStat, error)
	Timeline(ctx context.Context, matchID string) ([]combatlog.TimelineEvent, error)
}

type MatchUsecase interface {
	// IngestFile processes one log file and saves the result. A repeat run
	// over the same file converges to identical stored rows.
	IngestFile(ctx context.Context, path string) (*combatlog.Result, error)
	Matches(ctx context.Context, opts MatchesQueryOpts) ([]MatchSummary, int64, error)
	MatchGetByID(ctx context.Context, matchID string, summary *MatchSummary) error
	PlayerStats(ctx context.Context, matchID string) ([]combatlog.PlayerStat, error)
	Timeline(ctx context.Context, matchID string) ([]combatlog.TimelineEvent, error)
}

type MatchesQueryOpts struct {
	MapName  string
	GameMode string
	Limit    uint64
	Offset   uint64
}

// MatchSummary is the row level view of a stored match.
type MatchSummary struct {
	MatchID    string    `json:"match_id"`
	IngestID   uuid.UUID `json:"ingest_id"`
	SourceFile string    `json:"source_file"`
	MapName    string    `json:"map_name"`
	GameMode   string    `json:"game_mode"`
	StartedOn  time.Time `json:"started_on"`
	EndedOn    time.Time `json:"ended_on"`
	// Duration in whole seconds.
	Duration int `json:"duration"`
	Players  int `json:"players"`
}
