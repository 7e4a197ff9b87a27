package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leighmacdonald/smitelog/internal/domain"
	"github.com/leighmacdonald/smitelog/pkg/combatlog"
)

type matchUsecase struct {
	repository domain.MatchRepository
	engine     *combatlog.Engine
}

func NewMatchUsecase(repository domain.MatchRepository, engine *combatlog.Engine) domain.MatchUsecase {
	return &matchUsecase{repository: repository, engine: engine}
}

func (u *matchUsecase) IngestFile(ctx context.Context, path string) (*combatlog.Result, error) {
	result, errProcess := u.engine.ProcessFile(ctx, path)
	if errProcess != nil {
		return nil, errors.Join(errProcess, domain.ErrMatchIngest)
	}

	if errSave := u.repository.MatchSave(ctx, result); errSave != nil {
		return nil, errors.Join(errSave, domain.ErrMatchIngest)
	}

	slog.Info("Saved match",
		slog.String("match_id", result.Info.MatchID),
		slog.String("source", result.Info.SourceFile))

	return result, nil
}

func (u *matchUsecase) Matches(ctx context.Context, opts domain.MatchesQueryOpts) ([]domain.MatchSummary, int64, error) {
	return u.repository.Matches(ctx, opts)
}

func (u *matchUsecase) MatchGetByID(ctx context.Context, matchID string, summary *domain.MatchSummary) error {
	return u.repository.MatchGetByID(ctx, matchID, summary)
}

func (u *matchUsecase) PlayerStats(ctx context.Context, matchID string) ([]combatlog.PlayerStat, error) {
	return u.repository.PlayerStats(ctx, matchID)
}

func (u *matchUsecase) Timeline(ctx context.Context, matchID string) ([]combatlog.TimelineEvent, error) {
	return u.repository.Timeline(ctx, matchID)
}
