package match_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leighmacdonald/smitelog/internal/database"
	"github.com/leighmacdonald/smitelog/internal/domain"
	"github.com/leighmacdonald/smitelog/internal/match"
	"github.com/leighmacdonald/smitelog/pkg/combatlog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var errContainer = errors.New("failed to bring up test container")

func newTestDB(ctx context.Context) (dsn string, cont testcontainers.Container, err error) {
	// testcontainers panics instead of returning an error when no Docker
	// endpoint exists at all; fold that into the error so the caller can skip.
	defer func() {
		if rec := recover(); rec != nil {
			dsn, cont = "", nil
			err = errors.Join(fmt.Errorf("%v", rec), errContainer)
		}
	}()

	const testInfo = "smitelog-test"
	username, password, dbName := testInfo, testInfo, testInfo

	cont, errCont := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     username,
				"POSTGRES_PASSWORD": password,
			},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if errCont != nil {
		return "", nil, errors.Join(errCont, errContainer)
	}

	port, errPort := cont.MappedPort(ctx, "5432")
	if errPort != nil {
		return "", nil, errors.Join(errPort, errContainer)
	}

	dsn = fmt.Sprintf("postgresql://%s:%s@localhost:%s/%s", username, password, port.Port(), dbName)

	return dsn, cont, nil
}

// repoLog exercises every insert path: roster, combat with an assist, a tower
// kill, an item purchase, a reward spike and a plain experience reward.
const repoLog = `{"eventType":"start","matchid":"m-900","mapname":"Conquest","gamemode":"Ranked","time":"2025.05.01-12.00.00"}
{"eventType":"playermsg","type":"RoleAssigned","sourceowner":"Alice","itemname":"EJungle","value1":"1","time":"2025.05.01-12.00.01"}
{"eventType":"playermsg","type":"RoleAssigned","sourceowner":"Bob","itemname":"EMid","value1":"1","time":"2025.05.01-12.00.02"}
{"eventType":"playermsg","type":"RoleAssigned","sourceowner":"Dave","itemname":"ESolo","value1":"2","time":"2025.05.01-12.00.03"}
{"eventType":"playermsg","type":"GodPicked","sourceowner":"Alice","itemid":"1649","itemname":"Loki","time":"2025.05.01-12.00.05"}
{"eventType":"CombatMsg","type":"Damage","sourceowner":"Alice","targetowner":"Dave","itemname":"Vanish","value1":"400","time":"2025.05.01-12.10.00"}
{"eventType":"CombatMsg","type":"Damage","sourceowner":"Bob","targetowner":"Dave","value1":"80","time":"2025.05.01-12.10.05"}
{"eventType":"CombatMsg","type":"KillingBlow","sourceowner":"Alice","targetowner":"Dave","time":"2025.05.01-12.10.08"}
{"eventType":"RewardMsg","type":"Currency","sourceowner":"Alice","itemname":"player_kill","value1":"600","time":"2025.05.01-12.10.09"}
{"eventType":"itemmsg","sourceowner":"Bob","itemid":"9841","itemname":"Deathbringer","value1":"2750","time":"2025.05.01-12.12.00"}
{"eventType":"CombatMsg","type":"KillingBlow","sourceowner":"Alice","targetowner":"Chaos Tower 1","time":"2025.05.01-12.15.00"}
{"eventType":"RewardMsg","type":"Experience","sourceowner":"Dave","value1":"200","time":"2025.05.01-12.20.00"}
`

func TestMatchRepository(t *testing.T) {
	ctx := context.Background()

	dsn, cont, errDB := newTestDB(ctx)
	if errDB != nil {
		t.Skipf("Failed to bring up test database: %v", errDB)
	}

	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		_ = cont.Terminate(termCtx)
	})

	db := database.New(dsn, true, false)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Close() })

	engine := combatlog.New(combatlog.NewConfig())

	result, errProcess := engine.Process(ctx, "repo_log", strings.NewReader(repoLog))
	require.NoError(t, errProcess)
	require.NotEmpty(t, result.Timeline)

	repo := match.NewMatchRepository(db)

	require.NoError(t, repo.MatchSave(ctx, result))

	// A second run over the same source replaces rows instead of appending.
	require.NoError(t, repo.MatchSave(ctx, result))

	rowCount := func(table string) int64 {
		count, errCount := db.GetCount(ctx, db.Builder().
			Select("count(*)").
			From(table).
			Where("match_id = ?", result.Info.MatchID))
		require.NoError(t, errCount)

		return count
	}

	require.EqualValues(t, len(result.Combat), rowCount("match_combat_event"))
	require.EqualValues(t, len(result.Rewards), rowCount("match_reward_event"))
	require.EqualValues(t, len(result.ItemEv), rowCount("match_item_event"))
	require.EqualValues(t, len(result.PlayerEv), rowCount("match_player_event"))
	require.EqualValues(t, len(result.Stats), rowCount("match_player_stat"))
	require.EqualValues(t, len(result.Timeline), rowCount("match_timeline_event"))
	require.EqualValues(t, len(result.Players), rowCount("match_player"))
	require.EqualValues(t, len(result.Entities), rowCount("match_entity"))

	var summary domain.MatchSummary
	require.NoError(t, repo.MatchGetByID(ctx, result.Info.MatchID, &summary))
	require.Equal(t, result.Info.MatchID, summary.MatchID)
	require.Equal(t, "repo_log", summary.SourceFile)
	require.Equal(t, "Conquest", summary.MapName)
	require.Equal(t, "Ranked", summary.GameMode)
	require.Equal(t, result.Info.Duration, summary.Duration)
	require.Equal(t, len(result.Players), summary.Players)
	require.True(t, summary.StartedOn.Equal(result.Info.Start))

	require.ErrorIs(t, repo.MatchGetByID(ctx, "no-such-match", &summary), database.ErrNoResult)

	matches, total, errMatches := repo.Matches(ctx, domain.MatchesQueryOpts{})
	require.NoError(t, errMatches)
	require.EqualValues(t, 1, total)
	require.Len(t, matches, 1)
	require.Equal(t, result.Info.MatchID, matches[0].MatchID)

	filtered, filteredTotal, errFiltered := repo.Matches(ctx, domain.MatchesQueryOpts{MapName: "Joust"})
	require.NoError(t, errFiltered)
	require.Zero(t, filteredTotal)
	require.Empty(t, filtered)

	stats, errStats := repo.PlayerStats(ctx, result.Info.MatchID)
	require.NoError(t, errStats)
	require.Equal(t, result.Stats, stats)

	timeline, errTimeline := repo.Timeline(ctx, result.Info.MatchID)
	require.NoError(t, errTimeline)
	require.Len(t, timeline, len(result.Timeline))

	for i, stored := range timeline {
		expected := result.Timeline[i]

		require.True(t, stored.EventTime.Equal(expected.EventTime))
		require.Equal(t, expected.Offset, stored.Offset)
		require.Equal(t, expected.Category, stored.Category)
		require.Equal(t, expected.Importance, stored.Importance)
		require.Equal(t, expected.Team, stored.Team)
		require.Equal(t, expected.Entity, stored.Entity)
		require.Equal(t, expected.Target, stored.Target)
		require.Equal(t, expected.Value, stored.Value)
		require.Equal(t, expected.Description, stored.Description)
		require.ElementsMatch(t, expected.Assists, stored.Assists)
	}
}
