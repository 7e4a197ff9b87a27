package cmd

import (
	"context"
	"log/slog"

	"github.com/leighmacdonald/smitelog/internal/config"
	"github.com/leighmacdonald/smitelog/internal/database"
	"github.com/leighmacdonald/smitelog/internal/domain"
	"github.com/leighmacdonald/smitelog/internal/match"
	"github.com/leighmacdonald/smitelog/pkg/combatlog"
	"github.com/leighmacdonald/smitelog/pkg/log"
)

// application wires the shared dependencies used by every subcommand.
type application struct {
	conf    config.Config
	db      database.Database
	matches domain.MatchUsecase

	closers []func()
}

func newApplication(ctx context.Context, connect bool) (*application, error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		return nil, errConfig
	}

	app := &application{conf: conf}

	useSentry := conf.Sentry.DSN != ""
	if useSentry {
		if _, errSentry := log.NewSentryClient(conf.Sentry.DSN, conf.Sentry.Trace,
			conf.Sentry.SampleRate, BuildVersion, conf.General.Mode); errSentry != nil {
			slog.Error("Failed to setup sentry client", log.ErrAttr(errSentry))

			useSentry = false
		}
	}

	app.closers = append(app.closers,
		log.MustCreateLogger(ctx, conf.Log.File, conf.Log.Level, useSentry, BuildVersion))

	app.db = database.New(conf.DB.DSN, conf.DB.AutoMigrate, conf.DB.LogQueries)

	if connect {
		if errConnect := app.db.Connect(ctx); errConnect != nil {
			return nil, errConnect
		}

		app.closers = append(app.closers, func() {
			log.Closer(app.db)
		})
	}

	engine := combatlog.New(conf.Parser.EngineConfig())
	app.matches = match.NewMatchUsecase(match.NewMatchRepository(app.db), engine)

	return app, nil
}

func (app *application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
}
