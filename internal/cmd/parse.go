package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/smitelog/pkg/combatlog"
	"github.com/leighmacdonald/smitelog/pkg/log"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "parse <logfile> [logfile...]",
		Short: "Normalize combat log files and store the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, errApp := newApplication(ctx, !dryRun)
			if errApp != nil {
				return errApp
			}

			defer app.close()

			engine := combatlog.New(app.conf.Parser.EngineConfig())

			for _, path := range args {
				var (
					result *combatlog.Result
					err    error
				)

				if dryRun {
					result, err = engine.ProcessFile(ctx, path)
				} else {
					result, err = app.matches.IngestFile(ctx, path)
				}

				if err != nil {
					slog.Error("Failed to process log file",
						slog.String("path", path), log.ErrAttr(err))

					return err
				}

				printSummary(cmd, result)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Parse without saving to the database")

	return cmd
}

func printSummary(cmd *cobra.Command, result *combatlog.Result) {
	summary := result.Summary

	cmd.Printf("%s: %d lines (%d skipped), %d players, %d entities\n",
		result.Info.MatchID, summary.LinesRead, summary.LinesSkipped,
		summary.Players, summary.Entities)
	cmd.Printf("  events: %d combat, %d reward, %d item, %d player (%d unknown)\n",
		summary.CombatEvents, summary.RewardEvents, summary.ItemEvents,
		summary.PlayerEvents, summary.UnknownEvents)

	dropped := summary.DroppedCombat + summary.DroppedReward + summary.DroppedItem + summary.DroppedPlayer
	if dropped > 0 {
		cmd.Printf("  dropped: %d combat, %d reward, %d item, %d player\n",
			summary.DroppedCombat, summary.DroppedReward, summary.DroppedItem,
			summary.DroppedPlayer)
	}

	cmd.Printf("  derived: %d stat rows, %d timeline events\n",
		summary.PlayerStats, summary.TimelineEvents)
}
