package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/smitelog/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func matchesCmd() *cobra.Command {
	var (
		mapName  string
		gameMode string
		limit    uint64
	)

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List stored matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := newApplication(ctx, true)
			if errApp != nil {
				return errApp
			}

			defer app.close()

			matches, count, errMatches := app.matches.Matches(ctx, domain.MatchesQueryOpts{
				MapName:  mapName,
				GameMode: gameMode,
				Limit:    limit,
			})
			if errMatches != nil {
				return errMatches
			}

			tbl := tablewriter.NewTable(cmd.OutOrStdout())
			tbl.Header("Match", "Map", "Mode", "Started", "Duration", "Players")

			for _, summary := range matches {
				started := ""
				if !summary.StartedOn.IsZero() && summary.StartedOn.Unix() != 0 {
					started = summary.StartedOn.Format(time.DateTime)
				}

				if errAppend := tbl.Append(summary.MatchID, summary.MapName, summary.GameMode,
					started, (time.Duration(summary.Duration) * time.Second).String(),
					strconv.Itoa(summary.Players)); errAppend != nil {
					return errAppend
				}
			}

			if errRender := tbl.Render(); errRender != nil {
				return errRender
			}

			cmd.Printf("%d of %d match(es)\n", len(matches), count)

			return nil
		},
	}

	cmd.Flags().StringVarP(&mapName, "map", "m", "", "Filter by map name")
	cmd.Flags().StringVarP(&gameMode, "mode", "g", "", "Filter by game mode")
	cmd.Flags().Uint64VarP(&limit, "limit", "l", 25, "Maximum rows to return")

	return cmd
}

func infoCmd() *cobra.Command {
	var showTimeline bool

	cmd := &cobra.Command{
		Use:   "info <match-id>",
		Short: "Show the stored summary, stats and timeline for a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			matchID := args[0]

			app, errApp := newApplication(ctx, true)
			if errApp != nil {
				return errApp
			}

			defer app.close()

			var summary domain.MatchSummary
			if errMatch := app.matches.MatchGetByID(ctx, matchID, &summary); errMatch != nil {
				return errMatch
			}

			cmd.Printf("%s  map=%s mode=%s duration=%s players=%d\n",
				summary.MatchID, summary.MapName, summary.GameMode,
				(time.Duration(summary.Duration) * time.Second).String(), summary.Players)

			stats, errStats := app.matches.PlayerStats(ctx, matchID)
			if errStats != nil {
				return errStats
			}

			tbl := tablewriter.NewTable(cmd.OutOrStdout())
			tbl.Header("Player", "Team", "K", "D", "A", "Damage", "Taken", "Healing", "Gold", "XP")

			for _, stat := range stats {
				if errAppend := tbl.Append(stat.Player, stat.Team.String(),
					strconv.Itoa(stat.Kills), strconv.Itoa(stat.Deaths), strconv.Itoa(stat.Assists),
					humanize.Comma(int64(stat.DamageDealt)), humanize.Comma(int64(stat.DamageTaken)),
					humanize.Comma(int64(stat.HealingDone)), humanize.Comma(int64(stat.GoldEarned)),
					humanize.Comma(int64(stat.ExperienceEarned))); errAppend != nil {
					return errAppend
				}
			}

			if errRender := tbl.Render(); errRender != nil {
				return errRender
			}

			if !showTimeline {
				return nil
			}

			timeline, errTimeline := app.matches.Timeline(ctx, matchID)
			if errTimeline != nil {
				return errTimeline
			}

			for _, event := range timeline {
				cmd.Printf("[%s] %-9s %d  %s\n",
					fmtOffset(event.Offset), event.Category.String(), event.Importance,
					event.Description)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Include the curated timeline")

	return cmd
}

func fmtOffset(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
