package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type seasonFlags struct {
	showID     string
	season     int
	episodes   int
	title      string
	posterURL  string
	resolution int
	policy     string
	dryRun     bool
}

func newSeasonCommand() *cobra.Command {
	var flags seasonFlags

	cmd := &cobra.Command{
		Use:   "season",
		Short: "Scan a season and queue one download per episode",
		Long: `Scan every episode of a season, pick a target resolution and hand one
download job per episode to the download manager.

Examples:
  reelarr season --show tt0903747 --season 2 --episodes 13 --title "Breaking Bad"
  reelarr season --show tt0903747 --season 2 --episodes 13 --resolution 720 --policy substitute
  reelarr season --show tt0903747 --season 2 --episodes 13 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.showID) == "" {
				return errors.New("--show is required")
			}
			if flags.season < 1 || flags.episodes < 1 {
				return errors.New("--season and --episodes must be positive")
			}
			policy, err := models.ParseMissingPolicy(flags.policy)
			if err != nil {
				return fmt.Errorf("--policy: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSeason(ctx, cmd, flags, policy)
		},
	}

	cmd.Flags().StringVar(&flags.showID, "show", "", "Show identifier")
	cmd.Flags().IntVar(&flags.season, "season", 0, "Season number")
	cmd.Flags().IntVar(&flags.episodes, "episodes", 0, "Number of episodes in the season")
	cmd.Flags().StringVar(&flags.title, "title", "", "Show title used for job names")
	cmd.Flags().StringVar(&flags.posterURL, "poster", "", "Poster URL attached to jobs")
	cmd.Flags().IntVar(&flags.resolution, "resolution", 0, "Target resolution (default: most available)")
	cmd.Flags().StringVar(&flags.policy, "policy", string(models.PolicySkip), "Missing episode policy: abort, skip or substitute")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Scan and report without queueing")

	return cmd
}

func runSeason(ctx context.Context, cmd *cobra.Command, flags seasonFlags, policy models.MissingPolicy) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	title := flags.title
	if title == "" {
		title = flags.showID
	}

	onProgress := func(p controllers.BatchProgress) {
		a.logger.WithFields(logrus.Fields{
			"current": p.Current,
			"total":   p.Total,
		}).Info(p.Status)
	}

	plan, err := a.seasonCtrl.Plan(ctx, flags.showID, flags.season, controllers.EpisodeRange(flags.episodes), flags.resolution, onProgress)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Season %d availability:\n", flags.season)
	for _, avail := range plan.Scan.Availability {
		fmt.Fprintf(out, "  %dp: %d/%d episodes\n", avail.ResolutionP, avail.EpisodeCount, len(plan.Scan.Records))
	}
	fmt.Fprintf(out, "Target: %dp, missing %d episodes\n", plan.Resolution, len(plan.Missing))
	for _, missing := range plan.Missing {
		fmt.Fprintf(out, "  %s (alternatives: %v)\n", missing.DisplayName, missing.Alternatives)
	}

	if flags.dryRun {
		return nil
	}

	summary, err := a.seasonCtrl.Queue(ctx, plan, title, flags.posterURL, policy)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Queued %d, failed %d\n", summary.Queued, summary.Failed)
	if len(summary.FailedEpisodes) > 0 {
		fmt.Fprintf(out, "Failed episodes: %v\n", summary.FailedEpisodes)
	}
	return nil
}
