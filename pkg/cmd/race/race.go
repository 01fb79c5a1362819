package race

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/cmd/util"
	"github.com/mpapenbr/binkrace/pkg/config"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/processing/progress"
	raceProc "github.com/mpapenbr/binkrace/pkg/processing/race"
	"github.com/mpapenbr/binkrace/pkg/track"
)

var appConfig config.Config // holds processed config values

func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "runs a headless race with an autopilot for the player",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.Config{
				FrameInterval: config.ParseDuration(config.FrameInterval, time.Second/60),
				MaxTime:       config.ParseDuration(config.MaxTime, 5*time.Minute),
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace(cmd.Context(), cmd.OutOrStdout())
		},
	}
	util.AddLogFlags(cmd.Flags())
	util.AddStoreFlags(cmd.Flags())
	cmd.Flags().StringVar(&config.TrackFile, "track", "",
		"yaml file with the track geometry (default track if empty)")
	cmd.Flags().IntVar(&config.TotalLaps, "laps", model.DefaultTotalLaps,
		"laps per race")
	cmd.Flags().StringVar(&config.FrameInterval, "frame-interval", "16ms",
		"simulated time between two frames")
	cmd.Flags().StringVar(&config.MaxTime, "max-time", "5m",
		"stop the race after this simulated time")
	return cmd
}

func runRace(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, _ := util.SetupLogger()
	ctx = log.AddToContext(ctx, logger)
	util.WaitForRequiredServices(ctx, util.RequiredServices(false))

	tr, err := track.LoadFile(config.TrackFile)
	if err != nil {
		return err
	}
	store, closeStore, err := util.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	board := leaderboard.New(ctx,
		leaderboard.WithStore(store),
		leaderboard.WithLimit(config.LeaderboardLimit))
	rp := raceProc.NewRaceProcessor(
		raceProc.WithTrack(tr),
		raceProc.WithTotalLaps(config.TotalLaps))
	proc := processing.NewProcessor(
		processing.WithContext(ctx),
		processing.WithRaceProcessor(rp),
		processing.WithInputSource(control.NewLaneKeeper(tr)),
		processing.WithLeaderboard(board))

	log.Info("Starting headless race",
		log.String("track", tr.Name),
		log.Int("laps", config.TotalLaps),
		log.Duration("frame", appConfig.FrameInterval))
	snap, events := proc.Simulate(appConfig.FrameInterval, appConfig.MaxTime)
	log.Debug("race done", log.Int("events", len(events)), log.String("phase", snap.Phase.String()))

	printResult(out, rp, snap)
	printLeaderboard(out, board.Entries())
	return nil
}

func printResult(out io.Writer, rp *raceProc.RaceProcessor, snap model.Snapshot) {
	fmt.Fprintf(out, "Race %s: %s after %s\n\n",
		snap.RaceID, snap.Phase, leaderboard.FormatTime(snap.Elapsed))
	standings := progress.Standings(rp.State().Racers, rp.Track())
	for i, r := range standings {
		marker := " "
		if r.IsPlayer {
			marker = "*"
		}
		result := fmt.Sprintf("lap %d/%d", min(r.CompletedLaps+1, snap.TotalLaps), snap.TotalLaps)
		if r.Finished {
			result = leaderboard.FormatTime(r.FinishTime)
		}
		fmt.Fprintf(out, "%s P%d %-10s %-9s %s\n", marker, i+1, r.Name, result, lapTimes(r.LapHistory))
	}
}

// lapTimes renders the duration of each lap from the cumulative lap history.
func lapTimes(history []float64) string {
	laps := lo.Map(history, func(t float64, i int) string {
		if i == 0 {
			return leaderboard.FormatTime(t)
		}
		return leaderboard.FormatTime(t - history[i-1])
	})
	return strings.Join(laps, " ")
}

func printLeaderboard(out io.Writer, entries []model.LeaderboardEntry) {
	fmt.Fprintln(out, "\nLeaderboard")
	if len(entries) == 0 {
		fmt.Fprintln(out, "  no entries")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(out, "%2d. %-20s %s\n", i+1, e.Label, leaderboard.FormatTime(e.Time))
	}
}
