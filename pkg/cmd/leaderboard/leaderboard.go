package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/cmd/util"
	"github.com/mpapenbr/binkrace/pkg/config"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/natskv"
	"github.com/mpapenbr/binkrace/pkg/model"
)

var errWatchUnsupported = errors.New("watch requires the nats store")

func NewLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "inspect and maintain the leaderboard",
	}
	util.AddLogFlags(cmd.PersistentFlags())
	util.AddStoreFlags(cmd.PersistentFlags())
	cmd.AddCommand(newListCmd(), newClearCmd(), newWatchCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "prints the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd.Context(), func(ctx context.Context, lb *leaderboard.Leaderboard) error {
				printEntries(cmd.OutOrStdout(), lb.Entries())
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "removes all leaderboard entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd.Context(), func(ctx context.Context, lb *leaderboard.Leaderboard) error {
				if err := lb.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
				return nil
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "prints the leaderboard whenever it changes (nats store only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Store != config.StoreNats {
				return errWatchUnsupported
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return withStore(ctx, func(ctx context.Context, s leaderboard.Store) error {
				kv, ok := s.(*natskv.Store)
				if !ok {
					return errWatchUnsupported
				}
				return kv.Watch(ctx, func(entries []model.LeaderboardEntry) {
					printEntries(cmd.OutOrStdout(), entries)
				})
			})
		},
	}
}

func withStore(ctx context.Context, fn func(context.Context, leaderboard.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, _ := util.SetupLogger()
	ctx = log.AddToContext(ctx, logger)
	util.WaitForRequiredServices(ctx, util.RequiredServices(false))
	store, closeStore, err := util.OpenStore(ctx)
	if err != nil {
		log.Error("could not open leaderboard store", log.ErrorField(err))
		return err
	}
	defer closeStore()
	return fn(ctx, store)
}

//nolint:whitespace // editor/linter issue
func withBoard(
	ctx context.Context,
	fn func(context.Context, *leaderboard.Leaderboard) error,
) error {
	return withStore(ctx, func(ctx context.Context, s leaderboard.Store) error {
		return fn(ctx, leaderboard.New(ctx,
			leaderboard.WithStore(s),
			leaderboard.WithLimit(config.LeaderboardLimit)))
	})
}

func printEntries(out io.Writer, entries []model.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "no entries")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(out, "%2d. %-20s %s  %s\n",
			i+1, e.Label, leaderboard.FormatTime(e.Time), e.RecordedAt.Local().Format("2006-01-02 15:04"))
	}
}
