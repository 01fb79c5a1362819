package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/cmd/util"
	"github.com/mpapenbr/binkrace/pkg/config"
	"github.com/mpapenbr/binkrace/pkg/db/postgres"
	"github.com/mpapenbr/binkrace/pkg/endpoints/public"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/processing/race"
	natspub "github.com/mpapenbr/binkrace/pkg/publish/nats"
	"github.com/mpapenbr/binkrace/pkg/track"
	"github.com/mpapenbr/binkrace/pkg/utils/broadcast"
)

var (
	appConfig   config.Config // holds processed config values
	publishNats bool
)

//nolint:funlen // flag list
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "runs the live race loop and serves it via http and websocket",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.Config{
				FrameInterval: config.ParseDuration(config.FrameInterval, time.Second/60),
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8080",
		"http server listen address")
	util.AddLogFlags(cmd.Flags())
	util.AddStoreFlags(cmd.Flags())
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout prints metrics)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().BoolVar(&publishNats,
		"publish-nats",
		false,
		"publish snapshots and events to NATS")
	cmd.Flags().StringVar(&config.NatsPrefix,
		"nats-prefix",
		natspub.DefaultPrefix,
		"subject prefix for published race data")
	cmd.Flags().StringVar(&config.TrackFile, "track", "",
		"yaml file with the track geometry (default track if empty)")
	cmd.Flags().IntVar(&config.TotalLaps, "laps", model.DefaultTotalLaps,
		"laps per race")
	cmd.Flags().StringVar(&config.FrameInterval, "frame-interval", "16ms",
		"time between two frames")
	cmd.Flags().BoolVar(&config.AutoStart, "auto-start", false,
		"start a race right away")
	return cmd
}

//nolint:funlen,cyclop // startup sequence
func startServer() error {
	logger, sqlLogger := util.SetupLogger()
	var telemetry *config.Telemetry

	log.Debug("Config:",
		log.String("addr", config.ServerAddr),
		log.String("store", config.Store),
		log.String("board", config.Board),
		log.Duration("frame", appConfig.FrameInterval),
	)

	ctx, cancel := context.WithCancel(log.AddToContext(context.Background(), logger))
	defer cancel()

	util.StartProfiling()
	util.WaitForRequiredServices(ctx, util.RequiredServices(publishNats))

	pgTraceOption := postgres.WithTracer(sqlLogger)
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			pgTraceOption = postgres.WithOtel()
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	tr, err := track.LoadFile(config.TrackFile)
	if err != nil {
		log.Error("could not load track", log.ErrorField(err))
		return err
	}
	store, closeStore, err := util.OpenStore(ctx, pgTraceOption)
	if err != nil {
		log.Error("could not open leaderboard store", log.ErrorField(err))
		return err
	}
	defer closeStore()

	snapshots := make(chan model.Snapshot, 1)
	snapshotServer := broadcast.NewBroadcastServer("snapshots", snapshots)
	input := control.NewStatic(model.Input{})
	proc := processing.NewProcessor(
		processing.WithContext(ctx),
		processing.WithRaceProcessor(race.NewRaceProcessor(
			race.WithTrack(tr),
			race.WithTotalLaps(config.TotalLaps))),
		processing.WithInputSource(input),
		processing.WithLeaderboard(leaderboard.New(ctx,
			leaderboard.WithStore(store),
			leaderboard.WithLimit(config.LeaderboardLimit))),
		processing.WithSnapshotSink(snapshots),
	)

	if publishNats {
		nc, err := nats.Connect(config.NatsURL)
		if err != nil {
			log.Error("could not connect to nats", log.ErrorField(err))
			return err
		}
		defer nc.Close()
		natspub.NewPublisher(nc, natspub.WithPrefix(config.NatsPrefix)).
			Attach(snapshotServer.Subscribe())
	}

	if config.AutoStart {
		if err := proc.Start(); err != nil {
			log.Warn("could not start race", log.ErrorField(err))
		}
	}
	go func() {
		if err := proc.Run(ctx, appConfig.FrameInterval); err != nil {
			log.Error("race loop stopped", log.ErrorField(err))
		}
	}()

	pub := public.NewServer(
		public.WithProcessor(proc),
		public.WithInput(input),
		public.WithSnapshots(snapshotServer))
	//nolint:gosec // no timeouts needed
	server := &http.Server{
		Addr:    config.ServerAddr,
		Handler: h2c.NewHandler(pub.Handler(), &http2.Server{}),
	}
	go func() {
		log.Info("Starting http server", log.String("addr", config.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server could not be started", log.ErrorField(err))
		}
	}()
	log.Info("Server started")
	util.SetupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	v := <-sigChan
	log.Debug("Got signal ", log.Any("signal", v))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("error shutting down http server", log.ErrorField(err))
	}
	snapshotServer.Close()
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	_ = log.Sync()
	return nil
}
