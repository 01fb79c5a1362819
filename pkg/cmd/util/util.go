package util

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // localhost only
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/pflag"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/config"
	"github.com/mpapenbr/binkrace/pkg/db/postgres"
	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/file"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/memory"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/natskv"
	pgstore "github.com/mpapenbr/binkrace/pkg/leaderboard/store/postgres"
	"github.com/mpapenbr/binkrace/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger installs the default logger according to the log flags and
// returns a separate logger for sql statements.
func SetupLogger() (logger, sqlLogger *log.Logger) {
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1),
			log.WithFilterRules(config.LogFilter))
		sqlLogger = log.New(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1),
			log.WithFilterRules(config.LogFilter))
		sqlLogger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)
	return logger, sqlLogger.Named("sql")
}

// RequiredServices returns the addresses the selected store (and optionally
// the NATS publisher) depends on.
func RequiredServices(withNats bool) []string {
	var addrs []string
	if config.Store == config.StorePostgres {
		if addr := utils.ExtractFromDBURL(config.DB); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	if withNats || config.Store == config.StoreNats {
		if addr := utils.ExtractFromNatsURL(config.NatsURL); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// WaitForRequiredServices blocks until all addrs are reachable.
// Unreachable services are fatal.
func WaitForRequiredServices(ctx context.Context, addrs []string) {
	timeout := config.ParseDuration(config.WaitForServices, 60*time.Second)
	wg := sync.WaitGroup{}
	for _, addr := range addrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
				log.Fatal("required services not ready", log.ErrorField(err))
			}
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// OpenStore creates the leaderboard store selected by config.Store.
// The returned func releases its connections.
//
//nolint:whitespace // editor/linter issue
func OpenStore(
	ctx context.Context,
	pgOpts ...postgres.PoolConfigOption,
) (leaderboard.Store, func(), error) {
	noop := func() {}
	switch config.Store {
	case config.StoreMemory:
		return memory.New(), noop, nil
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, config.DB, pgOpts...)
		if err != nil {
			return nil, noop, err
		}
		return pgstore.New(pool,
			pgstore.WithBoard(config.Board),
			pgstore.WithLimit(config.LeaderboardLimit)), pool.Close, nil
	case config.StoreNats:
		nc, err := nats.Connect(config.NatsURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect nats: %w", err)
		}
		s, err := natskv.New(ctx, nc, natskv.WithBoard(config.Board))
		if err != nil {
			nc.Close()
			return nil, noop, err
		}
		return s, nc.Close, nil
	case config.StoreFile, "":
		path := config.LeaderboardFile
		if path == "" {
			path = file.DefaultPath()
		}
		return file.New(path), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", config.Store)
	}
}

func StartProfiling() {
	if config.ProfilingPort <= 0 {
		return
	}
	log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
	go func() {
		//nolint:gosec // localhost only
		err := http.ListenAndServe(
			fmt.Sprintf("localhost:%d", config.ProfilingPort),
			nil)
		if err != nil {
			log.Error("Profiling server stopped", log.ErrorField(err))
		}
	}()
}

func SetupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

// AddLogFlags registers the logging flags shared by all commands.
func AddLogFlags(flags *pflag.FlagSet) {
	flags.StringVar(&config.LogLevel, "log-level", "info",
		"controls the log level (debug, info, warn, error, fatal)")
	flags.StringVar(&config.SQLLogLevel, "sql-log-level", "debug",
		"controls the log level for sql methods")
	flags.StringVar(&config.LogFormat, "log-format", "text",
		"controls the log output format (json, text)")
	flags.StringVar(&config.LogFilter, "log-filter", "",
		"zapfilter rules, e.g. \"*:leaderboard\"")
}

// AddStoreFlags registers the flags selecting the leaderboard store.
func AddStoreFlags(flags *pflag.FlagSet) {
	flags.StringVar(&config.Store, "store", config.StoreFile,
		"leaderboard store (file, postgres, nats, memory)")
	flags.StringVar(&config.Board, "board", "default",
		"name of the leaderboard (postgres, nats)")
	flags.StringVar(&config.LeaderboardFile, "leaderboard-file", "",
		"leaderboard file (default is $HOME/.binkrace/"+file.DefaultFileName+")")
	flags.IntVar(&config.LeaderboardLimit, "leaderboard-limit", leaderboard.DefaultLimit,
		"number of kept leaderboard entries")
	flags.StringVar(&config.NatsURL, "nats-url", "nats://localhost:4222",
		"url of the NATS server")
}
