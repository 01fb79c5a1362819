package config

import "time"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules, e.g. "*:leaderboard"
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry, "stdout" prints metrics
	ProfilingPort      int    // port for profiling
	ServerAddr         string // listen addr for the http server
	NatsURL            string // url of the NATS server
	NatsPrefix         string // subject prefix for published race data
	Store              string // leaderboard store: file, postgres, nats, memory
	Board              string // name of the leaderboard (postgres, nats)
	LeaderboardFile    string // path of the leaderboard file
	LeaderboardLimit   int    // number of kept leaderboard entries
	TrackFile          string // yaml file with the track geometry, empty for the default track
	TotalLaps          int    // laps per race
	FrameInterval      string // duration between two frames of the live loop
	MaxTime            string // max simulated time of a headless race
	AutoStart          bool   // start a race when the server starts
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreNats     = "nats"
	StoreMemory   = "memory"
)

// Config holds the configuration values which are used by the application
type Config struct {
	FrameInterval time.Duration
	MaxTime       time.Duration
}

// ParseDuration returns defaultVal if s is not a valid positive duration.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
