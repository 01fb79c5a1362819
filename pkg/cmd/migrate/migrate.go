package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/binkrace/log"
	"github.com/mpapenbr/binkrace/pkg/cmd/util"
	"github.com/mpapenbr/binkrace/pkg/config"
	dbmigrate "github.com/mpapenbr/binkrace/pkg/db/migrate"
	"github.com/mpapenbr/binkrace/pkg/utils"
)

var showStatus bool

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration of the leaderboard schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			if showStatus {
				return printStatus()
			}
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (embedded migrations if empty)")
	cmd.Flags().BoolVar(&showStatus,
		"status",
		false,
		"print the current schema version and exit")
	util.AddLogFlags(cmd.Flags())

	return cmd
}

func waitForDB() {
	timeout := config.ParseDuration(config.WaitForServices, 60*time.Second)
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err := utils.WaitForTCP(context.Background(), postgresAddr, timeout); err != nil {
		log.Fatal("database  not ready", log.ErrorField(err))
	}
}

func startMigration() error {
	waitForDB()
	dbURL := prepareURLForDB(config.DB)

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		return dbmigrate.MigrateDb(dbURL)
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	m, err := migrate.New(config.MigrationSourceURL, dbURL)
	if err != nil {
		log.Error("Could not create migration", log.ErrorField(err))
		return err
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	return err
}

func printStatus() error {
	waitForDB()
	version, dirty, err := dbmigrate.Version(prepareURLForDB(config.DB))
	if err != nil {
		return err
	}
	fmt.Printf("schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, options) {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	} else {
		return fmt.Sprintf("%s?%s", url, options)
	}
}
