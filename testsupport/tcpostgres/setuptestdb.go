//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/binkrace/pkg/db/migrate"
	database "github.com/mpapenbr/binkrace/pkg/db/postgres"
)

// SetupTestDb starts (or reuses) the binkrace test container and returns a
// pool for the migrated database.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := StartContainer(ctx, WithName("binkrace-test"))
	if err != nil {
		log.Fatal(err)
	}
	dbUrl, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setup(dbUrl)
}

// uses the database given by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return setup(os.Getenv("TESTDB_URL"))
}

func setup(dbUrl string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbUrl); err != nil {
		log.Fatal(err)
	}
	return database.InitWithUrl(dbUrl)
}

func ClearLeaderboardTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from leaderboard")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearLeaderboardTable(pool)
}
