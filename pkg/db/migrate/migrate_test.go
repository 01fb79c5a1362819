package migrate

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://u:p@host:5432/db", "pgx://u:p@host:5432/db"},
		{"postgres://u:p@host/db?sslmode=disable", "pgx://u:p@host/db?sslmode=disable"},
		{"pgx://host/db", "pgx://host/db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pgxURL(tt.in))
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"migrations/000001_leaderboard.up.sql",
		"migrations/000001_leaderboard.down.sql",
	}, files)
}
