package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/binkrace/pkg/config"
	"github.com/mpapenbr/binkrace/pkg/model"
)

func setupFileStore(t *testing.T, entries ...model.LeaderboardEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewLeaderboardCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestListAndClear(t *testing.T) {
	path := setupFileStore(t,
		model.LeaderboardEntry{Label: "P1 • 10/18/2026", Time: 58.35, RecordedAt: time.Now()},
		model.LeaderboardEntry{Label: "P3 • 10/17/2026", Time: 62.9, RecordedAt: time.Now()},
	)
	defer func() { config.LeaderboardFile = "" }()

	out, err := run(t, "list", "--store", "file", "--leaderboard-file", path, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, " 1. P1 • 10/18/2026")
	assert.Contains(t, out, "00:58.3")
	assert.Contains(t, out, " 2. P3 • 10/17/2026")

	out, err = run(t, "clear", "--store", "file", "--leaderboard-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "leaderboard cleared")

	out, err = run(t, "list", "--store", "file", "--leaderboard-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no entries")
}

func TestWatchRequiresNats(t *testing.T) {
	_, err := run(t, "watch", "--store", "memory")
	assert.ErrorIs(t, err, errWatchUnsupported)
}
