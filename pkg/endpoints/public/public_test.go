//nolint:funlen // ok for tests
package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/binkrace/pkg/leaderboard"
	"github.com/mpapenbr/binkrace/pkg/leaderboard/store/memory"
	"github.com/mpapenbr/binkrace/pkg/model"
	"github.com/mpapenbr/binkrace/pkg/processing"
	"github.com/mpapenbr/binkrace/pkg/processing/control"
	"github.com/mpapenbr/binkrace/pkg/utils/broadcast"
)

func setupServer(t *testing.T, opts ...Option) (*httptest.Server, *control.Static) {
	t.Helper()
	input := control.NewStatic(model.Input{})
	lb := leaderboard.New(context.Background(),
		leaderboard.WithStore(memory.New(model.LeaderboardEntry{Label: "P1 • 1/2/2026", Time: 61.25})))
	proc := processing.NewProcessor(
		processing.WithInputSource(input),
		processing.WithLeaderboard(lb))
	opts = append([]Option{WithProcessor(proc), WithInput(input)}, opts...)
	srv := httptest.NewServer(NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, input
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ret))
	return ret
}

func TestTrack(t *testing.T) {
	srv, _ := setupServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/track", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decode[model.Track](t, resp)
	assert.Equal(t, *model.DefaultTrack(), tr)
}

func TestRacePhases(t *testing.T) {
	srv, _ := setupServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/race", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.PhaseIdle, decode[model.Snapshot](t, resp).Phase)

	resp = do(t, http.MethodPost, srv.URL+"/api/race/reset", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "reset from idle")

	resp = do(t, http.MethodPost, srv.URL+"/api/race/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[model.Snapshot](t, resp)
	assert.Equal(t, model.PhaseCountdown, snap.Phase)
	assert.Equal(t, model.CountdownSeconds, snap.Countdown)
	assert.NotEmpty(t, snap.RaceID)

	resp = do(t, http.MethodPost, srv.URL+"/api/race/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "restart")
	assert.NotEqual(t, snap.RaceID, decode[model.Snapshot](t, resp).RaceID)

	resp = do(t, http.MethodPost, srv.URL+"/api/race/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.PhaseIdle, decode[model.Snapshot](t, resp).Phase)
}

func TestInput(t *testing.T) {
	srv, input := setupServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/input", `{"forward":true,"left":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, model.Input{Forward: true, Left: true}, input.Input(nil))

	resp = do(t, http.MethodPut, srv.URL+"/api/input", `{"forward":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, model.Input{Forward: true, Left: true}, input.Input(nil), "unchanged")
}

func TestLeaderboard(t *testing.T) {
	srv, _ := setupServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/leaderboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lb := decode[leaderboardResponse](t, resp)
	assert.Equal(t, leaderboard.DefaultLimit, lb.Limit)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "P1 • 1/2/2026", lb.Entries[0].Label)
	assert.Equal(t, "01:01.2", lb.Entries[0].Formatted)

	resp = do(t, http.MethodDelete, srv.URL+"/api/leaderboard", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/leaderboard", "")
	assert.Empty(t, decode[leaderboardResponse](t, resp).Entries)
}

func TestLeaderboardMissing(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()
	resp := do(t, http.MethodGet, srv.URL+"/api/leaderboard", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/ws", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no snapshots configured")
}

func TestCORS(t *testing.T) {
	srv, _ := setupServer(t)
	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodGet, srv.URL+"/api/race", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://renderer.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://renderer.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebsocket(t *testing.T) {
	source := make(chan model.Snapshot)
	b := broadcast.NewBroadcastServer("test", source,
		broadcast.WithSendTimeout[model.Snapshot](2*time.Second))
	defer b.Close()
	srv, input := setupServer(t, WithSnapshots(b))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	var snap model.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, model.PhaseIdle, snap.Phase, "initial snapshot")

	require.NoError(t, conn.WriteJSON(model.Input{Forward: true}))
	assert.Eventually(t, func() bool {
		return input.Input(nil) == model.Input{Forward: true}
	}, time.Second, 10*time.Millisecond)

	source <- model.Snapshot{RaceID: "pushed", Phase: model.PhaseRunning}
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "pushed", snap.RaceID)
	assert.Equal(t, model.PhaseRunning, snap.Phase)
}
