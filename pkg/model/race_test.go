package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseText(t *testing.T) {
	for _, phase := range []Phase{PhaseIdle, PhaseCountdown, PhaseRunning, PhaseFinished} {
		t.Run(phase.String(), func(t *testing.T) {
			text, err := phase.MarshalText()
			require.NoError(t, err)
			var got Phase
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, phase, got)

			data, err := json.Marshal(Event{Type: EventPhaseChanged, Phase: phase})
			require.NoError(t, err)
			assert.Contains(t, string(data), `"phase":"`+phase.String()+`"`)
			var e Event
			require.NoError(t, json.Unmarshal(data, &e))
			assert.Equal(t, phase, e.Phase)
		})
	}
}

func TestPhaseUnmarshalText(t *testing.T) {
	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("RUNNING")))
	assert.Equal(t, PhaseRunning, p)

	err := p.UnmarshalText([]byte("paused"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown phase "paused"`)
	assert.Equal(t, PhaseRunning, p, "unchanged on error")

	require.Error(t, json.Unmarshal([]byte(`{"phase":"warmup"}`), &Snapshot{}))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "countdown", PhaseCountdown.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}
