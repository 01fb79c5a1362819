package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/binkrace/pkg/model"
)

func TestStoreCopies(t *testing.T) {
	initial := []model.LeaderboardEntry{{Label: "a", Time: 1}}
	s := New(initial...)
	initial[0].Label = "changed"

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].Label)

	got[0].Label = "changed"
	again, _ := s.Load(context.Background())
	assert.Equal(t, "a", again[0].Label)

	require.NoError(t, s.Save(context.Background(), []model.LeaderboardEntry{{Label: "b"}}))
	again, _ = s.Load(context.Background())
	assert.Equal(t, "b", again[0].Label)
}
