package mytypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLapTimes(t *testing.T) {
	v, err := LapTimes{31.5, 62.25}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[31.5,62.25]"), v)

	v, err = LapTimes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var got LapTimes
	require.NoError(t, got.Scan([]byte("[1,2.5]")))
	assert.Equal(t, LapTimes{1, 2.5}, got)
	require.NoError(t, got.Scan("[3]"))
	assert.Equal(t, LapTimes{3}, got)
	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
	assert.Error(t, got.Scan(42))
}
