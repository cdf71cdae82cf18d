package speakers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	spk, err := Lookup("deep")
	require.NoError(t, err)
	assert.Equal(t, "deep", spk.Name)
	assert.InDelta(t, 95.0, spk.BaseFreq, 0.001)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("robot")
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown speaker "robot"`)
}

func TestNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"bright", "deep", "default", "narrator"}, Names())
}
