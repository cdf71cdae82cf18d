package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxparquet/internal/speakers"
)

func TestSynthesize_Deterministic(t *testing.T) {
	spk, err := speakers.Lookup("default")
	require.NoError(t, err)

	s := NewToneSynthesizer("cpu:0", 8000)
	first, err := s.Synthesize("hello", spk)
	require.NoError(t, err)
	second, err := s.Synthesize("hello", spk)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "same prompt must render identically")
}

func TestSynthesize_LengthScalesWithPrompt(t *testing.T) {
	spk, err := speakers.Lookup("default")
	require.NoError(t, err)

	s := NewToneSynthesizer("cpu:0", 8000)
	short, err := s.Synthesize("ab", spk)
	require.NoError(t, err)
	long, err := s.Synthesize("abcd", spk)
	require.NoError(t, err)

	assert.Equal(t, 2*len(short), len(long))
}

func TestSynthesize_SamplesStayInRange(t *testing.T) {
	spk, err := speakers.Lookup("narrator")
	require.NoError(t, err)

	s := NewToneSynthesizer("cpu:0", 8000)
	signal, err := s.Synthesize("bounded output", spk)
	require.NoError(t, err)
	for _, v := range signal {
		require.LessOrEqual(t, v, float32(1.0))
		require.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestSynthesize_Errors(t *testing.T) {
	spk, err := speakers.Lookup("default")
	require.NoError(t, err)

	_, err = NewToneSynthesizer("cpu:0", 8000).Synthesize("", spk)
	assert.ErrorContains(t, err, "empty prompt")

	_, err = NewToneSynthesizer("cpu:0", 0).Synthesize("hi", spk)
	assert.ErrorContains(t, err, "invalid sample rate")
}
