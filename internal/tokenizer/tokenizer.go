// Package tokenizer is the audio-to-token stage boundary.
package tokenizer

import (
	"fmt"
	"math"
)

// Tokenizer converts an audio signal into a discrete token sequence.
type Tokenizer interface {
	Encode(signal []float32, sampleRate int) ([]int64, error)
}

// MuLawTokenizer is the reference implementation: frames the signal and
// mu-law quantizes each frame's peak into a fixed codebook. Deterministic,
// so outputs are reproducible across runs and devices.
type MuLawTokenizer struct {
	device    string
	frameSize int
	codebook  int
}

// NewMuLawTokenizer binds a tokenizer to a device slot with a 320-sample
// frame and a 1024-entry codebook.
func NewMuLawTokenizer(device string) *MuLawTokenizer {
	return &MuLawTokenizer{device: device, frameSize: 320, codebook: 1024}
}

// Encode quantizes the signal. A successful encode always returns at least
// one token.
func (t *MuLawTokenizer) Encode(signal []float32, sampleRate int) ([]int64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("encode on %s: empty signal", t.device)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("encode on %s: invalid sample rate %d", t.device, sampleRate)
	}

	mu := float64(t.codebook - 1)
	tokens := make([]int64, 0, len(signal)/t.frameSize+1)
	for start := 0; start < len(signal); start += t.frameSize {
		end := start + t.frameSize
		if end > len(signal) {
			end = len(signal)
		}
		var peak float64
		for _, s := range signal[start:end] {
			if v := math.Abs(float64(s)); v > peak {
				peak = v
			}
		}
		if peak > 1 {
			peak = 1
		}
		compressed := math.Log1p(mu*peak) / math.Log1p(mu)
		tokens = append(tokens, int64(math.Round(compressed*mu)))
	}
	return tokens, nil
}
