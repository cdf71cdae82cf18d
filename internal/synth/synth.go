// Package synth is the text-to-audio stage boundary. The pipeline treats a
// Synthesizer as an opaque call that may fail; any implementation that
// produces a PCM float signal can stand behind it.
package synth

import (
	"fmt"
	"math"

	"voxparquet/internal/speakers"
)

// Synthesizer converts prompt text into an audio signal for one speaker.
type Synthesizer interface {
	Synthesize(text string, spk speakers.Speaker) ([]float32, error)
}

// ToneSynthesizer is the reference implementation: a deterministic additive
// tone generator. Each rune contributes a short windowed tone whose pitch is
// derived from the rune and the speaker's base frequency. It exists so the
// pipeline runs end to end without a model runtime attached.
type ToneSynthesizer struct {
	device     string
	sampleRate int
}

// NewToneSynthesizer binds a synthesizer to a device slot. The device string
// is carried for log attribution; the tone generator itself is pure CPU.
func NewToneSynthesizer(device string, sampleRate int) *ToneSynthesizer {
	return &ToneSynthesizer{device: device, sampleRate: sampleRate}
}

// Device reports the device slot this synthesizer is bound to.
func (s *ToneSynthesizer) Device() string { return s.device }

// Synthesize renders text as a sequence of per-rune tones.
func (s *ToneSynthesizer) Synthesize(text string, spk speakers.Speaker) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("synthesize on %s: empty prompt", s.device)
	}
	if s.sampleRate <= 0 {
		return nil, fmt.Errorf("synthesize on %s: invalid sample rate %d", s.device, s.sampleRate)
	}

	// 60ms per rune at neutral rate.
	runeSamples := int(float64(s.sampleRate) * 0.06 / spk.Rate)
	if runeSamples < 1 {
		runeSamples = 1
	}

	runes := []rune(text)
	signal := make([]float32, 0, len(runes)*runeSamples)
	for _, r := range runes {
		freq := spk.BaseFreq * (1 + float64(r%24)/24)
		for i := 0; i < runeSamples; i++ {
			t := float64(i) / float64(s.sampleRate)
			// Hann window keeps tone edges from clicking.
			window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(runeSamples)))
			sample := spk.Gain * 0.5 * window * math.Sin(2*math.Pi*freq*t)
			signal = append(signal, float32(sample))
		}
	}
	return signal, nil
}
