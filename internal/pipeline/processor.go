package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"voxparquet/internal/dataset"
	"voxparquet/internal/sink"
	"voxparquet/internal/speakers"
	"voxparquet/internal/synth"
	"voxparquet/internal/tokenizer"
)

// ItemProcessor runs the per-item conversion: synthesize the prompt, encode
// the signal, serialize both payloads. Each item gets up to maxRetries
// attempts; every failed attempt is logged with the attempt number and item
// index, and only exhaustion surfaces as an error.
type ItemProcessor struct {
	synth      synth.Synthesizer
	tok        tokenizer.Tokenizer
	speaker    speakers.Speaker
	sampleRate int
	maxRetries int
	logger     *slog.Logger
}

// NewItemProcessor wires the two conversion stages for one worker.
func NewItemProcessor(s synth.Synthesizer, t tokenizer.Tokenizer, spk speakers.Speaker, sampleRate, maxRetries int, logger *slog.Logger) *ItemProcessor {
	return &ItemProcessor{
		synth:      s,
		tok:        t,
		speaker:    spk,
		sampleRate: sampleRate,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Process converts one item, retrying transient stage failures. The returned
// record carries the item's own index, so interleaving with other items'
// retries cannot mix payloads up.
func (p *ItemProcessor) Process(item dataset.Item) (sink.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		rec, err := p.attempt(item)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		p.logger.Warn("Attempt failed.",
			slog.Int("attempt", attempt),
			slog.Int64("index", item.Index),
			"error", err,
		)
	}
	p.logger.Error("All attempts failed.", slog.Int64("index", item.Index))
	return sink.Record{}, fmt.Errorf("item %d failed after %d attempts: %w", item.Index, p.maxRetries, lastErr)
}

func (p *ItemProcessor) attempt(item dataset.Item) (sink.Record, error) {
	signal, err := p.synth.Synthesize(item.Prompt, p.speaker)
	if err != nil {
		return sink.Record{}, fmt.Errorf("synthesize: %w", err)
	}
	tokens, err := p.tok.Encode(signal, p.sampleRate)
	if err != nil {
		return sink.Record{}, fmt.Errorf("encode: %w", err)
	}

	audioJSON, err := json.Marshal(signal)
	if err != nil {
		return sink.Record{}, fmt.Errorf("serialize audio: %w", err)
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return sink.Record{}, fmt.Errorf("serialize tokens: %w", err)
	}
	return sink.Record{
		Index:  item.Index,
		Audio:  string(audioJSON),
		Tokens: string(tokensJSON),
	}, nil
}
