package metrics

import (
	"context"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/ttsport"
)

// instrumentedSynthesizer wraps a ttsport.Synthesizer so the Audio
// Dispatcher's synthesis calls are observed without touching its own logic.
type instrumentedSynthesizer struct {
	ttsport.Synthesizer
	metrics *Metrics
}

// WrapSynthesizer returns a ttsport.Synthesizer that records ObserveTTSCall
// for every Synthesize call.
func WrapSynthesizer(s ttsport.Synthesizer, m *Metrics) ttsport.Synthesizer {
	return &instrumentedSynthesizer{Synthesizer: s, metrics: m}
}

func (s *instrumentedSynthesizer) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	start := time.Now()
	audio, err := s.Synthesizer.Synthesize(ctx, text, voice, language)
	s.metrics.ObserveTTSCall(err, time.Since(start))
	return audio, err
}
