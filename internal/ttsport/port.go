// Package ttsport is the TTS port: Synthesize(text) -> bytes. The
// vendor wire protocol is explicitly out of scope; the Audio Dispatcher (C8)
// depends only on this interface.
package ttsport

import "context"

// Synthesizer turns text into audio bytes for one voice/language pair.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, error)
}
