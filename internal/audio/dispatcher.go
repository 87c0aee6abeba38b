// Package audio implements the Audio Dispatcher (C8): resolves a
// {phrase_category, phrase_id?, dynamic_text?} triple from the Response
// Aggregator into a playable URL, synthesizing and caching on a miss.
// Every failure is logged and degrades to a null URL — it never propagates
// to the orchestrator.
package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/drivethru-ai/conversation-core/internal/aggregator"
	"github.com/drivethru-ai/conversation-core/internal/objectstore"
	"github.com/drivethru-ai/conversation-core/internal/ttsport"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

const mimeAudioMPEG = "audio/mpeg"

// Dispatcher resolves a Response into a URL.
type Dispatcher struct {
	store objectstore.Store
	tts   ttsport.Synthesizer
	log   *logger.Logger
}

func New(store objectstore.Store, tts ttsport.Synthesizer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{store: store, tts: tts, log: log}
}

func cannedKey(restaurantID int64, phraseID aggregator.PhraseID) string {
	return fmt.Sprintf("restaurants/%d/canned/%s.mp3", restaurantID, phraseID)
}

func dynamicKey(restaurantID int64, voice, language, text string) string {
	sum := sha256.Sum256([]byte(voice + "|" + language + "|" + text))
	return fmt.Sprintf("restaurants/%d/tts/%s.mp3", restaurantID, hex.EncodeToString(sum[:]))
}

// Resolve turns a Response into a URL. An empty/whitespace DYNAMIC text
// returns "" immediately — the orchestrator still returns the text itself.
func (d *Dispatcher) Resolve(ctx context.Context, restaurantID int64, resp aggregator.Response, voice, language string) string {
	if resp.Category == aggregator.DYNAMIC && strings.TrimSpace(resp.Text) == "" {
		return ""
	}

	var key string
	if resp.Category == aggregator.CANNED {
		key = cannedKey(restaurantID, resp.PhraseID)
	} else {
		key = dynamicKey(restaurantID, voice, language, resp.Text)
	}

	if url, err := d.store.Get(ctx, key); err != nil {
		d.log.WithError(err).Warn("audio dispatcher: object store get failed for key %s", key)
	} else if url != "" {
		return url
	}

	audioBytes, err := d.tts.Synthesize(ctx, resp.Text, voice, language)
	if err != nil {
		d.log.WithError(err).Warn("audio dispatcher: synthesis failed for key %s", key)
		return ""
	}

	url, err := d.store.Put(ctx, key, audioBytes, mimeAudioMPEG)
	if err != nil {
		d.log.WithError(err).Warn("audio dispatcher: object store put failed for key %s", key)
		return ""
	}
	return url
}
