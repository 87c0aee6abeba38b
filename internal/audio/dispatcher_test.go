package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drivethru-ai/conversation-core/internal/aggregator"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

type fakeObjectStore struct {
	getURL   string
	getErr   error
	putURL   string
	putErr   error
	putCalls int
	getCalls int
	lastKey  string
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.putCalls++
	f.lastKey = key
	return f.putURL, f.putErr
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (string, error) {
	f.getCalls++
	f.lastKey = key
	return f.getURL, f.getErr
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	return f.audio, f.err
}

func TestResolve_EmptyDynamicText_ShortCircuits(t *testing.T) {
	store := &fakeObjectStore{}
	synth := &fakeSynth{}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{Category: aggregator.DYNAMIC, Text: "   "}, "alloy", "en")
	assert.Empty(t, url)
	assert.Zero(t, store.getCalls)
	assert.Zero(t, store.putCalls)
}

func TestResolve_CacheHit_SkipsSynthesis(t *testing.T) {
	store := &fakeObjectStore{getURL: "https://objects.test/cached.mp3"}
	synth := &fakeSynth{}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{
		Category: aggregator.CANNED, PhraseID: aggregator.PhraseSmallTalkAck,
	}, "alloy", "en")

	assert.Equal(t, "https://objects.test/cached.mp3", url)
	assert.Equal(t, 1, store.getCalls)
	assert.Zero(t, store.putCalls)
}

func TestResolve_CacheMiss_SynthesizesAndStores(t *testing.T) {
	store := &fakeObjectStore{getURL: "", putURL: "https://objects.test/fresh.mp3"}
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{
		Category: aggregator.DYNAMIC, Text: "your total is $12.34",
	}, "alloy", "en")

	assert.Equal(t, "https://objects.test/fresh.mp3", url)
	assert.Equal(t, 1, store.getCalls)
	assert.Equal(t, 1, store.putCalls)
}

func TestResolve_GetFailure_DegradesToSynthesis(t *testing.T) {
	store := &fakeObjectStore{getErr: errors.New("transport error"), putURL: "https://objects.test/fresh.mp3"}
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{
		Category: aggregator.CANNED, PhraseID: aggregator.PhraseNothingToRepeat,
	}, "alloy", "en")

	assert.Equal(t, "https://objects.test/fresh.mp3", url)
}

func TestResolve_SynthesisFailure_DegradesToEmptyURL(t *testing.T) {
	store := &fakeObjectStore{}
	synth := &fakeSynth{err: errors.New("tts backend down")}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{
		Category: aggregator.DYNAMIC, Text: "something went wrong",
	}, "alloy", "en")

	assert.Empty(t, url)
}

func TestResolve_StorePutFailure_DegradesToEmptyURL(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("disk full")}
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	d := New(store, synth, logger.New("audio-test"))

	url := d.Resolve(context.Background(), 7, aggregator.Response{
		Category: aggregator.DYNAMIC, Text: "anything",
	}, "alloy", "en")

	assert.Empty(t, url)
}

func TestResolve_CannedAndDynamic_UseDistinctKeys(t *testing.T) {
	store := &fakeObjectStore{}
	synth := &fakeSynth{audio: []byte("x")}
	d := New(store, synth, logger.New("audio-test"))

	d.Resolve(context.Background(), 7, aggregator.Response{Category: aggregator.CANNED, PhraseID: aggregator.PhraseSmallTalkAck}, "alloy", "en")
	cannedKeyUsed := store.lastKey

	d.Resolve(context.Background(), 7, aggregator.Response{Category: aggregator.DYNAMIC, Text: "order total"}, "alloy", "en")
	dynamicKeyUsed := store.lastKey

	assert.NotEqual(t, cannedKeyUsed, dynamicKeyUsed)
	assert.Contains(t, cannedKeyUsed, "canned")
	assert.Contains(t, dynamicKeyUsed, "tts")
}
