package audio

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// OpenAISynthesizer implements ttsport.Synthesizer over the Chat Completions
// vendor's speech endpoint, grounded on internal/llm's OpenAIClient: a thin
// wrapper holding an SDK client and a model name, no retry logic of its own.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	log    *logger.Logger
}

// NewOpenAISynthesizer builds a Synthesizer from an API key.
func NewOpenAISynthesizer(apiKey string, model string, log *logger.Logger) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAISynthesizer{client: openai.NewClient(apiKey), model: openai.SpeechModel(model), log: log}
}

// Synthesize turns text into MP3 bytes for one voice/language pair. The
// vendor's speech endpoint has no separate language parameter; language is
// folded into the voice selection upstream of this call.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: create speech: %w", err)
	}
	defer resp.Close()

	audioBytes, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("tts: read speech response: %w", err)
	}
	return audioBytes, nil
}
