package services

import (
	"context"
	"fmt"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// OpenAI Text-to-Speech Service
// Uses the tts-1 model via the official speech endpoint. Voices: alloy, echo,
// fable, onyx, nova, shimmer. Speed is applied natively by the API.
// ---------------------------------------------------------------------------

const openAITTSDefaultVoice = "alloy"

type OpenAITTSService struct {
	client *openai.Client
}

// Ensure OpenAITTSService implements TTSService at compile time.
var _ TTSService = (*OpenAITTSService)(nil)

func NewOpenAITTSService(apiKey string) *OpenAITTSService {
	return &OpenAITTSService{
		client: openai.NewClient(apiKey),
	}
}

func (s *OpenAITTSService) Synthesize(ctx context.Context, text string, cfg models.VoiceConfig) (*TTSResponse, error) {
	voice := cfg.Voice
	if voice == "" {
		voice = openAITTSDefaultVoice
	}

	speed := cfg.Speed
	if speed <= 0 {
		speed = 1.0
	}

	log.Printf("[OpenAI TTS] Generating speech (voice=%s, speed=%.2f, textLen=%d)", voice, speed, len(text))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai speech response: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}

	log.Printf("[OpenAI TTS] Speech generated (%d bytes)", len(audioData))

	return &TTSResponse{
		AudioData: audioData,
		Format:    "mp3",
	}, nil
}
