package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// Google Translate Text-to-Speech Service
// Free keyless endpoint, the same one the gTTS library wraps. The voice field
// carries a language code ("en", "zh", "ja", "ko"). The endpoint caps input
// length, so long narration is split at whitespace and the MP3 segments are
// appended — valid for same-encoder MPEG frames.
// ---------------------------------------------------------------------------

const (
	gttsBaseURL     = "https://translate.google.com/translate_tts"
	gttsDefaultLang = "en"
	gttsChunkLimit  = 180 // characters per request
)

type GoogleTTSService struct {
	client *http.Client
}

var _ TTSService = (*GoogleTTSService)(nil)

func NewGoogleTTSService() *GoogleTTSService {
	return &GoogleTTSService{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Synthesize converts text to speech one chunk at a time. Playback speed is
// fixed by the endpoint; cfg.Speed is not applied here (the OpenAI provider
// supports it natively).
func (s *GoogleTTSService) Synthesize(ctx context.Context, text string, cfg models.VoiceConfig) (*TTSResponse, error) {
	lang := cfg.Voice
	if lang == "" {
		lang = gttsDefaultLang
	}

	chunks := splitTTSChunks(text, gttsChunkLimit)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to synthesize")
	}

	log.Printf("[gTTS] Generating speech (lang=%s, chunks=%d, textLen=%d)", lang, len(chunks), len(text))

	var audio bytes.Buffer
	for i, chunk := range chunks {
		data, err := s.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(data)
	}

	log.Printf("[gTTS] Speech generated (%d bytes)", audio.Len())

	return &TTSResponse{
		AudioData: audio.Bytes(),
		Format:    "mp3",
	}, nil
}

func (s *GoogleTTSService) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", lang)

	req, err := http.NewRequestWithContext(ctx, "GET", gttsBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tts response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}

	return data, nil
}

// splitTTSChunks breaks text into request-sized pieces at whitespace
// boundaries. A single word longer than the limit becomes its own chunk.
func splitTTSChunks(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder

	for _, word := range words {
		candidate := current.Len() + len(word)
		if current.Len() > 0 {
			candidate++ // joining space
		}
		if candidate > limit && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
