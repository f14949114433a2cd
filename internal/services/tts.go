package services

import (
	"context"
	"fmt"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers.
// The render pipeline issues one whole-script synthesis request per job and
// treats any failure as a silent fallback (the video ships without audio).
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData []byte
	Format    string // "mp3", "wav", ...
}

// TTSService is the interface that any TTS provider must implement.
type TTSService interface {
	// Synthesize converts text to audio using the voice settings from the
	// render config. Implementations honor cfg.Voice; cfg.Speed support is
	// provider-dependent.
	Synthesize(ctx context.Context, text string, cfg models.VoiceConfig) (*TTSResponse, error)
}

// TTSDispatcher routes synthesis requests to the provider named in the
// voice config. Unknown providers fall through to gtts, mirroring the
// original service's default.
type TTSDispatcher struct {
	providers map[string]TTSService
	fallback  string
}

func NewTTSDispatcher() *TTSDispatcher {
	return &TTSDispatcher{
		providers: make(map[string]TTSService),
		fallback:  "gtts",
	}
}

// Register adds a provider under its config name ("gtts", "openai").
func (d *TTSDispatcher) Register(name string, svc TTSService) {
	d.providers[name] = svc
}

func (d *TTSDispatcher) Synthesize(ctx context.Context, text string, cfg models.VoiceConfig) (*TTSResponse, error) {
	svc, ok := d.providers[cfg.Provider]
	if !ok {
		svc, ok = d.providers[d.fallback]
	}
	if !ok {
		return nil, fmt.Errorf("no TTS provider configured for %q", cfg.Provider)
	}
	return svc.Synthesize(ctx, text, cfg)
}
